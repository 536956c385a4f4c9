package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jsphweid/floppydaw/chord"
	"github.com/jsphweid/floppydaw/logger"
	"github.com/jsphweid/floppydaw/song"
	"github.com/jsphweid/floppydaw/util"
	"github.com/spf13/cobra"
)

var withMetadata bool

func init() {
	inspectCmd.Flags().BoolVar(&withMetadata, "metadata", false, "look the file up in the metadata catalog")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Inspects a midi file",
	Long:  `Imports a type 0 midi file and prints its tracks, note blocks and duration.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSong()
		if err := s.ImportMidi0(args[0]); err != nil {
			return err
		}
		inspect(cmd.OutOrStdout(), s)

		if withMetadata {
			printMetadata(cmd.OutOrStdout(), filepath.Base(args[0]))
		}
		return nil
	},
}

func inspect(w io.Writer, s *song.Song) {
	fmt.Fprintf(w, "tpqn: %v\n", s.Tpqn())
	for i, track := range s.Tracks() {
		us, _ := s.TrackDurationUs(i)
		fmt.Fprintf(w, "track %v: %v, channel %v, %v events, %v chords, %v\n",
			i+1, track.Name(), track.Channel(), track.NumEvents(),
			len(chord.FromEvents(track.Events())), util.FormatDuration(us))
	}
	for _, e := range s.MetaTrack().Events() {
		fmt.Fprintf(w, "meta: %v\n", e)
	}
	fmt.Fprintf(w, "duration: %v\n", util.FormatDuration(s.DurationUs()))
	fmt.Fprint(w, s.DebugString())
}

func printMetadata(w io.Writer, filename string) {
	catalog, err := connectCatalog()
	if err != nil || catalog == nil {
		logger.Get().WithError(err).Warn("No metadata catalog")
		return
	}
	m, err := catalog.GetMidiMetadata(filename)
	if err != nil {
		logger.Get().WithError(err).Warn("Metadata lookup failed")
		return
	}
	if m == nil {
		fmt.Fprintln(w, "metadata: none")
		return
	}
	fmt.Fprintf(w, "metadata: %v - %v (%v, %v)\n", m.Artist, m.Title, m.Release, m.Year)
}
