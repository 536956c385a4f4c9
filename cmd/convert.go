package cmd

import (
	"fmt"

	"github.com/jsphweid/floppydaw/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(durationCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <in.mid> <out.mid>",
	Short: "Re-encodes a midi file",
	Long: `Imports a type 0 midi file and exports it again. Events the song model
does not implement are dropped on the way.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSong()
		if err := s.ImportMidi0(args[0]); err != nil {
			return err
		}
		res, err := s.ExportMidi0(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %v events to %v (%v failed)\n", res.Events, args[1], res.WriteFailures)
		return nil
	},
}

var durationCmd = &cobra.Command{
	Use:   "duration <file.mid>...",
	Short: "Prints the duration of midi files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSong()
		for _, path := range args {
			if err := s.ImportMidi0(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", util.FormatDuration(s.DurationUs()), path)
		}
		return nil
	},
}
