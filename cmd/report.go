package cmd

import (
	"fmt"
	"io"

	"github.com/jsphweid/floppydaw/chord"
	"github.com/jsphweid/floppydaw/logger"
	"github.com/jsphweid/floppydaw/song"
	"github.com/jsphweid/floppydaw/util"
	"github.com/spf13/cobra"
)

var reportMaxFiles int

const (
	minChordNotes = 3
	numTopChords  = 5
)

func init() {
	reportCmd.Flags().IntVar(&reportMaxFiles, "max", 0, "stop after this many files, 0 for all")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [dir]",
	Short: "Creates a report",
	Long:  `Imports every midi file under dir (default: the media dir) and reports what the song model made of them.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.MediaDir
		if len(args) == 1 {
			dir = args[0]
		}
		paths, err := util.GatherAllMidiPaths(dir, reportMaxFiles)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), analyzeFiles(newSong(), paths))
		return nil
	},
}

type filesReport struct {
	numFiles     int
	numFailed    int
	numTracks    int
	eventsByKind map[string]int
	chordCounts  map[string]int
	durations    []uint64
	shortestUs   uint64
	longestUs    uint64
	longestPath  string
}

func analyzeFiles(s *song.Song, paths []string) filesReport {
	report := filesReport{
		eventsByKind: make(map[string]int),
		chordCounts:  make(map[string]int),
	}
	for _, path := range paths {
		report.numFiles += 1
		if err := s.ImportMidi0(path); err != nil {
			logger.Get().WithError(err).WithField("path", path).Warn("Skipping file")
			report.numFailed += 1
			continue
		}

		report.numTracks += s.NumTracks()
		for _, track := range s.Tracks() {
			events := track.Events()
			for _, e := range events {
				report.eventsByKind[e.Kind.String()] += 1
			}
			chord.CountKeys(chord.FromEvents(events), minChordNotes, report.chordCounts)
		}
		for _, e := range s.MetaTrack().Events() {
			report.eventsByKind[e.Kind.String()] += 1
		}

		us := s.DurationUs()
		if len(report.durations) == 0 {
			report.shortestUs = us
		}
		report.durations = append(report.durations, us)
		if report.longestPath == "" || us > report.longestUs {
			report.longestPath = path
		}
		report.longestUs = util.Max(report.longestUs, us)
		report.shortestUs = util.Min(report.shortestUs, us)
	}
	return report
}

func printReport(w io.Writer, report filesReport) {
	fmt.Fprintf(w, "files: %v\n", report.numFiles)
	fmt.Fprintf(w, "failed: %v\n", report.numFailed)
	fmt.Fprintf(w, "tracks: %v\n", report.numTracks)
	for _, kind := range util.GetSortedKeys(report.eventsByKind) {
		fmt.Fprintf(w, "events %v: %v\n", kind, report.eventsByKind[kind])
	}
	for _, kc := range chord.Top(report.chordCounts, numTopChords) {
		fmt.Fprintf(w, "chord %v: %v\n", kc.Key, kc.Count)
	}
	fmt.Fprintf(w, "total duration: %v\n", util.FormatDuration(util.Sum(report.durations)))
	if report.longestPath != "" {
		fmt.Fprintf(w, "shortest: %v\n", util.FormatDuration(report.shortestUs))
		fmt.Fprintf(w, "longest: %v %v\n", util.FormatDuration(report.longestUs), report.longestPath)
	}
}
