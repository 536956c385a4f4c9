package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/song"
	"github.com/jsphweid/floppydaw/util"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triad(t *testing.T, path string, keys ...uint8) {
	log, _ := test.NewNullLogger()
	var events []midi.Event
	for _, key := range keys {
		events = append(events, midi.Event{Class: midi.ClassNoteOn, Channel: 0, Key: key, Velocity: 100})
	}
	for i, key := range keys {
		var delta uint32
		if i == 0 {
			delta = 960
		}
		events = append(events, midi.Event{Delta: delta, Class: midi.ClassNoteOff, Channel: 0, Key: key})
	}

	s := song.New(song.WithLogger(log))
	require.NoError(t, s.Import(midi.NewBufferFrom(480, events).Source()))
	_, err := s.ExportMidi0(path)
	require.NoError(t, err)
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	triad(t, filepath.Join(dir, "a.mid"), 60, 64, 67)
	triad(t, filepath.Join(dir, "b.mid"), 60, 64, 67)
	triad(t, filepath.Join(dir, "c.mid"), 62, 65, 69, 72)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mid"), []byte("nope"), 0666))

	paths, err := util.GatherAllMidiPaths(dir, 0)
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	report := analyzeFiles(song.New(song.WithLogger(log)), paths)

	assert := assert.New(t)
	assert.Equal(4, report.numFiles)
	assert.Equal(1, report.numFailed)
	assert.Equal(3, report.numTracks)
	assert.Equal(10, report.eventsByKind["note"])
	assert.Equal(map[string]int{"60-64-67": 2, "62-65-69-72": 1}, report.chordCounts)
	assert.Equal(uint64(1000000), report.longestUs)
	assert.Equal(uint64(1000000), report.shortestUs)

	var out bytes.Buffer
	printReport(&out, report)
	assert.Contains(out.String(), "chord 60-64-67: 2\n")
	assert.Contains(out.String(), "total duration: 00:03:000\n")
	assert.Contains(out.String(), "longest: 00:01:000 "+filepath.Join(dir, "a.mid")+"\n")
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mid")
	triad(t, path, 60, 64, 67)

	log, _ := test.NewNullLogger()
	s := song.New(song.WithLogger(log))
	require.NoError(t, s.ImportMidi0(path))

	var out bytes.Buffer
	inspect(&out, s)

	assert.Contains(t, out.String(), "track 1: Track 1, channel 0, 3 events, 1 chords, 00:01:000\n")
	assert.Contains(t, out.String(), "Note: E4, start: 0, numTicks: 960\n")
}
