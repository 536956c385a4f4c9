package song

import (
	"testing"

	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportSingleNote(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480, noteOn(0, 0, 60, 100), noteOff(240, 0, 60))))

	assert := assert.New(t)
	assert.Equal(uint16(480), s.Tpqn())
	require.Equal(t, 1, s.NumTracks())
	track := s.Tracks()[0]
	assert.Equal(uint8(0), track.Channel())
	assert.Equal([]model.SongEvent{model.NewNoteBlock(0, 240, 60)}, track.Events())
}

func TestImportNoteOnWithZeroVelocityCloses(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480, noteOn(0, 0, 64, 90), noteOn(100, 0, 64, 0))))

	assert.Equal(t, []model.SongEvent{model.NewNoteBlock(0, 100, 64)}, s.Tracks()[0].Events())
}

func TestImportDuplicateNoteOnIsIgnored(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480,
		noteOn(0, 0, 60, 100),
		noteOn(120, 0, 60, 100),
		noteOff(240, 0, 60),
		noteOff(360, 0, 60))))

	assert.Equal(t, []model.SongEvent{model.NewNoteBlock(0, 240, 60)}, s.Tracks()[0].Events())
}

func TestImportUnmatchedNoteOffIsIgnored(t *testing.T) {
	s, hook := newTestSong()
	require.NoError(t, s.Import(source(480, noteOff(240, 0, 60))))

	assert.Equal(t, 0, s.Tracks()[0].NumEvents())
	assert.Equal(t, 0, errorEntries(hook))
}

func TestImportDropsDanglingNoteOn(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480,
		noteOn(0, 0, 60, 100),
		noteOn(0, 0, 62, 100), noteOff(100, 0, 62))))

	assert.Equal(t, []model.SongEvent{model.NewNoteBlock(0, 100, 62)}, s.Tracks()[0].Events())
}

func TestImportCreatesTracksPerChannelInFirstSeenOrder(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(96,
		programChange(0, 9, 1),
		noteOn(0, 2, 36, 100),
		noteOn(10, 9, 40, 100),
		noteOff(20, 2, 36),
		noteOff(30, 9, 40))))

	require.Equal(t, 2, s.NumTracks())
	tracks := s.Tracks()
	assert := assert.New(t)
	assert.Equal("Track 10", tracks[0].Name())
	assert.Equal(uint8(9), tracks[0].Channel())
	assert.Equal("Track 3", tracks[1].Name())
	assert.Equal(uint8(2), tracks[1].Channel())

	assert.Equal([]model.SongEvent{
		model.NewProgramChange(0, 1),
		model.NewNoteBlock(10, 20, 40),
	}, tracks[0].Events())
	assert.Equal([]model.SongEvent{model.NewNoteBlock(0, 20, 36)}, tracks[1].Events())
}

func TestImportSamePitchOnDifferentChannelsPairsIndependently(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480,
		noteOn(0, 0, 60, 100),
		noteOn(10, 1, 60, 100),
		noteOff(20, 0, 60),
		noteOff(40, 1, 60))))

	assert.Equal(t, []model.SongEvent{model.NewNoteBlock(0, 20, 60)}, s.Tracks()[0].Events())
	assert.Equal(t, []model.SongEvent{model.NewNoteBlock(10, 30, 60)}, s.Tracks()[1].Events())
}

func TestImportChannelAndMetaEvents(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(midi.NewBufferFrom(480, at(
		pitchBend(0, 0, 8192+100),
		tickedEvent{10, midi.Event{Class: midi.ClassOtherChannel, Channel: 0, Status: 0xB0}},
		tempo(20, 500000),
		tickedEvent{30, midi.Event{Class: midi.ClassOtherMeta, MetaType: 0x58}},
		tickedEvent{40, midi.Event{Class: midi.ClassSystem}},
		tempo(50, 0),
	)).Source()))

	assert := assert.New(t)
	assert.Equal([]model.SongEvent{
		model.NewPitchBend(0, 8292),
		model.NewNotImplemented(10, 0xB0),
	}, s.Tracks()[0].Events())

	meta := s.MetaTrack().Events()
	require.Len(t, meta, 3)
	assert.Equal(model.KindSetTempo, meta[0].Kind)
	assert.Equal(uint32(20), meta[0].StartTick)
	assert.Equal(120.0, meta[0].Bpm)
	assert.Equal(model.NewNotImplementedMeta(30, 0x58), meta[1])
	assert.Equal(model.NewNotImplementedMeta(50, 0x51), meta[2])
}

func TestImportTempoIsNotTruncated(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480, tempo(0, 700000))))

	assert.InDelta(t, 85.714285, s.MetaTrack().Events()[0].Bpm, 1e-6)
}

func TestImportWithoutChannelEventsKeepsDefaultTrack(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480, tempo(0, 600000))))

	require.Equal(t, 1, s.NumTracks())
	assert.Equal(t, "Track 1", s.Tracks()[0].Name())
}

func TestImportZeroTpqnKeepsDefault(t *testing.T) {
	s, _ := newTestSong(WithDefaultTpqn(384))
	require.NoError(t, s.Import(source(0, noteOn(0, 0, 60, 100), noteOff(1, 0, 60))))
	assert.Equal(t, uint16(384), s.Tpqn())
}

func TestImportOpenFailureLeavesSongUntouched(t *testing.T) {
	s, hook := newTestSong(WithOpener(func(path string) (midi.Source, error) {
		return nil, errors.New("no such file")
	}))
	require.NoError(t, s.Import(source(480, noteOn(0, 4, 60, 100), noteOff(10, 4, 60))))
	id := s.ID()

	err := s.ImportMidi0("missing.mid")

	assert := assert.New(t)
	assert.ErrorIs(err, midi.ErrStreamOpen)
	assert.Equal(id, s.ID())
	assert.Equal(uint8(4), s.Tracks()[0].Channel())
	assert.Equal(1, errorEntries(hook))
}

func TestImportReadFailureClosesAndKeepsPartialSong(t *testing.T) {
	src := &failingSource{
		Source: source(480, noteOn(0, 1, 60, 100), noteOff(10, 1, 60), noteOn(20, 1, 62, 100)),
		n:      2,
	}
	s, hook := newTestSong()

	err := s.Import(src)

	assert := assert.New(t)
	assert.ErrorIs(err, midi.ErrStreamRead)
	assert.Equal(1, src.closed)
	assert.Equal([]model.SongEvent{model.NewNoteBlock(0, 10, 60)}, s.Tracks()[0].Events())
	assert.Equal(1, errorEntries(hook))
}

func TestImportFromClosedSourceFails(t *testing.T) {
	src := source(480, noteOn(0, 0, 60, 100), noteOff(10, 0, 60))
	require.NoError(t, src.Close())
	s, _ := newTestSong()

	err := s.Import(src)
	assert.ErrorIs(t, err, midi.ErrStreamRead)
}

func TestImportNoteBlocksStayInsideStream(t *testing.T) {
	s, _ := newTestSong()
	require.NoError(t, s.Import(source(480,
		noteOn(0, 0, 60, 100),
		noteOn(5, 0, 64, 100),
		noteOff(7, 0, 64),
		noteOn(9, 0, 64, 100),
		noteOff(30, 0, 60),
		noteOff(31, 0, 64))))

	for _, e := range s.Tracks()[0].Events() {
		assert.LessOrEqual(t, e.EndTick(), uint32(31))
	}
	assert.Equal(t, []model.SongEvent{
		model.NewNoteBlock(5, 2, 64),
		model.NewNoteBlock(0, 30, 60),
		model.NewNoteBlock(9, 22, 64),
	}, s.Tracks()[0].Events())
}
