package song

import (
	"io"

	"github.com/jsphweid/floppydaw/constants"
	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/model"
	"github.com/jsphweid/floppydaw/notify"
	"github.com/sirupsen/logrus"
)

// ImportMidi0 replaces the song with the content of a type 0 midi file. If
// the file cannot be opened the song is left untouched. Any later failure
// leaves the song as far as it was populated.
func (s *Song) ImportMidi0(path string) error {
	log := s.opts.log.WithField("path", path)

	src, err := s.opts.open(path)
	if err != nil {
		err = midi.Wrap(midi.StreamOpenError, path, err)
		log.WithError(err).Error("Error on opening midi file")
		return err
	}
	return s.importFrom(src, path, log)
}

// Import replaces the song with the events of src and closes src.
func (s *Song) Import(src midi.Source) error {
	return s.importFrom(src, "", s.opts.log)
}

func (s *Song) importFrom(src midi.Source, path string, log logrus.FieldLogger) error {
	s.clear()
	defer s.publish(notify.Imported, -1, -1)

	if tpqn := src.Header().Tpqn; tpqn > 0 {
		s.tpqn = tpqn
	}

	imp := newImporter(s, log)
	for {
		evt, err := src.ReadEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			err = midi.Wrap(midi.StreamReadError, path, err)
			log.WithError(err).WithField("tick", imp.tick).Error("Error on reading midi event")
			if closeErr := src.Close(); closeErr != nil {
				log.WithError(closeErr).Error("Error on closing midi file")
			}
			return err
		}
		imp.handle(evt)
	}
	imp.dropPending()

	if err := src.Close(); err != nil {
		err = midi.Wrap(midi.StreamCloseError, path, err)
		log.WithError(err).Error("Error on closing midi file")
		return err
	}

	log.WithFields(logrus.Fields{
		"tpqn":   s.tpqn,
		"tracks": len(s.tracks),
		"ticks":  imp.tick,
	}).Debug("Imported midi file")
	return nil
}

// importer is the scratch state of one import run.
type importer struct {
	song *Song
	log  logrus.FieldLogger
	tick uint32

	channelToTrack map[uint8]int
	// per channel: note -> open note block
	pending [constants.NumChannels]map[uint8]model.SongEvent
	// the placeholder track from clear() is still there
	placeholder bool
}

func newImporter(s *Song, log logrus.FieldLogger) *importer {
	return &importer{
		song:           s,
		log:            log,
		channelToTrack: make(map[uint8]int),
		placeholder:    true,
	}
}

// trackFor returns the track of a channel, creating it on first use.
func (imp *importer) trackFor(channel uint8) *model.ChannelTrack {
	if idx, ok := imp.channelToTrack[channel]; ok {
		return imp.song.tracks[idx]
	}
	if imp.placeholder {
		imp.song.tracks = imp.song.tracks[:0]
		imp.placeholder = false
	}
	track := model.NewChannelTrack(trackName(channel), channel)
	imp.song.tracks = append(imp.song.tracks, track)
	imp.channelToTrack[channel] = len(imp.song.tracks) - 1
	return track
}

func (imp *importer) handle(evt midi.Event) {
	imp.tick += evt.Delta

	if evt.Class.IsChannel() && evt.Channel >= constants.NumChannels {
		imp.log.WithField("channel", evt.Channel).Warn("Skipping event on invalid channel")
		return
	}

	switch evt.Class {
	case midi.ClassNoteOn:
		if evt.Velocity > 0 {
			imp.noteOn(evt.Channel, evt.Key)
		} else {
			imp.noteOff(evt.Channel, evt.Key)
		}
	case midi.ClassNoteOff:
		imp.noteOff(evt.Channel, evt.Key)
	case midi.ClassProgramChange:
		imp.trackFor(evt.Channel).AddEvent(model.NewProgramChange(imp.tick, evt.Program))
	case midi.ClassPitchBend:
		imp.trackFor(evt.Channel).AddEvent(model.NewPitchBend(imp.tick, evt.PitchBend))
	case midi.ClassOtherChannel:
		imp.trackFor(evt.Channel).AddEvent(model.NewNotImplemented(imp.tick, evt.Status))
	case midi.ClassSetTempo:
		if evt.MicrosecondsPerQuarterNote == 0 {
			imp.log.WithField("tick", imp.tick).Warn("Ignoring zero tempo")
			imp.addMeta(model.NewNotImplementedMeta(imp.tick, 0x51))
			return
		}
		imp.addMeta(model.NewSetTempo(imp.tick, evt.MicrosecondsPerQuarterNote))
	case midi.ClassOtherMeta:
		imp.addMeta(model.NewNotImplementedMeta(imp.tick, evt.MetaType))
	default:
		imp.log.WithFields(logrus.Fields{"tick": imp.tick, "class": evt.Class}).Debug("Skipping event")
	}
}

// noteOn opens a note block. A note-on for a note that is already sounding
// is ignored.
func (imp *importer) noteOn(channel, note uint8) {
	imp.trackFor(channel)
	if imp.pending[channel] == nil {
		imp.pending[channel] = make(map[uint8]model.SongEvent)
	}
	if _, ok := imp.pending[channel][note]; ok {
		return
	}
	imp.pending[channel][note] = model.NewNoteBlock(imp.tick, 0, note)
}

// noteOff completes the open note block, unmatched note-offs are ignored.
func (imp *importer) noteOff(channel, note uint8) {
	track := imp.trackFor(channel)
	block, ok := imp.pending[channel][note]
	if !ok {
		return
	}
	block.NumTicks = imp.tick - block.StartTick
	track.AddEvent(block)
	delete(imp.pending[channel], note)
}

func (imp *importer) addMeta(e model.SongEvent) {
	if err := imp.song.metaTrack.AddEvent(e); err != nil {
		imp.log.WithError(err).Warn("Dropping meta event")
	}
}

// dropPending discards notes still sounding at the end of the stream.
func (imp *importer) dropPending() {
	for channel, notes := range imp.pending {
		if len(notes) > 0 {
			imp.log.WithFields(logrus.Fields{
				"channel": channel,
				"notes":   len(notes),
			}).Debug("Dropping notes without note-off")
		}
	}
}
