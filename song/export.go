package song

import (
	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

type ExportResult struct {
	// events written, end-of-track included
	Events        int
	WriteFailures int
}

// wireEvent is one event of the export stream with its absolute tick.
type wireEvent struct {
	tick      uint32
	class     midi.EventClass
	channel   uint8
	key       uint8
	program   uint8
	pitchBend uint16
	bpm       float64
}

// wireEvents collects the stream in collection order: channel tracks in
// order, events in stored order, then the meta track. Not implemented
// events have no encoding and are left out.
func (s *Song) wireEvents() []wireEvent {
	var res []wireEvent
	for _, track := range s.tracks {
		ch := track.Channel()
		for _, e := range track.MutableEvents() {
			switch e.Kind {
			case model.KindNoteBlock:
				res = append(res,
					wireEvent{tick: e.StartTick, class: midi.ClassNoteOn, channel: ch, key: e.Note},
					wireEvent{tick: e.EndTick(), class: midi.ClassNoteOff, channel: ch, key: e.Note})
			case model.KindProgramChange:
				res = append(res, wireEvent{tick: e.StartTick, class: midi.ClassProgramChange, channel: ch, program: e.Program})
			case model.KindPitchBend:
				res = append(res, wireEvent{tick: e.StartTick, class: midi.ClassPitchBend, channel: ch, pitchBend: e.PitchBend})
			case model.KindSetTempo, model.KindNotImplemented, model.KindNotImplementedMeta:
			}
		}
	}
	for _, e := range s.metaTrack.MutableEvents() {
		if e.Kind == model.KindSetTempo {
			res = append(res, wireEvent{tick: e.StartTick, class: midi.ClassSetTempo, bpm: e.Bpm})
		}
	}
	return res
}

func sortByTick(events []wireEvent) {
	slices.SortStableFunc(events, func(a, b wireEvent) bool {
		return a.tick < b.tick
	})
}

// ExportMidi0 writes the song as a type 0 midi file. A failed write is
// logged and counted but does not stop the export, so the file may end up
// only partially valid.
func (s *Song) ExportMidi0(path string) (ExportResult, error) {
	log := s.opts.log.WithField("path", path)

	sink, err := s.opts.create(path, s.tpqn)
	if err != nil {
		err = midi.Wrap(midi.StreamOpenError, path, err)
		log.WithError(err).Error("Error on creating midi file")
		return ExportResult{}, err
	}
	return s.exportTo(sink, path, log)
}

// Export writes the song to sink and closes it.
func (s *Song) Export(sink midi.Sink) (ExportResult, error) {
	return s.exportTo(sink, "", s.opts.log)
}

func (s *Song) exportTo(sink midi.Sink, path string, log logrus.FieldLogger) (ExportResult, error) {
	var res ExportResult

	events := s.wireEvents()
	sortByTick(events)

	// previous advances on every event, written or not
	var lastTick uint32
	for _, e := range events {
		delta := e.tick - lastTick
		lastTick = e.tick
		if err := s.writeWireEvent(sink, delta, e); err != nil {
			err = midi.Wrap(midi.StreamWriteError, path, err)
			res.WriteFailures++
			log.WithError(err).WithFields(logrus.Fields{
				"tick":  e.tick,
				"class": e.class,
			}).Error("Error on writing midi event")
			continue
		}
		res.Events++
	}

	if err := sink.WriteEndOfTrackMeta(s.opts.endOfTrackDelta); err != nil {
		err = midi.Wrap(midi.StreamWriteError, path, err)
		res.WriteFailures++
		log.WithError(err).Error("Error on writing end of track")
	} else {
		res.Events++
	}

	if err := sink.Close(); err != nil {
		err = midi.Wrap(midi.StreamCloseError, path, err)
		log.WithError(err).Error("Error on closing midi file")
		return res, err
	}

	log.WithFields(logrus.Fields{
		"events":   res.Events,
		"failures": res.WriteFailures,
	}).Debug("Exported midi file")
	return res, nil
}

func (s *Song) writeWireEvent(sink midi.Sink, delta uint32, e wireEvent) error {
	switch e.class {
	case midi.ClassNoteOn:
		return sink.WriteNoteOn(delta, e.channel, e.key, s.opts.velocity)
	case midi.ClassNoteOff:
		return sink.WriteNoteOff(delta, e.channel, e.key, s.opts.velocity)
	case midi.ClassProgramChange:
		return sink.WriteProgramChange(delta, e.channel, e.program)
	case midi.ClassPitchBend:
		return sink.WritePitchBend(delta, e.channel, e.pitchBend)
	case midi.ClassSetTempo:
		return sink.WriteSetTempoMeta(delta, e.bpm)
	}
	return midi.Wrap(midi.StreamWriteError, "", errors.Errorf("no encoding for %v events", e.class))
}
