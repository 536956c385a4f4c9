package song

import (
	"github.com/jsphweid/floppydaw/midi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestSong(opts ...Option) (*Song, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return New(append([]Option{WithLogger(log)}, opts...)...), hook
}

func errorEntries(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			n++
		}
	}
	return n
}

// at turns absolute ticks into deltas, in order.
func at(events ...tickedEvent) []midi.Event {
	var res []midi.Event
	var last uint32
	for _, te := range events {
		e := te.event
		e.Delta = te.tick - last
		last = te.tick
		res = append(res, e)
	}
	return res
}

type tickedEvent struct {
	tick  uint32
	event midi.Event
}

func noteOn(tick uint32, channel, key, velocity uint8) tickedEvent {
	return tickedEvent{tick, midi.Event{Class: midi.ClassNoteOn, Channel: channel, Key: key, Velocity: velocity}}
}

func noteOff(tick uint32, channel, key uint8) tickedEvent {
	return tickedEvent{tick, midi.Event{Class: midi.ClassNoteOff, Channel: channel, Key: key}}
}

func programChange(tick uint32, channel, program uint8) tickedEvent {
	return tickedEvent{tick, midi.Event{Class: midi.ClassProgramChange, Channel: channel, Program: program}}
}

func pitchBend(tick uint32, channel uint8, value uint16) tickedEvent {
	return tickedEvent{tick, midi.Event{Class: midi.ClassPitchBend, Channel: channel, PitchBend: value}}
}

func tempo(tick uint32, us uint32) tickedEvent {
	return tickedEvent{tick, midi.Event{Class: midi.ClassSetTempo, MicrosecondsPerQuarterNote: us}}
}

func source(tpqn uint16, events ...tickedEvent) midi.Source {
	return midi.NewBufferFrom(tpqn, at(events...)).Source()
}

// failingSource returns an error after n events.
type failingSource struct {
	midi.Source
	n      int
	closed int
}

func (f *failingSource) ReadEvent() (midi.Event, error) {
	if f.n == 0 {
		return midi.Event{}, errors.New("disk on fire")
	}
	f.n--
	return f.Source.ReadEvent()
}

func (f *failingSource) Close() error {
	f.closed++
	return f.Source.Close()
}

// brokenSink fails pitch bends and, optionally, close.
type brokenSink struct {
	*midi.Buffer
	failClose bool
	closed    int
}

func (b *brokenSink) WritePitchBend(delta uint32, channel uint8, value uint16) error {
	return errors.New("no pitch bends today")
}

func (b *brokenSink) Close() error {
	b.closed++
	if b.failClose {
		return errors.New("disk full")
	}
	return b.Buffer.Close()
}
