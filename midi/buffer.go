package midi

import (
	"fmt"
	"io"
	"math"

	"github.com/jsphweid/floppydaw/constants"
	"github.com/pkg/errors"
)

func checkChannel(channel uint8) error {
	if channel >= constants.NumChannels {
		return errors.New(fmt.Sprintf("channel %d out of range", channel))
	}
	return nil
}

func checkDataByte(name string, value uint8) error {
	if value > constants.MaxDataByte {
		return errors.New(fmt.Sprintf("%s %d out of range", name, value))
	}
	return nil
}

func checkNote(channel, key, velocity uint8) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	if err := checkDataByte("key", key); err != nil {
		return err
	}
	return checkDataByte("velocity", velocity)
}

func checkPitchBend(value uint16) error {
	if value > constants.PitchBendMax {
		return errors.New(fmt.Sprintf("pitch bend %d out of range", value))
	}
	return nil
}

func checkDelta(delta uint32) error {
	if delta > constants.MaxDeltaTicks {
		return errors.New(fmt.Sprintf("delta %d out of range", delta))
	}
	return nil
}

func checkBpm(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return errors.New(fmt.Sprintf("invalid tempo %v bpm", bpm))
	}
	// µs per quarter note has to fit the 24 bit meta payload
	if constants.MicrosecondsPerMinute/bpm > 0xFFFFFF {
		return errors.New(fmt.Sprintf("tempo %v bpm too slow", bpm))
	}
	return nil
}

// Buffer is an in-memory Sink. What was written can be read back through
// Source, which makes it a drop-in stream for tests and previews.
type Buffer struct {
	tpqn     uint16
	events   []Event
	eot      bool
	eotDelta uint32
	closed   bool
}

func NewBuffer(tpqn uint16) *Buffer {
	return &Buffer{tpqn: tpqn}
}

// NewBufferFrom builds a closed buffer holding events, ready to be read.
func NewBufferFrom(tpqn uint16, events []Event) *Buffer {
	b := &Buffer{tpqn: tpqn, eot: true, closed: true}
	b.events = append(b.events, events...)
	return b
}

func (b *Buffer) Tpqn() uint16 {
	return b.tpqn
}

// Events returns a copy of everything written so far.
func (b *Buffer) Events() []Event {
	res := make([]Event, len(b.events))
	copy(res, b.events)
	return res
}

func (b *Buffer) EndOfTrackWritten() bool {
	return b.eot
}

func (b *Buffer) check(err error) error {
	if err == nil && b.closed {
		err = errors.New("sink is closed")
	}
	if err == nil && b.eot {
		err = errors.New("end of track already written")
	}
	if err != nil {
		return newStreamError(StreamWriteError, "", err)
	}
	return nil
}

func (b *Buffer) add(e Event, err error) error {
	if err == nil {
		err = checkDelta(e.Delta)
	}
	if err := b.check(err); err != nil {
		return err
	}
	b.events = append(b.events, e)
	return nil
}

func (b *Buffer) WriteNoteOn(delta uint32, channel, key, velocity uint8) error {
	e := Event{Delta: delta, Class: ClassNoteOn, Channel: channel, Key: key, Velocity: velocity}
	return b.add(e, checkNote(channel, key, velocity))
}

func (b *Buffer) WriteNoteOff(delta uint32, channel, key, velocity uint8) error {
	e := Event{Delta: delta, Class: ClassNoteOff, Channel: channel, Key: key, Velocity: velocity}
	return b.add(e, checkNote(channel, key, velocity))
}

func (b *Buffer) WriteProgramChange(delta uint32, channel, program uint8) error {
	err := checkChannel(channel)
	if err == nil {
		err = checkDataByte("program", program)
	}
	return b.add(Event{Delta: delta, Class: ClassProgramChange, Channel: channel, Program: program}, err)
}

func (b *Buffer) WritePitchBend(delta uint32, channel uint8, value uint16) error {
	err := checkChannel(channel)
	if err == nil {
		err = checkPitchBend(value)
	}
	return b.add(Event{Delta: delta, Class: ClassPitchBend, Channel: channel, PitchBend: value}, err)
}

func (b *Buffer) WriteSetTempoMeta(delta uint32, bpm float64) error {
	err := checkBpm(bpm)
	var us uint32
	if err == nil {
		us = uint32(math.Round(constants.MicrosecondsPerMinute / bpm))
	}
	return b.add(Event{Delta: delta, Class: ClassSetTempo, MicrosecondsPerQuarterNote: us}, err)
}

func (b *Buffer) WriteEndOfTrackMeta(delta uint32) error {
	if err := b.check(checkDelta(delta)); err != nil {
		return err
	}
	b.eot = true
	b.eotDelta = delta
	return nil
}

// TrailingDelta is the delta written with the end-of-track meta event.
func (b *Buffer) TrailingDelta() uint32 {
	return b.eotDelta
}

func (b *Buffer) Close() error {
	if b.closed {
		return newStreamError(StreamCloseError, "", errors.New("sink already closed"))
	}
	b.closed = true
	return nil
}

// Source returns an independent reader over the buffered events.
func (b *Buffer) Source() Source {
	return &bufferSource{tpqn: b.tpqn, events: b.Events()}
}

type bufferSource struct {
	tpqn   uint16
	events []Event
	pos    int
	closed bool
}

func (s *bufferSource) Header() Header {
	return Header{Tpqn: s.tpqn}
}

func (s *bufferSource) ReadEvent() (Event, error) {
	if s.closed {
		return Event{}, newStreamError(StreamReadError, "", errors.New("source is closed"))
	}
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	e := s.events[s.pos]
	s.pos++
	return e, nil
}

func (s *bufferSource) Close() error {
	if s.closed {
		return newStreamError(StreamCloseError, "", errors.New("source already closed"))
	}
	s.closed = true
	return nil
}
