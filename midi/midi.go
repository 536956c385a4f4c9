package midi

import "fmt"

type EventClass uint8

const (
	ClassNoteOn EventClass = iota + 1
	ClassNoteOff
	ClassProgramChange
	ClassPitchBend
	// any channel message not listed above
	ClassOtherChannel
	ClassSetTempo
	// any meta message except set-tempo and end-of-track
	ClassOtherMeta
	// sysex and escape messages, neither channel nor meta
	ClassSystem
)

func (c EventClass) String() string {
	switch c {
	case ClassNoteOn:
		return "note-on"
	case ClassNoteOff:
		return "note-off"
	case ClassProgramChange:
		return "program-change"
	case ClassPitchBend:
		return "pitch-bend"
	case ClassOtherChannel:
		return "channel"
	case ClassSetTempo:
		return "set-tempo"
	case ClassOtherMeta:
		return "meta"
	case ClassSystem:
		return "system"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

func (c EventClass) IsChannel() bool {
	return c >= ClassNoteOn && c <= ClassOtherChannel
}

// Event is one logical event of a single-track stream.
//
// Payload by class:
//
//	note-on/off     Key, Velocity
//	program-change  Program
//	pitch-bend      PitchBend (14 bit, 8192 = centre)
//	channel         Status (high nibble of the status byte)
//	set-tempo       MicrosecondsPerQuarterNote
//	meta            MetaType
type Event struct {
	Delta   uint32
	Class   EventClass
	Channel uint8

	Key                        uint8
	Velocity                   uint8
	Program                    uint8
	PitchBend                  uint16
	Status                     uint8
	MicrosecondsPerQuarterNote uint32
	MetaType                   uint8
}

type Header struct {
	Tpqn uint16
}

// Source yields the events of one track in stream order. ReadEvent returns
// io.EOF once the end-of-track is reached.
type Source interface {
	Header() Header
	ReadEvent() (Event, error)
	Close() error
}

// Sink receives a single track, every call carries the delta to the
// previous event.
type Sink interface {
	WriteNoteOn(delta uint32, channel, key, velocity uint8) error
	WriteNoteOff(delta uint32, channel, key, velocity uint8) error
	WriteProgramChange(delta uint32, channel, program uint8) error
	WritePitchBend(delta uint32, channel uint8, value uint16) error
	WriteSetTempoMeta(delta uint32, bpm float64) error
	WriteEndOfTrackMeta(delta uint32) error
	Close() error
}

type Opener func(path string) (Source, error)

type Creator func(path string, tpqn uint16) (Sink, error)
