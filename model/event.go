package model

import (
	"fmt"

	"github.com/jsphweid/floppydaw/constants"
)

type EventKind uint8

const (
	KindNoteBlock EventKind = iota
	KindProgramChange
	KindPitchBend
	KindSetTempo
	KindNotImplemented
	KindNotImplementedMeta
)

func (k EventKind) String() string {
	switch k {
	case KindNoteBlock:
		return "note"
	case KindProgramChange:
		return "program-change"
	case KindPitchBend:
		return "pitch-bend"
	case KindSetTempo:
		return "set-tempo"
	case KindNotImplemented:
		return "not-implemented"
	case KindNotImplementedMeta:
		return "not-implemented-meta"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsMeta reports whether events of this kind belong on the meta track.
func (k EventKind) IsMeta() bool {
	return k == KindSetTempo || k == KindNotImplementedMeta
}

// SongEvent is a closed sum over the six event kinds. Only the payload field
// matching Kind is meaningful:
//
//	KindNoteBlock          Note
//	KindProgramChange      Program
//	KindPitchBend          PitchBend (14 bit, 8192 = centre)
//	KindSetTempo           Bpm
//	KindNotImplemented     RawID (channel status nibble, e.g. 0xB0)
//	KindNotImplementedMeta RawID (meta type byte)
//
// SongEvent is a plain value; copying it is a full clone.
type SongEvent struct {
	Kind      EventKind
	StartTick uint32
	NumTicks  uint32
	Selected  bool

	Note      uint8
	Program   uint8
	PitchBend uint16
	Bpm       float64
	RawID     uint8
}

func NewNoteBlock(startTick, numTicks uint32, note uint8) SongEvent {
	return SongEvent{Kind: KindNoteBlock, StartTick: startTick, NumTicks: numTicks, Note: note}
}

func NewProgramChange(startTick uint32, program uint8) SongEvent {
	return SongEvent{Kind: KindProgramChange, StartTick: startTick, Program: program}
}

func NewPitchBend(startTick uint32, value uint16) SongEvent {
	return SongEvent{Kind: KindPitchBend, StartTick: startTick, PitchBend: value}
}

// NewSetTempo derives bpm from the raw tempo payload. The division is done
// in floating point so 60000000/µs is not truncated.
func NewSetTempo(startTick uint32, microsecondsPerQuarterNote uint32) SongEvent {
	return NewSetTempoBpm(startTick, float64(constants.MicrosecondsPerMinute)/float64(microsecondsPerQuarterNote))
}

func NewSetTempoBpm(startTick uint32, bpm float64) SongEvent {
	return SongEvent{Kind: KindSetTempo, StartTick: startTick, Bpm: bpm}
}

func NewNotImplemented(startTick uint32, rawID uint8) SongEvent {
	return SongEvent{Kind: KindNotImplemented, StartTick: startTick, RawID: rawID}
}

func NewNotImplementedMeta(startTick uint32, rawID uint8) SongEvent {
	return SongEvent{Kind: KindNotImplementedMeta, StartTick: startTick, RawID: rawID}
}

func (e SongEvent) Clone() SongEvent {
	return e
}

func (e SongEvent) EndTick() uint32 {
	return e.StartTick + e.NumTicks
}

// MicrosecondsPerQuarterNote is the inverse of the tempo formula, rounded to
// the nearest microsecond. Zero for anything but a tempo event.
func (e SongEvent) MicrosecondsPerQuarterNote() uint64 {
	if e.Kind != KindSetTempo || e.Bpm <= 0 {
		return 0
	}
	return uint64(float64(constants.MicrosecondsPerMinute)/e.Bpm + 0.5)
}

func (e SongEvent) String() string {
	switch e.Kind {
	case KindNoteBlock:
		return fmt.Sprintf("Note: %s, start: %d, numTicks: %d", NoteName(e.Note), e.StartTick, e.NumTicks)
	case KindProgramChange:
		return fmt.Sprintf("Program: %d, start: %d", e.Program, e.StartTick)
	case KindPitchBend:
		return fmt.Sprintf("Pitch bend: %d, start: %d", e.PitchBend, e.StartTick)
	case KindSetTempo:
		return fmt.Sprintf("Tempo: %.2f bpm, start: %d", e.Bpm, e.StartTick)
	case KindNotImplemented:
		return fmt.Sprintf("Event 0x%02X, start: %d", e.RawID, e.StartTick)
	case KindNotImplementedMeta:
		return fmt.Sprintf("Meta 0x%02X, start: %d", e.RawID, e.StartTick)
	default:
		panic(fmt.Sprintf("unknown event kind %d", e.Kind))
	}
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName renders a MIDI key number, 60 -> C4.
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}
