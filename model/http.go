package model

type MidiMetadata struct {
	Artist  string `json:"artist"`
	Release string `json:"release"`
	Title   string `json:"title"`
	Year    uint   `json:"year,omitempty"`
}

type TrackSummary struct {
	Name       string `json:"name"`
	Channel    uint8  `json:"channel"`
	NumEvents  int    `json:"num_events"`
	NumTicks   uint32 `json:"num_ticks"`
	DurationUs uint64 `json:"duration_us"`
}

type SongSummary struct {
	ID                     string         `json:"id"`
	Path                   string         `json:"path,omitempty"`
	Tpqn                   uint16         `json:"tpqn"`
	Tracks                 []TrackSummary `json:"tracks"`
	MetaEvents             int            `json:"meta_events"`
	CurrentSelectedTrackNo int            `json:"current_selected_track_no"`
	DurationUs             uint64         `json:"duration_us"`
	Duration               string         `json:"duration"`
	Metadata               *MidiMetadata  `json:"metadata,omitempty"`
}

type EventDTO struct {
	Kind      string  `json:"kind"`
	StartTick uint32  `json:"start_tick"`
	NumTicks  uint32  `json:"num_ticks"`
	Selected  bool    `json:"selected"`
	Note      *uint8  `json:"note,omitempty"`
	NoteName  string  `json:"note_name,omitempty"`
	Program   *uint8  `json:"program,omitempty"`
	PitchBend *uint16 `json:"pitch_bend,omitempty"`
	Bpm       float64 `json:"bpm,omitempty"`
	RawID     *uint8  `json:"raw_id,omitempty"`
}

// NewEventDTO only fills the payload field that belongs to the kind.
func NewEventDTO(e SongEvent) EventDTO {
	res := EventDTO{
		Kind:      e.Kind.String(),
		StartTick: e.StartTick,
		NumTicks:  e.NumTicks,
		Selected:  e.Selected,
	}
	switch e.Kind {
	case KindNoteBlock:
		note := e.Note
		res.Note = &note
		res.NoteName = NoteName(note)
	case KindProgramChange:
		program := e.Program
		res.Program = &program
	case KindPitchBend:
		bend := e.PitchBend
		res.PitchBend = &bend
	case KindSetTempo:
		res.Bpm = e.Bpm
	case KindNotImplemented, KindNotImplementedMeta:
		raw := e.RawID
		res.RawID = &raw
	}
	return res
}

type SelectionRequest struct {
	Track int `json:"track"`
}

// EventUpdateRequest edits one event, absent fields are left alone.
type EventUpdateRequest struct {
	Selected  *bool   `json:"selected"`
	StartTick *uint32 `json:"start_tick"`
	NumTicks  *uint32 `json:"num_ticks"`
}

type PathRequest struct {
	Path string `json:"path"`
}

type ExportResponse struct {
	Path          string `json:"path"`
	Events        int    `json:"events"`
	WriteFailures int    `json:"write_failures"`
}

type WireEventDTO struct {
	Delta     uint32  `json:"delta"`
	Type      string  `json:"type"`
	Channel   *uint8  `json:"channel,omitempty"`
	Key       *uint8  `json:"key,omitempty"`
	Velocity  *uint8  `json:"velocity,omitempty"`
	Program   *uint8  `json:"program,omitempty"`
	PitchBend *uint16 `json:"pitch_bend,omitempty"`
	TempoUs   uint32  `json:"tempo_us,omitempty"`
}

type PreviewResponse struct {
	Tpqn          uint16         `json:"tpqn"`
	Events        []WireEventDTO `json:"events"`
	TrailingDelta uint32         `json:"trailing_delta"`
	WriteFailures int            `json:"write_failures"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
