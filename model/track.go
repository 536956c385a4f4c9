package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Track keeps events in the order they were added. The importer adds them in
// completion order: instantaneous events at their start tick, note blocks at
// the tick of the closing note-off.
type Track struct {
	name   string
	events []SongEvent
}

func NewTrack(name string) Track {
	return Track{name: name}
}

func (t *Track) Name() string {
	return t.name
}

func (t *Track) AddEvent(e SongEvent) {
	t.events = append(t.events, e.Clone())
}

// Events returns a copy, changing it does not touch the track.
func (t *Track) Events() []SongEvent {
	res := make([]SongEvent, len(t.events))
	copy(res, t.events)
	return res
}

// MutableEvents returns the backing slice for in-place edits.
func (t *Track) MutableEvents() []SongEvent {
	return t.events
}

func (t *Track) NumEvents() int {
	return len(t.events)
}

func (t *Track) NumTicks() uint32 {
	if len(t.events) == 0 {
		return 0
	}
	return t.events[len(t.events)-1].EndTick()
}

func (t *Track) Clone() Track {
	return Track{name: t.name, events: t.Events()}
}

type ChannelTrack struct {
	Track
	channel uint8
}

func NewChannelTrack(name string, channel uint8) *ChannelTrack {
	return &ChannelTrack{Track: NewTrack(name), channel: channel}
}

func (t *ChannelTrack) Channel() uint8 {
	return t.channel
}

func (t *ChannelTrack) Clone() *ChannelTrack {
	return &ChannelTrack{Track: t.Track.Clone(), channel: t.channel}
}

// MetaTrack holds the channel independent events of a song.
type MetaTrack struct {
	track Track
}

func NewMetaTrack(name string) *MetaTrack {
	return &MetaTrack{track: NewTrack(name)}
}

func (m *MetaTrack) AddEvent(e SongEvent) error {
	if !e.Kind.IsMeta() {
		return errors.New(fmt.Sprintf("meta track cannot hold %v events", e.Kind))
	}
	m.track.AddEvent(e)
	return nil
}

func (m *MetaTrack) Name() string {
	return m.track.Name()
}

func (m *MetaTrack) Events() []SongEvent {
	return m.track.Events()
}

func (m *MetaTrack) MutableEvents() []SongEvent {
	return m.track.MutableEvents()
}

func (m *MetaTrack) NumEvents() int {
	return m.track.NumEvents()
}

func (m *MetaTrack) NumTicks() uint32 {
	return m.track.NumTicks()
}

func (m *MetaTrack) Clone() *MetaTrack {
	return &MetaTrack{track: m.track.Clone()}
}

// TempoEvents returns only the SetTempo events, in stored order.
func (m *MetaTrack) TempoEvents() []SongEvent {
	var res []SongEvent
	for _, e := range m.track.events {
		if e.Kind == KindSetTempo {
			res = append(res, e)
		}
	}
	return res
}
