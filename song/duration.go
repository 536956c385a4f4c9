package song

import (
	"github.com/jsphweid/floppydaw/constants"
	"github.com/jsphweid/floppydaw/model"
	"golang.org/x/exp/slices"
)

type timedEvent struct {
	tick    uint32
	tempo   bool
	usPerQN uint64
}

// sortTimed keeps insertion order on equal ticks, track events were added
// before tempo changes.
func sortTimed(events []timedEvent) {
	slices.SortStableFunc(events, func(a, b timedEvent) bool {
		return a.tick < b.tick
	})
}

// DurationUs is the length of the longest track in microseconds.
func (s *Song) DurationUs() uint64 {
	var res uint64
	for _, track := range s.tracks {
		if us := s.trackDurationUs(track); us > res {
			res = us
		}
	}
	return res
}

func (s *Song) TrackDurationUs(trackNo int) (uint64, error) {
	track, err := s.Track(trackNo)
	if err != nil {
		return 0, err
	}
	return s.trackDurationUs(track), nil
}

// trackDurationUs walks the note-on/note-off ticks of a track merged with the
// song's tempo changes. The result is the time of the last note event,
// tempo changes after it do not count.
func (s *Song) trackDurationUs(track *model.ChannelTrack) uint64 {
	var events []timedEvent
	for _, e := range track.MutableEvents() {
		if e.Kind == model.KindNoteBlock {
			events = append(events, timedEvent{tick: e.StartTick}, timedEvent{tick: e.EndTick()})
		}
	}
	if len(events) == 0 || s.tpqn == 0 {
		return 0
	}
	for _, e := range s.metaTrack.TempoEvents() {
		if us := e.MicrosecondsPerQuarterNote(); us > 0 {
			events = append(events, timedEvent{tick: e.StartTick, tempo: true, usPerQN: us})
		}
	}
	sortTimed(events)

	usPerQN := uint64(constants.DefaultMicrosecondsPerQuarterNote)
	tpqn := uint64(s.tpqn)

	var lastTick uint32
	var elapsed, audible uint64
	for _, e := range events {
		elapsed += uint64(e.tick-lastTick) * usPerQN / tpqn
		lastTick = e.tick

		if e.tempo {
			usPerQN = e.usPerQN
			continue
		}
		audible = elapsed
	}
	return audible
}
