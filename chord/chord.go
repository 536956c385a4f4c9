package chord

import (
	"fmt"
	"strings"

	"github.com/jsphweid/floppydaw/model"
	"github.com/jsphweid/floppydaw/util"
	"golang.org/x/exp/slices"
)

// Chord is the set of notes sounding from StartTick until the next chord.
type Chord struct {
	StartTick uint32
	Notes     []uint8
}

func (c Chord) Key() string {
	return CreateChordKey(c.Notes)
}

// CreateChordKey joins the notes in ascending order, 60-64-67. notes is not
// modified.
func CreateChordKey(notes []uint8) string {
	sorted := slices.Clone(notes)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, note := range sorted {
		parts[i] = fmt.Sprintf("%v", note)
	}
	return strings.Join(parts, "-")
}

type boundary struct {
	tick uint32
	off  bool
	note uint8
}

// FromEvents returns what is sounding after every tick at which a note block
// starts or ends. Silence is skipped. Zero length blocks never sound.
func FromEvents(events []model.SongEvent) []Chord {
	var bounds []boundary
	for _, e := range events {
		if e.Kind != model.KindNoteBlock || e.NumTicks == 0 {
			continue
		}
		bounds = append(bounds,
			boundary{tick: e.StartTick, note: e.Note},
			boundary{tick: e.EndTick(), off: true, note: e.Note})
	}

	// smaller ticks first, then note offs
	slices.SortStableFunc(bounds, func(a, b boundary) bool {
		if a.tick != b.tick {
			return a.tick < b.tick
		}
		return a.off && !b.off
	})

	var res []Chord
	pressed := make(map[uint8]int)
	for i, b := range bounds {
		if b.off {
			pressed[b.note]--
			if pressed[b.note] <= 0 {
				delete(pressed, b.note)
			}
		} else {
			pressed[b.note]++
		}

		lastAtTick := i == len(bounds)-1 || bounds[i+1].tick != b.tick
		if lastAtTick && len(pressed) > 0 {
			res = append(res, Chord{StartTick: b.tick, Notes: util.GetSortedKeys(pressed)})
		}
	}
	return res
}

// CountKeys counts the chords of at least minNotes notes by key.
func CountKeys(chords []Chord, minNotes int, counts map[string]int) {
	for _, c := range chords {
		if len(c.Notes) >= minNotes {
			counts[c.Key()] += 1
		}
	}
}

type KeyCount struct {
	Key   string
	Count int
}

// Top returns the n most frequent keys, ties in key order.
func Top(counts map[string]int, n int) []KeyCount {
	res := make([]KeyCount, 0, len(counts))
	for _, key := range util.GetSortedKeys(counts) {
		res = append(res, KeyCount{Key: key, Count: counts[key]})
	}
	slices.SortStableFunc(res, func(a, b KeyCount) bool {
		return a.Count > b.Count
	})
	return res[:util.Min(n, len(res))]
}
