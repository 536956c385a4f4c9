// Package song holds the Song aggregate and its MIDI type 0 import, export
// and duration calculation.
//
// A Song is not safe for concurrent use. Callers keep a single writer and
// must not edit a song while an import or export on it is running. Change
// notifications go through a notify.Broker, which is safe to subscribe to
// from other goroutines.
package song

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jsphweid/floppydaw/constants"
	"github.com/jsphweid/floppydaw/logger"
	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/model"
	"github.com/jsphweid/floppydaw/notify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Song struct {
	id                     uuid.UUID
	tpqn                   uint16
	tracks                 []*model.ChannelTrack
	metaTrack              *model.MetaTrack
	currentSelectedTrackNo int

	opts   options
	broker *notify.Broker
}

type options struct {
	defaultTpqn     uint16
	velocity        uint8
	endOfTrackDelta uint32
	log             logrus.FieldLogger
	open            midi.Opener
	create          midi.Creator
}

type Option func(*options)

func WithDefaultTpqn(tpqn uint16) Option {
	return func(o *options) {
		if tpqn > 0 {
			o.defaultTpqn = tpqn
		}
	}
}

// WithVelocity sets the velocity of exported note-on and note-off events.
func WithVelocity(velocity uint8) Option {
	return func(o *options) { o.velocity = velocity }
}

func WithEndOfTrackDelta(delta uint32) Option {
	return func(o *options) { o.endOfTrackDelta = delta }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

func WithOpener(open midi.Opener) Option {
	return func(o *options) { o.open = open }
}

func WithCreator(create midi.Creator) Option {
	return func(o *options) { o.create = create }
}

func New(opts ...Option) *Song {
	o := options{
		defaultTpqn:     constants.DefaultTpqn,
		velocity:        constants.DefaultVelocity,
		endOfTrackDelta: constants.EndOfTrackDelta,
		open:            midi.FileOpener,
		create:          midi.FileCreator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}

	s := &Song{opts: o, broker: notify.NewBroker()}
	s.clear()
	return s
}

// Clear resets the song to one empty track on channel 0.
func (s *Song) Clear() {
	s.clear()
	s.publish(notify.Cleared, -1, -1)
}

func (s *Song) clear() {
	s.id = uuid.New()
	s.tpqn = s.opts.defaultTpqn
	s.tracks = []*model.ChannelTrack{model.NewChannelTrack(trackName(0), 0)}
	s.metaTrack = model.NewMetaTrack(constants.MetaTrackName)
	s.currentSelectedTrackNo = 0
}

func trackName(channel uint8) string {
	return fmt.Sprintf("Track %d", int(channel)+1)
}

func (s *Song) ID() string {
	return s.id.String()
}

func (s *Song) Tpqn() uint16 {
	return s.tpqn
}

func (s *Song) NumTracks() int {
	return len(s.tracks)
}

// Tracks returns the channel tracks in order. The tracks themselves are
// shared, the slice is not.
func (s *Song) Tracks() []*model.ChannelTrack {
	res := make([]*model.ChannelTrack, len(s.tracks))
	copy(res, s.tracks)
	return res
}

func (s *Song) Track(trackNo int) (*model.ChannelTrack, error) {
	if trackNo < 0 || trackNo >= len(s.tracks) {
		return nil, errors.Errorf("track %d out of range, song has %d tracks", trackNo, len(s.tracks))
	}
	return s.tracks[trackNo], nil
}

func (s *Song) MetaTrack() *model.MetaTrack {
	return s.metaTrack
}

func (s *Song) CurrentSelectedTrackNo() int {
	return s.currentSelectedTrackNo
}

// Subscribe registers for change notifications, call the returned func to
// stop.
func (s *Song) Subscribe() (<-chan notify.Change, func()) {
	return s.broker.Subscribe()
}

func (s *Song) publish(kind notify.ChangeKind, trackNo, eventNo int) {
	s.broker.Publish(notify.Change{SongID: s.ID(), Kind: kind, Track: trackNo, Event: eventNo})
}

func (s *Song) SetCurrentSelectedTrackNo(trackNo int) error {
	if _, err := s.Track(trackNo); err != nil {
		return err
	}
	s.currentSelectedTrackNo = trackNo
	s.publish(notify.TrackSelected, trackNo, -1)
	return nil
}

// UnselectAllEvents only touches the currently selected track.
func (s *Song) UnselectAllEvents() {
	track, err := s.Track(s.currentSelectedTrackNo)
	if err != nil {
		return
	}
	events := track.MutableEvents()
	for i := range events {
		events[i].Selected = false
	}
	s.publish(notify.EventsUnselected, s.currentSelectedTrackNo, -1)
}

func (s *Song) event(trackNo, eventNo int) (*model.SongEvent, error) {
	track, err := s.Track(trackNo)
	if err != nil {
		return nil, err
	}
	events := track.MutableEvents()
	if eventNo < 0 || eventNo >= len(events) {
		return nil, errors.Errorf("event %d out of range, track %d has %d events", eventNo, trackNo, len(events))
	}
	return &events[eventNo], nil
}

func (s *Song) SelectEvent(trackNo, eventNo int, selected bool) error {
	e, err := s.event(trackNo, eventNo)
	if err != nil {
		return err
	}
	e.Selected = selected
	s.publish(notify.EventEdited, trackNo, eventNo)
	return nil
}

// checkEndTick rejects events that would end past the last encodable tick.
func checkEndTick(startTick, numTicks uint32) error {
	if end := uint64(startTick) + uint64(numTicks); end > constants.MaxDeltaTicks {
		return errors.Errorf("event would end at tick %d, last tick is %d", end, constants.MaxDeltaTicks)
	}
	return nil
}

// MoveEvent sets a new start tick, the duration is kept.
func (s *Song) MoveEvent(trackNo, eventNo int, startTick uint32) error {
	e, err := s.event(trackNo, eventNo)
	if err != nil {
		return err
	}
	if err := checkEndTick(startTick, e.NumTicks); err != nil {
		return err
	}
	e.StartTick = startTick
	s.publish(notify.EventEdited, trackNo, eventNo)
	return nil
}

// ResizeEvent changes the length of a note block.
func (s *Song) ResizeEvent(trackNo, eventNo int, numTicks uint32) error {
	e, err := s.event(trackNo, eventNo)
	if err != nil {
		return err
	}
	if e.Kind != model.KindNoteBlock {
		return errors.Errorf("cannot resize %v event", e.Kind)
	}
	if err := checkEndTick(e.StartTick, numTicks); err != nil {
		return err
	}
	e.NumTicks = numTicks
	s.publish(notify.EventEdited, trackNo, eventNo)
	return nil
}

// EventEdit holds the fields of an event to change, nil leaves one as is.
type EventEdit struct {
	Selected  *bool
	StartTick *uint32
	NumTicks  *uint32
}

// EditEvent applies every field of edit or, when one of them is invalid,
// none.
func (s *Song) EditEvent(trackNo, eventNo int, edit EventEdit) error {
	e, err := s.event(trackNo, eventNo)
	if err != nil {
		return err
	}

	startTick, numTicks := e.StartTick, e.NumTicks
	if edit.StartTick != nil {
		startTick = *edit.StartTick
	}
	if edit.NumTicks != nil {
		if e.Kind != model.KindNoteBlock {
			return errors.Errorf("cannot resize %v event", e.Kind)
		}
		numTicks = *edit.NumTicks
	}
	if err := checkEndTick(startTick, numTicks); err != nil {
		return err
	}

	if edit.Selected != nil {
		e.Selected = *edit.Selected
	}
	e.StartTick, e.NumTicks = startTick, numTicks
	s.publish(notify.EventEdited, trackNo, eventNo)
	return nil
}

// DebugString lists the note blocks of every track.
func (s *Song) DebugString() string {
	var b strings.Builder
	for trackNo, track := range s.tracks {
		fmt.Fprintf(&b, "Note blocks of track %d '%s' (channel %d):\n", trackNo+1, track.Name(), track.Channel())
		for _, e := range track.MutableEvents() {
			if e.Kind == model.KindNoteBlock {
				fmt.Fprintf(&b, "%v\n", e)
			}
		}
	}
	return b.String()
}
