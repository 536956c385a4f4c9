package midi

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jsphweid/floppydaw/constants"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	metaEndOfTrack = 0x2F
	metaSetTempo   = 0x51
)

func readSMF(path string) (s *smf.SMF, e error) {
	// the smf reader panics on some corrupt files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.New(fmt.Sprintf("Error parsing midi file... %v", r))
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file...")
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing midi file...")
	}
	return res, nil
}

// FileSource reads a single-track standard midi file. The whole file is
// parsed on open, ReadEvent walks the parsed track.
type FileSource struct {
	path   string
	header Header
	track  smf.Track
	pos    int
	closed bool
}

func OpenFile(path string) (*FileSource, error) {
	s, err := readSMF(path)
	if err != nil {
		return nil, newStreamError(StreamOpenError, path, err)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, newStreamError(StreamOpenError, path, errors.New("SMPTE time format is not supported"))
	}
	if len(s.Tracks) != 1 {
		return nil, newStreamError(StreamOpenError, path, errors.New(fmt.Sprintf("expected 1 track, file has %d", len(s.Tracks))))
	}

	return &FileSource{
		path:   path,
		header: Header{Tpqn: uint16(ticks)},
		track:  s.Tracks[0],
	}, nil
}

// FileOpener adapts OpenFile to the Opener signature.
func FileOpener(path string) (Source, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (f *FileSource) Header() Header {
	return f.header
}

func (f *FileSource) ReadEvent() (Event, error) {
	if f.closed {
		return Event{}, newStreamError(StreamReadError, f.path, errors.New("source is closed"))
	}
	for f.pos < len(f.track) {
		evt := f.track[f.pos]
		f.pos++
		res, eot := decode(evt.Delta, evt.Message)
		if eot {
			f.pos = len(f.track)
			break
		}
		return res, nil
	}
	return Event{}, io.EOF
}

func (f *FileSource) Close() error {
	if f.closed {
		return newStreamError(StreamCloseError, f.path, errors.New("source already closed"))
	}
	f.closed = true
	f.track = nil
	return nil
}

func decode(delta uint32, msg smf.Message) (Event, bool) {
	res := Event{Delta: delta, Class: ClassSystem}
	if len(msg) == 0 {
		return res, false
	}

	m := gomidi.Message(msg)
	var channel, key, velocity, program uint8
	var relative int16
	var absolute uint16
	switch {
	case m.GetNoteOn(&channel, &key, &velocity):
		res.Class = ClassNoteOn
		res.Channel, res.Key, res.Velocity = channel, key, velocity
	case m.GetNoteOff(&channel, &key, &velocity):
		res.Class = ClassNoteOff
		res.Channel, res.Key, res.Velocity = channel, key, velocity
	case m.GetProgramChange(&channel, &program):
		res.Class = ClassProgramChange
		res.Channel, res.Program = channel, program
	case m.GetPitchBend(&channel, &relative, &absolute):
		res.Class = ClassPitchBend
		res.Channel, res.PitchBend = channel, absolute
	case msg[0] >= 0x80 && msg[0] < 0xF0:
		res.Class = ClassOtherChannel
		res.Channel, res.Status = msg[0]&0x0F, msg[0]&0xF0
	case msg[0] == 0xFF && len(msg) >= 2:
		switch msg[1] {
		case metaEndOfTrack:
			return res, true
		case metaSetTempo:
			if len(msg) >= 6 && msg[2] == 3 {
				res.Class = ClassSetTempo
				res.MicrosecondsPerQuarterNote = uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				return res, false
			}
		}
		res.Class = ClassOtherMeta
		res.MetaType = msg[1]
	}
	return res, false
}

// FileSink collects one track in memory and encodes it as a type 0 file on
// Close. The target file is created up front so an unwritable path fails at
// create time.
type FileSink struct {
	path   string
	file   *os.File
	tpqn   uint16
	track  smf.Track
	eot    bool
	closed bool
}

func CreateFile(path string, tpqn uint16) (*FileSink, error) {
	if tpqn == 0 {
		return nil, newStreamError(StreamOpenError, path, errors.New("tpqn must be positive"))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, newStreamError(StreamOpenError, path, err)
	}
	return &FileSink{path: path, file: f, tpqn: tpqn}, nil
}

// FileCreator adapts CreateFile to the Creator signature.
func FileCreator(path string, tpqn uint16) (Sink, error) {
	sink, err := CreateFile(path, tpqn)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func (f *FileSink) check(err error) error {
	if err == nil && f.closed {
		err = errors.New("sink is closed")
	}
	if err == nil && f.eot {
		err = errors.New("end of track already written")
	}
	if err != nil {
		return newStreamError(StreamWriteError, f.path, err)
	}
	return nil
}

func (f *FileSink) add(delta uint32, msg []byte, err error) error {
	if err == nil {
		err = checkDelta(delta)
	}
	if err := f.check(err); err != nil {
		return err
	}
	f.track.Add(delta, msg)
	return nil
}

func (f *FileSink) WriteNoteOn(delta uint32, channel, key, velocity uint8) error {
	err := checkNote(channel, key, velocity)
	return f.add(delta, gomidi.NoteOn(channel, key, velocity), err)
}

func (f *FileSink) WriteNoteOff(delta uint32, channel, key, velocity uint8) error {
	err := checkNote(channel, key, velocity)
	return f.add(delta, gomidi.NoteOffVelocity(channel, key, velocity), err)
}

func (f *FileSink) WriteProgramChange(delta uint32, channel, program uint8) error {
	err := checkChannel(channel)
	if err == nil {
		err = checkDataByte("program", program)
	}
	return f.add(delta, gomidi.ProgramChange(channel, program), err)
}

func (f *FileSink) WritePitchBend(delta uint32, channel uint8, value uint16) error {
	err := checkChannel(channel)
	if err == nil {
		err = checkPitchBend(value)
	}
	relative := int16(int(value) - constants.PitchBendCenter)
	return f.add(delta, gomidi.Pitchbend(channel, relative), err)
}

// WriteSetTempoMeta rounds to the nearest microsecond, so a tempo read from a
// file is written back with the same payload.
func (f *FileSink) WriteSetTempoMeta(delta uint32, bpm float64) error {
	err := checkBpm(bpm)
	if err == nil {
		err = checkDelta(delta)
	}
	if err := f.check(err); err != nil {
		return err
	}
	us := uint32(math.Round(constants.MicrosecondsPerMinute / bpm))
	f.track.Add(delta, smf.Message{0xFF, metaSetTempo, 0x03, byte(us >> 16), byte(us >> 8), byte(us)})
	return nil
}

func (f *FileSink) WriteEndOfTrackMeta(delta uint32) error {
	if err := f.check(checkDelta(delta)); err != nil {
		return err
	}
	f.track.Close(delta)
	f.eot = true
	return nil
}

// Close encodes and writes the file. It closes the handle even when the
// encoding fails.
func (f *FileSink) Close() error {
	if f.closed {
		return newStreamError(StreamCloseError, f.path, errors.New("sink already closed"))
	}
	f.closed = true
	if !f.eot {
		f.track.Close(0)
		f.eot = true
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(f.tpqn)
	err := s.Add(f.track)
	if err == nil {
		_, err = s.WriteTo(f.file)
	}
	if closeErr := f.file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return newStreamError(StreamCloseError, f.path, err)
	}
	return nil
}
