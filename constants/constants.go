package constants

import "os"

func GetMediaDir() string {
	path := os.Getenv("FLOPPY_MEDIA_PATH")
	if path != "" {
		return path
	}
	return "."
}

func GetListenAddr() string {
	addr := os.Getenv("FLOPPY_LISTEN_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetConfigPath() string {
	return os.Getenv("FLOPPY_CONFIG")
}

// resolution used by a freshly cleared song
const DefaultTpqn = 960

// velocity of every note-on/note-off written on export
const DefaultVelocity = 100

// delta ticks in front of the end-of-track meta event on export
const EndOfTrackDelta = 100

const DefaultBpm = 120

const MicrosecondsPerMinute = 60000000

// 500000 µs per quarter note
const DefaultMicrosecondsPerQuarterNote = MicrosecondsPerMinute / DefaultBpm

const NumChannels = 16

const MaxDataByte = 127

// 14 bit pitch bend range, centre means no bend
const PitchBendCenter = 8192
const PitchBendMax = 16383

const MetaTrackName = "Meta"

// largest delta a variable-length quantity can hold, also the last tick an
// edited event may reach
const MaxDeltaTicks = 0x0FFFFFFF
