//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/floppydaw/cmd"
	"github.com/jsphweid/floppydaw/logger"
	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/model"
	"github.com/jsphweid/floppydaw/song"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var router http.Handler

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "floppydaw-e2e")
	if err != nil {
		panic(err.Error())
	}
	writeFixture(filepath.Join(dir, "scale.mid"))
	router = cmd.NewServer(song.New(), dir, nil, logger.Get()).Router()

	exitVal := m.Run()

	os.RemoveAll(dir)
	os.Exit(exitVal)
}

// writeFixture writes a C major scale in quarter notes at 90 bpm.
func writeFixture(path string) {
	var events []midi.Event
	events = append(events, midi.Event{Class: midi.ClassSetTempo, MicrosecondsPerQuarterNote: 666667})
	for _, key := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
		events = append(events,
			midi.Event{Class: midi.ClassNoteOn, Channel: 0, Key: key, Velocity: 100},
			midi.Event{Delta: 480, Class: midi.ClassNoteOff, Channel: 0, Key: key})
	}

	s := song.New()
	if err := s.Import(midi.NewBufferFrom(480, events).Source()); err != nil {
		panic(err.Error())
	}
	if _, err := s.ExportMidi0(path); err != nil {
		panic(err.Error())
	}
}

func request(method, target string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err.Error())
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result()
}

func decode(resp *http.Response, v any) {
	respBody, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(respBody, v); err != nil {
		panic(err.Error())
	}
}

func TestImportEditExportE2E(t *testing.T) {
	resp := request(http.MethodPost, "/import", model.PathRequest{Path: "scale.mid"})
	require.Equal(t, 200, resp.StatusCode)

	var summary model.SongSummary
	decode(resp, &summary)

	assert := assert.New(t)
	assert.Equal(uint16(480), summary.Tpqn)
	require.Len(t, summary.Tracks, 1)
	assert.Equal(8, summary.Tracks[0].NumEvents)
	// 8 quarters at 666667 µs
	assert.Equal(uint64(5333336), summary.DurationUs)
	assert.Equal("00:05:333", summary.Duration)

	length := uint32(960)
	resp = request(http.MethodPut, "/tracks/0/events/7", model.EventUpdateRequest{NumTicks: &length})
	require.Equal(t, 200, resp.StatusCode)

	resp = request(http.MethodPost, "/export", model.PathRequest{Path: "scale-long.mid"})
	require.Equal(t, 200, resp.StatusCode)
	var exported model.ExportResponse
	decode(resp, &exported)
	assert.Equal(0, exported.WriteFailures)
	assert.Equal(18, exported.Events)

	resp = request(http.MethodPost, "/import", model.PathRequest{Path: "scale-long.mid"})
	require.Equal(t, 200, resp.StatusCode)
	decode(resp, &summary)
	assert.Equal(uint64(5333336+666667), summary.DurationUs)

	var events []model.EventDTO
	decode(request(http.MethodGet, "/tracks/0/events", nil), &events)
	require.Len(t, events, 8)
	assert.Equal(uint32(960), events[7].NumTicks)
	assert.Equal("C5", events[7].NoteName)
}
