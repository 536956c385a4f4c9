package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/jsphweid/floppydaw/midi"
	"github.com/jsphweid/floppydaw/model"
	"github.com/jsphweid/floppydaw/song"
	"github.com/jsphweid/floppydaw/util"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// MetadataLookup is the part of db.Catalog the server needs.
type MetadataLookup interface {
	GetMidiMetadata(filename string) (*model.MidiMetadata, error)
}

// Server exposes one song over HTTP. Handlers take the lock, the song
// itself is single writer.
type Server struct {
	mu       sync.Mutex
	song     *song.Song
	path     string
	mediaDir string
	catalog  MetadataLookup
	log      logrus.FieldLogger
}

func NewServer(s *song.Song, mediaDir string, catalog MetadataLookup, log logrus.FieldLogger) *Server {
	return &Server{song: s, mediaDir: mediaDir, catalog: catalog, log: log}
}

func (srv *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/song", srv.HandleGetSong).Methods("GET")
	router.HandleFunc("/song", srv.HandleClear).Methods("DELETE")
	router.HandleFunc("/tracks/{no}/events", srv.HandleGetEvents).Methods("GET")
	router.HandleFunc("/tracks/{no}/events/{idx}", srv.HandleUpdateEvent).Methods("PUT")
	router.HandleFunc("/selection", srv.HandleSelectTrack).Methods("PUT")
	router.HandleFunc("/selection", srv.HandleUnselectEvents).Methods("DELETE")
	router.HandleFunc("/import", srv.HandleImport).Methods("POST")
	router.HandleFunc("/export", srv.HandleExport).Methods("POST")
	router.HandleFunc("/preview", srv.HandlePreview).Methods("GET")

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
	}).Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "Could not unmarshal request body")
	}
	return nil
}

func intVar(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, errors.Errorf("%s must be a number", name)
	}
	return v, nil
}

// resolve keeps relative paths inside the media dir.
func (srv *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(srv.mediaDir, path)
}

// streamStatus maps stream failures to a response code.
func streamStatus(err error) int {
	switch midi.KindOf(err) {
	case midi.StreamOpenError:
		return http.StatusNotFound
	case midi.StreamReadError:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (srv *Server) summary() model.SongSummary {
	s := srv.song
	res := model.SongSummary{
		ID:                     s.ID(),
		Path:                   srv.path,
		Tpqn:                   s.Tpqn(),
		Tracks:                 make([]model.TrackSummary, 0, s.NumTracks()),
		MetaEvents:             s.MetaTrack().NumEvents(),
		CurrentSelectedTrackNo: s.CurrentSelectedTrackNo(),
		DurationUs:             s.DurationUs(),
	}
	res.Duration = util.FormatDuration(res.DurationUs)
	for i, track := range s.Tracks() {
		us, _ := s.TrackDurationUs(i)
		res.Tracks = append(res.Tracks, model.TrackSummary{
			Name:       track.Name(),
			Channel:    track.Channel(),
			NumEvents:  track.NumEvents(),
			NumTicks:   track.NumTicks(),
			DurationUs: us,
		})
	}

	if srv.catalog != nil && srv.path != "" {
		m, err := srv.catalog.GetMidiMetadata(filepath.Base(srv.path))
		if err != nil {
			srv.log.WithError(err).Warn("Metadata lookup failed")
		}
		res.Metadata = m
	}
	return res
}

func (srv *Server) HandleGetSong(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	writeJSON(w, http.StatusOK, srv.summary())
}

func (srv *Server) HandleClear(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.song.Clear()
	srv.path = ""
	writeJSON(w, http.StatusOK, srv.summary())
}

func (srv *Server) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	trackNo, err := intVar(r, "no")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	track, err := srv.song.Track(trackNo)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	res := make([]model.EventDTO, 0, track.NumEvents())
	for _, e := range track.Events() {
		res = append(res, model.NewEventDTO(e))
	}
	writeJSON(w, http.StatusOK, res)
}

func (srv *Server) HandleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	trackNo, err := intVar(r, "no")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	idx, err := intVar(r, "idx")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var input model.EventUpdateRequest
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	track, err := srv.song.Track(trackNo)
	if err == nil && (idx < 0 || idx >= track.NumEvents()) {
		err = errors.Errorf("event %d out of range", idx)
	}
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	err = srv.song.EditEvent(trackNo, idx, song.EventEdit{
		Selected:  input.Selected,
		StartTick: input.StartTick,
		NumTicks:  input.NumTicks,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewEventDTO(track.Events()[idx]))
}

func (srv *Server) HandleSelectTrack(w http.ResponseWriter, r *http.Request) {
	var input model.SelectionRequest
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if err := srv.song.SetCurrentSelectedTrackNo(input.Track); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, srv.summary())
}

func (srv *Server) HandleUnselectEvents(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.song.UnselectAllEvents()
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) HandleImport(w http.ResponseWriter, r *http.Request) {
	var input model.PathRequest
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path := srv.resolve(input.Path)

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if err := srv.song.ImportMidi0(path); err != nil {
		// a failed open leaves the previous song in place
		if midi.KindOf(err) != midi.StreamOpenError {
			srv.path = path
		}
		writeError(w, streamStatus(err), err)
		return
	}
	srv.path = path
	writeJSON(w, http.StatusOK, srv.summary())
}

func (srv *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	var input model.PathRequest
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path := srv.resolve(input.Path)

	srv.mu.Lock()
	defer srv.mu.Unlock()

	res, err := srv.song.ExportMidi0(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ExportResponse{
		Path:          path,
		Events:        res.Events,
		WriteFailures: res.WriteFailures,
	})
}

func (srv *Server) HandlePreview(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	buf := midi.NewBuffer(srv.song.Tpqn())
	res, err := srv.song.Export(buf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	events := buf.Events()
	preview := model.PreviewResponse{
		Tpqn:          buf.Tpqn(),
		Events:        make([]model.WireEventDTO, 0, len(events)),
		TrailingDelta: buf.TrailingDelta(),
		WriteFailures: res.WriteFailures,
	}
	for _, e := range events {
		preview.Events = append(preview.Events, wireEventDTO(e))
	}
	writeJSON(w, http.StatusOK, preview)
}

func wireEventDTO(e midi.Event) model.WireEventDTO {
	res := model.WireEventDTO{Delta: e.Delta, Type: e.Class.String()}
	if e.Class.IsChannel() {
		ch := e.Channel
		res.Channel = &ch
	}
	switch e.Class {
	case midi.ClassNoteOn, midi.ClassNoteOff:
		key, vel := e.Key, e.Velocity
		res.Key, res.Velocity = &key, &vel
	case midi.ClassProgramChange:
		program := e.Program
		res.Program = &program
	case midi.ClassPitchBend:
		bend := e.PitchBend
		res.PitchBend = &bend
	case midi.ClassSetTempo:
		res.TempoUs = e.MicrosecondsPerQuarterNote
	default:
		panic(fmt.Sprintf("unexpected %v event in export stream", e.Class))
	}
	return res
}
