package cmd

import (
	"net/http"
	"time"

	"github.com/jsphweid/floppydaw/logger"
	"github.com/jsphweid/floppydaw/notify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const changeLogDelay = 250 * time.Millisecond

var initialSong string

func init() {
	serveCmd.Flags().StringVar(&initialSong, "song", "", "midi file to import on start, relative to the media dir")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves a song over HTTP",
	Long: `Serves one editable song over HTTP:

  GET    /song                     summary
  DELETE /song                     clear
  GET    /tracks/{no}/events       events of a track
  PUT    /tracks/{no}/events/{idx} select, move or resize an event
  PUT    /selection                select a track
  DELETE /selection                unselect the events of the selected track
  POST   /import, /export          {"path": "..."} relative to the media dir
  GET    /preview                  the export stream as json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := LoadServer()
		if err != nil {
			return err
		}
		return serve(srv)
	},
}

// LoadServer builds the server from the loaded config.
func LoadServer() (*Server, error) {
	log := logger.Get()

	var lookup MetadataLookup
	catalog, err := connectCatalog()
	if err != nil {
		return nil, err
	}
	if catalog != nil {
		lookup = catalog
	}

	srv := NewServer(newSong(), cfg.MediaDir, lookup, log)
	if initialSong != "" {
		path := srv.resolve(initialSong)
		if err := srv.song.ImportMidi0(path); err != nil {
			return nil, err
		}
		srv.path = path
	}
	return srv, nil
}

func serve(srv *Server) error {
	log := logger.Get()

	changes, cancel := srv.song.Subscribe()
	defer cancel()
	go notify.Debounced(changes, changeLogDelay, func(c notify.Change) {
		log.WithFields(logrus.Fields{
			"song":  c.SongID,
			"kind":  c.Kind,
			"track": c.Track,
			"event": c.Event,
		}).Info("Song changed")
	})

	log.WithField("addr", cfg.ListenAddr).Info("Listening")
	return http.ListenAndServe(cfg.ListenAddr, srv.Router())
}
