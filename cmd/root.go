package cmd

import (
	"github.com/jsphweid/floppydaw/config"
	"github.com/jsphweid/floppydaw/db"
	"github.com/jsphweid/floppydaw/logger"
	"github.com/jsphweid/floppydaw/song"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	cfg        = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "floppydaw",
	Short: "Floppy DAW song tools",
	Long:  `Imports, inspects, converts and serves type 0 midi songs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		return logger.Init(cfg.LogLevel)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "yaml config file (defaults to $FLOPPY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warning or error")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func newSong() *song.Song {
	return song.New(append(cfg.SongOptions(), song.WithLogger(logger.Get()))...)
}

// connectCatalog returns nil when no metadata table is configured.
func connectCatalog() (*db.Catalog, error) {
	if !cfg.Metadata.Enabled() {
		return nil, nil
	}
	return db.Connect(cfg.Metadata.Options())
}
