package config

import (
	"os"

	"github.com/jsphweid/floppydaw/constants"
	"github.com/jsphweid/floppydaw/db"
	"github.com/jsphweid/floppydaw/song"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Metadata struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Table    string `yaml:"table"`
}

// Enabled reports whether a metadata catalog is configured.
func (m Metadata) Enabled() bool {
	return m.Table != ""
}

func (m Metadata) Options() db.Options {
	return db.Options{Endpoint: m.Endpoint, Region: m.Region, Table: m.Table}
}

type Config struct {
	Tpqn            uint16   `yaml:"tpqn"`
	Velocity        uint8    `yaml:"velocity"`
	EndOfTrackDelta uint32   `yaml:"end_of_track_delta"`
	LogLevel        string   `yaml:"log_level"`
	ListenAddr      string   `yaml:"listen_addr"`
	MediaDir        string   `yaml:"media_dir"`
	Metadata        Metadata `yaml:"metadata"`
}

func Default() Config {
	return Config{
		Tpqn:            constants.DefaultTpqn,
		Velocity:        constants.DefaultVelocity,
		EndOfTrackDelta: constants.EndOfTrackDelta,
		LogLevel:        "info",
		ListenAddr:      constants.GetListenAddr(),
		MediaDir:        constants.GetMediaDir(),
		Metadata: Metadata{
			Endpoint: "http://localhost:8000",
			Region:   "localhost",
		},
	}
}

// Load starts from the defaults and applies the yaml file at path, if any,
// then the environment. An empty path falls back to FLOPPY_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = constants.GetConfigPath()
	}
	if path != "" {
		dat, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "Error reading config file")
		}
		if err := yaml.UnmarshalStrict(dat, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "Error parsing config file %s", path)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FLOPPY_MEDIA_PATH"); v != "" {
		c.MediaDir = v
	}
	if v := os.Getenv("FLOPPY_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("FLOPPY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FLOPPY_METADATA_TABLE"); v != "" {
		c.Metadata.Table = v
	}
}

func (c Config) Validate() error {
	if c.Tpqn == 0 {
		return errors.New("tpqn must be positive")
	}
	if c.Velocity > constants.MaxDataByte {
		return errors.Errorf("velocity %d out of range", c.Velocity)
	}
	return nil
}

func (c Config) SongOptions() []song.Option {
	return []song.Option{
		song.WithDefaultTpqn(c.Tpqn),
		song.WithVelocity(c.Velocity),
		song.WithEndOfTrackDelta(c.EndOfTrackDelta),
	}
}
