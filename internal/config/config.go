package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tamaureus/tamaureus/internal/audio"
)

const appName = "tamaureus"

type Config struct {
	Playback PlaybackConfig `koanf:"playback"`
	Library  LibraryConfig  `koanf:"library"`
	Log      LogConfig      `koanf:"log"`
	Desktop  DesktopConfig  `koanf:"desktop"`
}

// PlaybackConfig holds engine and output device settings.
type PlaybackConfig struct {
	TickInterval time.Duration `koanf:"tick_interval"` // position broadcast period (default: 50ms)
	Volume       *float64      `koanf:"volume"`        // initial volume 0.0-1.0 (default: 1.0)
	Preload      bool          `koanf:"preload"`       // decode whole file into memory on play
	SampleRate   int           `koanf:"sample_rate"`   // device sample rate (default: 44100)
	Buffer       time.Duration `koanf:"buffer"`        // device buffer length (default: 100ms)
}

// LibraryConfig holds catalog and import settings.
type LibraryConfig struct {
	MusicDir string `koanf:"music_dir"` // import destination; empty leaves files in place
	Database string `koanf:"database"`  // catalog path (default: XDG data dir)
}

// DesktopConfig holds session integration settings.
type DesktopConfig struct {
	MPRIS         bool `koanf:"mpris"`         // expose the player on D-Bus (default: true)
	Notifications bool `koanf:"notifications"` // notify on track change and errors (default: false)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // logrus level name (default: "info")
	Format string `koanf:"format"` // "text" or "json" (default: "text")
	File   string `koanf:"file"`   // log file path (default: XDG state dir)
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom merges the TOML files that exist among paths, later files
// overriding earlier ones, on top of the defaults.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Playback: PlaybackConfig{
			TickInterval: 50 * time.Millisecond,
			SampleRate:   44100,
			Buffer:       100 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Desktop: DesktopConfig{MPRIS: true},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Library.MusicDir = expandPath(cfg.Library.MusicDir)
	cfg.Library.Database = expandPath(cfg.Library.Database)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if cfg.Playback.TickInterval <= 0 {
		cfg.Playback.TickInterval = 50 * time.Millisecond
	}
	if cfg.Playback.SampleRate <= 0 {
		cfg.Playback.SampleRate = 44100
	}
	if cfg.Playback.Buffer <= 0 {
		cfg.Playback.Buffer = 100 * time.Millisecond
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/tamaureus/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// VolumeLevel returns the initial volume clamped to [0, 1].
func (c *Config) VolumeLevel() float64 {
	if c.Playback.Volume == nil {
		return 1
	}
	return audio.ClampLevel(*c.Playback.Volume)
}

// DatabasePath returns the catalog path, creating the XDG data directory
// when the default is used.
func (c *Config) DatabasePath() (string, error) {
	if c.Library.Database != "" {
		return c.Library.Database, nil
	}
	return xdg.DataFile(filepath.Join(appName, appName+".db"))
}

// LogPath returns the log file path, creating the XDG state directory when
// the default is used.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return xdg.StateFile(filepath.Join(appName, appName+".log"))
}
