package exhibition

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds configuration for exhibition.
type Config struct {
	PhotoDir string `env:"EXHIBITION_PHOTO_DIR"`
	StateDir string `env:"EXHIBITION_STATE_DIR" envDefault:".exhibition"`
	FrameDir string `env:"EXHIBITION_FRAME_DIR" envDefault:".exhibition/frame"`
	Addr     string `env:"EXHIBITION_ADDR"`

	Width   int    `env:"EXHIBITION_WIDTH" envDefault:"1920"`
	Height  int    `env:"EXHIBITION_HEIGHT" envDefault:"1080"`
	Quality int    `env:"EXHIBITION_QUALITY" envDefault:"85"`
	Dither  string `env:"EXHIBITION_DITHER"`

	KeepOriginal bool `env:"EXHIBITION_KEEP_ORIGINAL"`
	Watch        bool `env:"EXHIBITION_WATCH" envDefault:"true"`
	NoExif       bool `env:"EXHIBITION_NO_EXIF"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// PrefsPath is where preferences are stored.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.StateDir, "preferences.toml")
}

// IndexPath is where the photo index cache is stored.
func (c *Config) IndexPath() string {
	return filepath.Join(c.StateDir, "index.txt")
}
