package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the TOML server configuration. Every field has a default so
// the server runs with no config file at all.
type Config struct {
	Addr           string `toml:"addr"`
	DBPath         string `toml:"db_path"`
	TokenSecret    string `toml:"token_secret"`
	ImageBaseURL   string `toml:"image_base_url"`
	DebounceMS     int    `toml:"debounce_ms"`
	MaxImportBytes int    `toml:"max_import_bytes"`
}

func Default() *Config {
	return &Config{
		Addr:           ":8080",
		DBPath:         "cardtable.db",
		TokenSecret:    "change-me",
		DebounceMS:     2000,
		MaxImportBytes: 256 * 1024,
	}
}

// Load reads the config at path, filling unset fields with defaults. A
// missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
