// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Paths  PathsConfig  `toml:"paths"`
	Table  TableConfig  `toml:"table"`
	Voice  VoiceConfig  `toml:"voice"`
	Player PlayerConfig `toml:"player"`
	Review ReviewConfig `toml:"review"`
}

// PathsConfig maps working directories.
type PathsConfig struct {
	InputDir  *string `toml:"input-dir"`
	OutputDir *string `toml:"output-dir"`
	AudioDir  *string `toml:"audio-dir"`
	LogDir    *string `toml:"log-dir"`
}

// TableConfig maps dataset file layout settings.
type TableConfig struct {
	ContentColumn   *string `toml:"content-column"`
	IngestDelimiter *string `toml:"ingest-delimiter"`
	Encoding        *string `toml:"encoding"`
}

// VoiceConfig maps speech synthesis settings.
type VoiceConfig struct {
	Model    *string  `toml:"model"`
	Voice    *string  `toml:"voice"`
	Language *string  `toml:"language"`
	Format   *string  `toml:"format"`
	Speed    *float64 `toml:"speed"`
}

// PlayerConfig maps the external audio player.
type PlayerConfig struct {
	Command *string `toml:"command"`
	Args    *string `toml:"args"`
}

// ReviewConfig maps review session settings.
type ReviewConfig struct {
	WrongThreshold *int `toml:"wrong-threshold"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
