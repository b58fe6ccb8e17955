// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Sweep  SweepConfig  `toml:"sweep"`
	Output OutputConfig `toml:"output"`
}

// SweepConfig maps the starting device and held-constant values.
type SweepConfig struct {
	Device      *string  `toml:"device"`
	VCE         *float64 `toml:"vce"`
	IB          *float64 `toml:"ib"`
	VCETransfer *float64 `toml:"vce-transfer"`
}

// OutputConfig maps plotting, export and history settings.
type OutputConfig struct {
	PlotHeight *int    `toml:"plot-height"`
	ExportDir  *string `toml:"export-dir"`
	History    *bool   `toml:"history"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
