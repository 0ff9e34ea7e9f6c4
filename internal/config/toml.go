// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Every field is a pointer so an
// absent key can be told apart from a zero value.
type FileConfig struct {
	Test      TestConfig      `toml:"test"`
	Sentences SentencesConfig `toml:"sentences"`
	AI        AIConfig        `toml:"ai"`
	Recommend RecommendConfig `toml:"recommend"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
}

// TestConfig maps session settings.
type TestConfig struct {
	Countdown *int    `toml:"countdown"`
	Duration  *int    `toml:"duration"`
	Theme     *string `toml:"theme"`
	Sound     *bool   `toml:"sound"`
}

// SentencesConfig maps sentence source settings.
type SentencesConfig struct {
	Source   *string  `toml:"source"`
	File     *string  `toml:"file"`
	Lang     *string  `toml:"lang"`
	Words    *int     `toml:"words"`
	CapsPct  *float64 `toml:"caps"`
	PunctPct *float64 `toml:"punct"`
	WordList *string  `toml:"wordlist"`
	Fallback *string  `toml:"fallback"`
}

// AIConfig maps model client settings.
type AIConfig struct {
	Model          *string `toml:"model"`
	Endpoint       *string `toml:"endpoint"`
	APIKeyEnv      *string `toml:"api-key-env"`
	TimeoutSeconds *int    `toml:"timeout-seconds"`
}

// RecommendConfig maps recommendation settings.
type RecommendConfig struct {
	Source *string `toml:"source"`
}

// StoreConfig maps result slot settings.
type StoreConfig struct {
	Backend *string `toml:"backend"`
	Path    *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
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
