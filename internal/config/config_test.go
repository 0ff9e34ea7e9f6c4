package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Test.Duration)
	assert.Nil(t, cfg.Store.Backend)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[test]
duration = 30
sound = true

[sentences]
source = "words"
caps = 0.25

[ai]
timeout-seconds = 5

[store]
backend = "file"

[server]
addr = "127.0.0.1:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Test.Duration)
	assert.Equal(t, 30, *cfg.Test.Duration)
	assert.Nil(t, cfg.Test.Countdown)
	require.NotNil(t, cfg.Test.Sound)
	assert.True(t, *cfg.Test.Sound)
	require.NotNil(t, cfg.Sentences.Source)
	assert.Equal(t, "words", *cfg.Sentences.Source)
	require.NotNil(t, cfg.Sentences.CapsPct)
	assert.Equal(t, 0.25, *cfg.Sentences.CapsPct)
	require.NotNil(t, cfg.AI.TimeoutSeconds)
	assert.Equal(t, 5, *cfg.AI.TimeoutSeconds)
	require.NotNil(t, cfg.Store.Backend)
	assert.Equal(t, "file", *cfg.Store.Backend)
	require.NotNil(t, cfg.Server.Addr)
	assert.Equal(t, "127.0.0.1:9000", *cfg.Server.Addr)
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[test]\nduraton = 30\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.duraton")
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[test\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestTemplateDecodesWhenUncommented(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(Template(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
			if idx := strings.Index(line, "  #"); idx >= 0 {
				line = line[:idx]
			}
		}
		lines = append(lines, line)
	}
	var cfg FileConfig
	_, err := toml.Decode(strings.Join(lines, "\n"), &cfg)
	require.NoError(t, err)
	require.NotNil(t, cfg.Test.Duration)
	assert.Equal(t, DefaultDuration, *cfg.Test.Duration)
	require.NotNil(t, cfg.AI.APIKeyEnv)
	assert.Equal(t, DefaultAIKeyEnv, *cfg.AI.APIKeyEnv)
	require.NotNil(t, cfg.Server.Addr)
	assert.Equal(t, DefaultServerAddr, *cfg.Server.Addr)
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")

	assert.Equal(t, filepath.Join("/cfg", "speedtype", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "speedtype", "speedtype.db"), DefaultStorePath("sqlite"))
	assert.Equal(t, filepath.Join("/data", "speedtype", "result.json"), DefaultStorePath("file"))
	assert.Equal(t, filepath.Join("/state", "speedtype", "speedtype.log"), DefaultLogPath())
	assert.Equal(t, filepath.Join("/cfg", "speedtype", "wordlists", "de.txt"), DefaultWordListPath("de"))
}

func TestXDGFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/typist")
	assert.Equal(t, filepath.Join("/home/typist", ".local", "state"), XDGStateHome())
}
