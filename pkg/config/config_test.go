package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
output:
  format: hex
  color: false
logging:
  level: debug
  format: json
generate:
  parts: 6
  threshold: 4
  bits: 128
  bases: [2, 36]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hex", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output, "unset keys keep their defaults")
	assert.Equal(t, 6, cfg.Generate.Parts)
	assert.Equal(t, 4, cfg.Generate.Threshold)
	assert.Equal(t, 128, cfg.Generate.Bits)
	assert.Equal(t, []int{2, 36}, cfg.Generate.Bases)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("POLYRECOVER_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromXDG(t *testing.T) {
	xdg := t.TempDir()
	dir := filepath.Join(xdg, "polyrecover")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output:\n  format: json\n"), 0600))

	t.Setenv("POLYRECOVER_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")
	t.Setenv("POLYRECOVER_LOGGING_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, "output:\n  format: roman\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("output.format", "hex")

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "hex", cfg.Output.Format)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "Defaults", mutate: func(c *Config) {}},
		{name: "Unknown output format", mutate: func(c *Config) { c.Output.Format = "octal" }, wantError: true},
		{name: "Unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantError: true},
		{name: "Threshold zero", mutate: func(c *Config) { c.Generate.Threshold = 0 }, wantError: true},
		{name: "Threshold above parts", mutate: func(c *Config) { c.Generate.Threshold = 9 }, wantError: true},
		{name: "No bits", mutate: func(c *Config) { c.Generate.Bits = 0 }, wantError: true},
		{name: "No bases", mutate: func(c *Config) { c.Generate.Bases = nil }, wantError: true},
		{name: "Base out of range", mutate: func(c *Config) { c.Generate.Bases = []int{10, 37} }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
