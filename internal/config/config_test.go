package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timelock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
database: /var/lib/timelock/db
decimals: 9
keyring: false
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/timelock/db", cfg.Database)
	assert.Equal(t, DefaultKeystore, cfg.Keystore)
	assert.Equal(t, int32(9), cfg.Decimals)
	assert.False(t, cfg.UseKeyring)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "database: from-file\ndecimals: 9\n")
	t.Setenv("TIMELOCK_DB", "from-env")
	t.Setenv("TIMELOCK_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database)
	assert.Equal(t, int32(9), cfg.Decimals)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty database", func(c *Config) { c.Database = "" }},
		{"empty keystore", func(c *Config) { c.Keystore = "" }},
		{"negative decimals", func(c *Config) { c.Decimals = -1 }},
		{"too many decimals", func(c *Config) { c.Decimals = 19 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LogConfig{Level: "info", Format: "json"}.NewLogger(&buf)
	log.Debug("hidden")
	log.Info("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
