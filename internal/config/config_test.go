package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.BusyTimeout)
	assert.True(t, cfg.ForeignKeys)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridb.yaml")
	data := []byte("page_size: 50\nlog:\n  level: debug\n  format: json\n")
	assert.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched fields keep defaults.
	assert.Equal(t, 5*time.Second, cfg.BusyTimeout)
}

func TestLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridb.json")
	data := []byte(`{"page_size": 25, "export": {"dir": "/tmp/out"}}`)
	assert.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
}

func TestUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridb.toml")
	assert.NoError(t, os.WriteFile(path, []byte(""), 0644))
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRIDB_PAGE_SIZE", "10")
	t.Setenv("GRIDB_LOG_LEVEL", "warn")
	t.Setenv("GRIDB_BUSY_TIMEOUT", "2s")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.BusyTimeout)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}
