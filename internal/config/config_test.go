package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shapes.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulation]
tick_rate = "50ms"
seed = 42
creation_speed = 5.5
reseed_on_load = true

[storage]
backend = "postgres"
slot = "slot-a"

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, float32(5.5), cfg.Simulation.CreationSpeed)
	assert.True(t, cfg.Simulation.ReseedOnLoad)
	assert.Equal(t, float32(1), cfg.Simulation.DestructionSpeed, "untouched keys keep their default")
	assert.Equal(t, int32(1), cfg.Simulation.StartLevel)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "slot-a", cfg.Storage.Slot)
	assert.Equal(t, "saves", cfg.Storage.SaveDir)
	assert.Equal(t, 10, cfg.Storage.KeepSnapshots)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "data/yaml/factories.yaml", cfg.Data.Factories)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "[storage]\nbackend = \"s3\"\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "storage.backend")
}

func TestLoadRejectsNonPositiveTickRate(t *testing.T) {
	path := writeConfig(t, "[simulation]\ntick_rate = \"0s\"\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "tick_rate")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "[simulation\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}
