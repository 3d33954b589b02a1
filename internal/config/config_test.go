package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smalldb/bufferpool/internal/bufferpool"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "pool:\n  file: data.page\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data.page", cfg.Pool.File)
	assert.Equal(t, DefaultNumFrames, cfg.Pool.NumFrames)
	assert.Equal(t, DefaultStrategy, cfg.Pool.Strategy)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeConfig(t, "pool:\n  file: data.page\n  num_frames: 64\n  strategy: fifo\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Pool.NumFrames)
	assert.Equal(t, "fifo", cfg.Pool.Strategy)

	strategy, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, bufferpool.StrategyFIFO, strategy)
}

func TestLoadRequiresFile(t *testing.T) {
	path := writeConfig(t, "pool:\n  num_frames: 8\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStrategyRejectsUnknown(t *testing.T) {
	path := writeConfig(t, "pool:\n  file: data.page\n  strategy: clock\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.Strategy()
	assert.ErrorIs(t, err, bufferpool.ErrConfigError)
}
