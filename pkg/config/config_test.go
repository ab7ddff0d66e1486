package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, config.DefaultConfig().Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("LEGION_MIN_SAMPLES", "9")
	path := filepath.Join(t.TempDir(), "legion-fuzz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  min_samples: ${LEGION_MIN_SAMPLES}\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Search.MinSamples)
}

func TestValidateRejectsInvertedSampleBounds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.MaxSamples = cfg.Search.MinSamples - 1
	assert.Error(t, cfg.Validate())
}
