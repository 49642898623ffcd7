package router

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.SourcePenalty)
	assert.False(t, cfg.InvertGndToVcc)
	assert.NotNil(t, cfg.LCBs)
	assert.Equal(t, slog.Default(), cfg.Logger)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourcePenalty = -1
	assert.ErrorContains(t, cfg.Validate(), "SourcePenalty")

	cfg = DefaultConfig()
	cfg.MaxSearchNodes = -5
	assert.ErrorContains(t, cfg.Validate(), "MaxSearchNodes")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_penalty: 5\ncontinue_on_error: true\ninvert_gnd_to_vcc: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.SourcePenalty)
	assert.True(t, cfg.ContinueOnError)
	assert.True(t, cfg.InvertGndToVcc)
	assert.Equal(t, DefaultConfig().MaxSearchNodes, cfg.MaxSearchNodes, "unset keys keep defaults")

	require.NoError(t, os.WriteFile(path, []byte("source_penalty: -2\n"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
