package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsUsable(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mcprt", cfg.Server.Name)
	assert.True(t, cfg.Transport.Stdio)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.RequestTimeout())
}

func TestLoadMissingPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcprt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  name: custom\ntimeouts:\n  request_timeout_ms: 5000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Server.Name)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.RequestTimeout())
	// Unset fields keep their defaults.
	assert.True(t, cfg.Transport.Stdio)
}
