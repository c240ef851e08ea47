package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadRuntimeConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadRuntimeConfig_ReadsRuntimeSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
runtime:
  partial_tree_rendering: true
  conflate_stale_renderings: true
`), 0o600))

	cfg, err := LoadRuntimeConfig(path)
	require.NoError(t, err)
	require.Equal(t, RuntimeConfig{
		PartialTreeRendering:    true,
		ConflateStaleRenderings: true,
	}, cfg)
}

func TestParseRuntimeConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseRuntimeConfig([]byte("runtime:\n  partial_tree: true\n"))
	require.Error(t, err)

	cfg, err := ParseRuntimeConfig([]byte("  \n"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
