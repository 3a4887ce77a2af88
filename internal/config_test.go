package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app_name: swandb-test
storage:
  workdir: /tmp/swandb
  pool_size: 32
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "swandb-test", cfg.AppName)
	require.Equal(t, "/tmp/swandb", cfg.Storage.Workdir)
	require.Equal(t, 32, cfg.Storage.PoolSize)
	require.True(t, cfg.Debug)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: mini\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "mini", cfg.AppName)
	require.Equal(t, "./data", cfg.Storage.Workdir)
	require.Equal(t, 128, cfg.Storage.PoolSize)
	require.False(t, cfg.Debug)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
