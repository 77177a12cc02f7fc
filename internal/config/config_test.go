package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, def(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pflist.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":"9000","catalogDir":"cat","logLevel":"debug","rpcTimeout":"5s"}`), 0o644))

	t.Setenv("PFLIST_PORT", "9100")
	t.Setenv("PFLIST_AUTO_MIGRATE", "yes")

	cfg, err := Load(path, []string{"-log-level", "warn", "-platform", "PG", "-db", "postgres://x"})
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port, "env beats json")
	assert.Equal(t, "cat", cfg.CatalogDir, "json beats defaults")
	assert.Equal(t, "warn", cfg.LogLevel, "flag beats json")
	assert.Equal(t, PlatformPG, cfg.Platform)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
}

func TestLoadConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ginMode":"debug"}`), 0o644))

	cfg, err := Load("pflist.json", []string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.GinMode)
}

func TestLoadErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err := Load(bad, nil)
	assert.Error(t, err)

	for _, args := range [][]string{
		{"-platform", "pg"},
		{"-platform", "http"},
		{"-platform", "ftp"},
		{"-rpc-timeout", "soon"},
		{"-log-format", "xml"},
		{"-no-such-flag"},
	} {
		_, err := Load("", args)
		assert.Error(t, err, "%v", args)
	}
}
