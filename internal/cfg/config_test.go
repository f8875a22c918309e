package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManagerConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadManagerConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Environment)
	assert.Equal(t, uint64(4096), cfg.PageSize)
	assert.Equal(t, uint64(1024), cfg.PageCount)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadManagerConfigReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "ENVIRONMENT=prod\nPAGE_SIZE=8192\nPAGE_COUNT=256\nDATA_DIR=/var/lib/bufpool\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := LoadManagerConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Environment)
	assert.Equal(t, uint64(8192), cfg.PageSize)
	assert.Equal(t, uint64(256), cfg.PageCount)
	assert.Equal(t, "/var/lib/bufpool", cfg.DataDir)
}

func TestLoadManagerConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "PAGE_SIZE=8192\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	t.Setenv("BUFPOOL_PAGE_SIZE", "2048")

	cfg, err := LoadManagerConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, uint64(2048), cfg.PageSize)
}

func TestLoadManagerConfigRejectsBadPageSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGE_SIZE=7\n"), 0o600))

	_, err := LoadManagerConfig(dir)
	assert.Error(t, err)
}

func TestLoadManagerConfigRejectsBadEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ENVIRONMENT=staging\n"), 0o600))

	_, err := LoadManagerConfig(dir)
	assert.Error(t, err)
}

func TestEnvironmentValidate(t *testing.T) {
	assert.NoError(t, EnvDev.Validate())
	assert.NoError(t, EnvProd.Validate())
	assert.Error(t, Environment("staging").Validate())
}
