package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.API.Addr)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.JWTExpiresIn)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "@every 1h", cfg.Worker.JobSweepCron)
	assert.False(t, cfg.Storage.Enabled())
	assert.Positive(t, cfg.Worker.Concurrency)
	assert.Positive(t, cfg.Worker.MaxActiveTasks)
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-file\nFRONTEND_URL=https://clipit.example\n"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("FRONTEND_URL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://clipit.example", cfg.API.FrontendURL)
}

func TestLoadSectionIgnoresOtherGroups(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")

	db, err := LoadSection[DatabaseConfig]()
	require.NoError(t, err)
	assert.Equal(t, 7, db.MaxOpenConns)
	assert.Contains(t, db.DSN, "postgres://")
}
