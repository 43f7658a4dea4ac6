package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "GRPC_PORT", "JWT_SECRET", "JWT_EXPIRY", "STORE_DRIVER",
		"DATA_DIR", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(k, "")
	}
	// keep godotenv away from any .env in the package dir
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "", cfg.GRPCPort)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "data", cfg.Store.DataDir)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "6000"
jwt_secret: from-file
jwt_expiry: 24h
store:
  driver: memory
log:
  level: debug
rate_limit:
  rps: 1
  burst: 2
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port, "env wins over file")
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.RateLimit.Burst)
}

func TestLoadEnvParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("JWT_EXPIRY", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_EXPIRY")

	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("RATE_LIMIT_BURST", "many")
	_, err = Load()
	assert.ErrorContains(t, err, "RATE_LIMIT_BURST")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.JWTSecret = "x"
	require.NoError(t, cfg.Validate())

	cfg.Store.Driver = DriverPostgres
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.Store.Driver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "unknown store driver")
}
