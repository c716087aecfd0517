package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bearerauth/bearerauth/internal/credentials"
)

var managedVars = []string{
	"APP_NAME", "APP_ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL",
	"JWT_SECRET", "TOKEN_TTL", "PASSWORD_POLICY", "BCRYPT_COST", "STRICT_SESSION",
	"LOGIN_RATE_LIMIT", "RUN_MIGRATIONS", idemTTLSecondsEnvVar, idemTTLDurEnvVar,
	shutdownSecondsEnvVar, shutdownDurationEnvVar,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedVars {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, defaultAppName, cfg.AppName)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.TokenTTL)
	assert.Equal(t, credentials.PolicyStandard, cfg.PasswordPolicy)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.False(t, cfg.StrictSession)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, defaultLoginRateLimit, cfg.LoginRateLimit)
	assert.Equal(t, defaultShutdownDelay, cfg.ShutdownPeriod)
	assert.Equal(t, defaultIdempotencyTTL, cfg.IdempotencyTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DATABASE_URL", "postgres://localhost/auth")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("PASSWORD_POLICY", "strict")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("STRICT_SESSION", "true")
	t.Setenv("LOGIN_RATE_LIMIT", "20")
	t.Setenv("RUN_MIGRATIONS", "1")
	t.Setenv(shutdownSecondsEnvVar, "3")
	t.Setenv(shutdownDurationEnvVar, "1m")
	t.Setenv(idemTTLDurEnvVar, "2h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.IsDev())
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, credentials.PolicyStrict, cfg.PasswordPolicy)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.StrictSession)
	assert.Equal(t, 20, cfg.LoginRateLimit)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
}

func TestFromEnvErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":     {},
		"bad policy":         {"JWT_SECRET": "s", "PASSWORD_POLICY": "lenient"},
		"bad ttl":            {"JWT_SECRET": "s", "TOKEN_TTL": "soon"},
		"negative ttl":       {"JWT_SECRET": "s", "TOKEN_TTL": "-1m"},
		"bad cost":           {"JWT_SECRET": "s", "BCRYPT_COST": "99"},
		"bad bool":           {"JWT_SECRET": "s", "STRICT_SESSION": "maybe"},
		"bad shutdown":       {"JWT_SECRET": "s", shutdownSecondsEnvVar: "ten"},
		"prod without db":    {"JWT_SECRET": "s", "APP_ENV": "production", "REDIS_URL": "redis://x"},
		"prod without redis": {"JWT_SECRET": "s", "APP_ENV": "production", "DATABASE_URL": "postgres://x"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	for _, k := range managedVars {
		require.NoError(t, os.Unsetenv(k))
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\nAPP_NAME=dotenv-app\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("JWT_SECRET")
		_ = os.Unsetenv("APP_NAME")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.JWTSecret)
	assert.Equal(t, "dotenv-app", cfg.AppName)
}
