package migrations

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_create_users.sql", "00002_create_phones.sql"}, files)

	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "-- +goose Up"), name)
		assert.True(t, strings.Contains(string(body), "-- +goose Down"), name)
	}
}

func TestUsersSchemaEnforcesActiveEmailUniqueness(t *testing.T) {
	body, err := fs.ReadFile(FS, "00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "ON users (email) WHERE is_active")
}

func TestUpLeavesPoolOpen(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, "postgres://auth@127.0.0.1:1/auth?connect_timeout=1")
	require.NoError(t, err)
	defer pool.Close()

	require.Error(t, Up(ctx, pool))

	_, err = pool.Acquire(ctx)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "closed pool")
}
