package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_CreatesTables(t *testing.T) {
	database := NewTestDB(t)

	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM files`))
	assert.Equal(t, 0, n)
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 0, n)
}

func TestRunMigrations_UnknownDriver(t *testing.T) {
	database := NewTestDB(t)

	err := RunMigrations(database.DB, "mysql")
	assert.Error(t, err)
}

func TestAlive(t *testing.T) {
	database := NewTestDB(t)
	assert.True(t, Alive(context.Background(), database))

	require.NoError(t, database.Close())
	assert.False(t, Alive(context.Background(), database))
	assert.False(t, Alive(context.Background(), nil))
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect("sqlite"))
	assert.Equal(t, "postgres", getDialect("pgx"))
	assert.Equal(t, "other", getDialect("other"))
}
