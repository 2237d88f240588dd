package database

import (
	"context"
	"testing"

	"ainews/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{Env: "test", StoreBackend: config.BackendSQLite, SQLitePath: ":memory:"}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	for _, table := range []string{"profiles", "posts", "tags", "post_tags", "comments", "likes", "comment_likes", "views", "bookmarks"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	// counters are computed per query, never stored
	assert.False(t, db.Migrator().HasColumn("posts", "likes_count"))
	assert.True(t, db.Migrator().HasColumn("profiles", "pref_theme"))
	assert.True(t, db.Migrator().HasColumn("profiles", "social_github"))
}

func TestConnect_RejectsMemoryBackend(t *testing.T) {
	_, err := Connect(&config.Config{StoreBackend: config.BackendMemory})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", dsn)
}

func TestNow_IsUTCMicros(t *testing.T) {
	n := Now()
	assert.Equal(t, "UTC", n.Location().String())
	assert.Zero(t, n.Nanosecond()%1000)
}
