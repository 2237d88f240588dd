package bootstrap

import (
	"context"
	"testing"

	"ainews/internal/config"
	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/repository/docstore"
	"ainews/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureAdmin_Creates(t *testing.T) {
	stores := docstore.NewStores(docstore.New())
	ctx := context.Background()
	cfg := &config.Config{BootstrapAdminEmail: " Root@AINews.dev ", BootstrapAdminPassword: "Root-Password-1"}

	require.NoError(t, EnsureAdmin(ctx, cfg, stores))
	require.NoError(t, EnsureAdmin(ctx, cfg, stores), "second run is a no-op")

	admin, err := stores.Profiles.GetByEmail(ctx, "root@ainews.dev")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "root", admin.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("Root-Password-1")))

	all, err := stores.Profiles.ListByRole(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	stores := docstore.NewStores(docstore.New())
	ctx := context.Background()
	p := repotest.MustProfile(t, stores, "grace", models.RoleStudent)

	require.NoError(t, EnsureAdmin(ctx, &config.Config{BootstrapAdminEmail: p.Email}, stores))

	got, err := stores.Profiles.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestEnsureAdmin_RequiresPasswordForNewAccount(t *testing.T) {
	stores := docstore.NewStores(docstore.New())
	err := EnsureAdmin(context.Background(), &config.Config{BootstrapAdminEmail: "new@ainews.dev"}, stores)
	assert.Error(t, err)
}

func TestEnsureAdmin_Unset(t *testing.T) {
	assert.NoError(t, EnsureAdmin(context.Background(), &config.Config{}, nil))
}

func TestInitRuntime_Memory(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendMemory}
	rt, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true, SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.DB)
	assert.Nil(t, rt.Redis)
	assert.NoError(t, rt.Ping(context.Background()))

	page, err := rt.Stores.Posts.List(context.Background(), repository.PostFilter{Limit: 100}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, page.Posts)
}

func TestInitRuntime_SQLite(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendSQLite, SQLitePath: ":memory:"}
	rt, err := InitRuntime(context.Background(), cfg, Options{SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	require.NotNil(t, rt.DB)
	assert.NoError(t, rt.Ping(context.Background()))
	repotest.MustProfile(t, rt.Stores, "ada", models.RoleTeacher)
}
