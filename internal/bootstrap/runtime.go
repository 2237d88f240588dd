// Package bootstrap opens the store selected by configuration and prepares
// the process-wide dependencies the server and commands share.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ainews/internal/cache"
	"ainews/internal/config"
	"ainews/internal/database"
	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/repository/docstore"
	"ainews/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty memory store with generated data.
	SeedDemo bool
	// SkipRedis leaves the cache, revocation list and feed disabled.
	SkipRedis bool
}

// Runtime bundles the opened store and Redis client.
type Runtime struct {
	Stores *repository.Stores
	// DB is nil for the memory backend.
	DB    *gorm.DB
	Redis *redis.Client
}

// InitRuntime connects to the configured store and Redis and makes sure
// the bootstrap admin exists.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	stores, db, err := OpenStores(cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Stores: stores, DB: db}

	if !opts.SkipRedis {
		// May leave a nil client if Redis is unreachable.
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	if err := EnsureAdmin(ctx, cfg, stores); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if opts.SeedDemo && cfg.StoreBackend == config.BackendMemory {
		if _, err := seed.NewSeeder(stores, seed.Options{MaxComments: 5}).Run(ctx); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// OpenStores returns the repositories for cfg.StoreBackend. The *gorm.DB
// is nil for the memory backend.
func OpenStores(cfg *config.Config) (*repository.Stores, *gorm.DB, error) {
	if cfg.StoreBackend == config.BackendMemory {
		slog.Warn("using the in-memory document store; data is lost on restart")
		return docstore.NewStores(docstore.New()), nil, nil
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return repository.NewStores(db), db, nil
}

// Ping checks the database, when there is one.
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.DB == nil {
		return nil
	}
	return database.Ping(ctx, rt.DB)
}

// Close releases the database and Redis connections.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Close())
	}
	return errors.Join(errs...)
}

// EnsureAdmin creates or promotes the profile named by
// BOOTSTRAP_ADMIN_EMAIL. Nothing happens when the email is unset.
func EnsureAdmin(ctx context.Context, cfg *config.Config, stores *repository.Stores) error {
	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	if email == "" {
		return nil
	}

	existing, err := stores.Profiles.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return nil
		}
		if err := stores.Profiles.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		slog.InfoContext(ctx, "bootstrap admin promoted", "user_id", existing.ID)
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	if cfg.BootstrapAdminPassword == "" {
		return errors.New("BOOTSTRAP_ADMIN_PASSWORD must be set with BOOTSTRAP_ADMIN_EMAIL")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	username, _, _ := strings.Cut(email, "@")
	admin := &models.Profile{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Preferences:  models.DefaultPreferences(),
	}
	if err := stores.Profiles.Create(ctx, admin); err != nil {
		return err
	}
	slog.InfoContext(ctx, "bootstrap admin created", "user_id", admin.ID)
	return nil
}
