// Package bootstrap wires the database and cache a process needs before it
// can serve or run maintenance commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"devconnect/internal/auth"
	"devconnect/internal/cache"
	"devconnect/internal/config"
	"devconnect/internal/database"
	"devconnect/internal/middleware"
	"devconnect/internal/models"
	"devconnect/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedFixture, when set, is a YAML fixture applied after the schema.
	SeedFixture string
}

// InitRuntime connects to DB (applying the DB_SCHEMA_MODE policy) and Redis,
// then bootstraps the development root admin.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; the client is nil when it cannot be reached.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedFixture != "" {
		fx, err := seed.LoadFixture(opts.SeedFixture)
		if err != nil {
			return nil, nil, err
		}
		res, err := seed.ApplyFixture(ctx, db, fx, auth.NewHasher(cfg.BcryptCost))
		if err != nil {
			return nil, nil, fmt.Errorf("apply fixture %s: %w", opts.SeedFixture, err)
		}
		middleware.Logger.Info("fixture applied",
			slog.String("path", opts.SeedFixture),
			slog.Int("users_created", res.UsersCreated),
			slog.Int("posts", res.Posts),
		)
	}

	return db, r, nil
}

// ensureDevRootAdmin makes sure a known admin account exists in development
// so the admin surface is reachable on a fresh database. The account is
// matched by email; an existing account is promoted and keeps its password.
func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	name := strings.TrimSpace(cfg.DevRootName)
	if name == "" {
		name = "DevConnect Root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@devconnect.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	var created bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := auth.NewHasher(cfg.BcryptCost).Hash(password)
			if err != nil {
				return fmt.Errorf("hash root password: %w", err)
			}
			root = models.User{
				Name:     name,
				Email:    email,
				Password: hashed,
				Avatar:   auth.GravatarURL(email),
				Role:     models.RoleAdmin,
			}
			created = true
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", root.ID).Update("role", models.RoleAdmin).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured",
		slog.String("email", email),
		slog.Bool("created", created),
	)
	return nil
}
