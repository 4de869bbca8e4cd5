// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"devconnect/internal/database"
	"devconnect/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a fresh database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// NewRedis starts a miniredis server for t and returns a client connected to it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// CreateUser inserts a user with a placeholder hash and returns it.
func CreateUser(t *testing.T, db *gorm.DB, name, email string, role models.Role) *models.User {
	t.Helper()
	if role == "" {
		role = models.RoleMember
	}
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: "$2a$04$placeholderplaceholderplaceholderplaceholderplacehold",
		Avatar:   "//www.gravatar.com/avatar/test?d=mm&r=pg&s=200",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
