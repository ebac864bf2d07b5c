// Package dbtest opens throwaway in-memory databases for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"grandpa/internal/database"
)

var seq atomic.Int64

// New returns a migrated in-memory sqlite database private to the test.
// A single connection serializes access so concurrent handlers in a test
// never see "database is locked".
func New(t testing.TB) *database.Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, seq.Add(1))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := &database.Database{DB: gdb}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, db *database.Database, username string) *database.User {
	t.Helper()

	u := &database.User{Username: username, PasswordHash: []byte("x")}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}

// Follow inserts a follow edge from follower to followee.
func Follow(t testing.TB, db *database.Database, follower, followee uint) {
	t.Helper()

	if err := db.Omit("Follower", "Followee").Create(&database.Follow{FollowerID: follower, FolloweeID: followee}).Error; err != nil {
		t.Fatalf("follow %d -> %d: %v", follower, followee, err)
	}
}
