// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/iliyamo/item-service/internal/config"
	"github.com/iliyamo/item-service/internal/database"
)

var seq atomic.Int64

// URL returns a sqlite URL naming a private in-memory database.
func URL(t testing.TB) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
}

// New opens a fresh in-memory database with the items table in place.
// The handle is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db := Open(t)
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

// Open is New without the schema.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Config{DatabaseURL: URL(t)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { Close(db) })
	return db
}

// Close closes the pool behind db.  Queries issued afterwards fail, which
// is how tests simulate an unreachable store.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
