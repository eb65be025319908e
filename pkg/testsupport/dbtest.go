package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-pagebuilder/internal/adapters/storage"
)

var memoryDBCounter atomic.Int64

// NewSQLiteMemoryDB opens a private shared-cache in-memory database. Each
// call gets its own name so tests never see each other's rows.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	name = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, memoryDBCounter.Add(1))
	return sql.Open("sqlite3", dsn)
}

// NewBunDB returns a bun handle over a fresh in-memory database with the
// full schema applied. The handle is pinned to one connection and closed
// when the test ends.
func NewBunDB(t testing.TB) *bun.DB {
	t.Helper()
	sqlDB, err := NewSQLiteMemoryDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}
