package testsupport

import (
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var dbSeq atomic.Int64

// NewSQLiteMemoryDB opens a private shared-cache in-memory database. Each
// call gets its own database even when name repeats.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, dbSeq.Add(1))
	return sql.Open("sqlite3", dsn)
}

// NewBunSQLite returns a single-connection bun handle over a fresh in-memory
// database, closed when the test ends.
func NewBunSQLite(tb testing.TB) *bun.DB {
	tb.Helper()
	sqlDB, err := NewSQLiteMemoryDB(tb.Name())
	if err != nil {
		tb.Fatalf("new sqlite db: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
