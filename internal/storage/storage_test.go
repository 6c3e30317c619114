package storage_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-portal/internal/storage"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID   uuid.UUID `bun:",pk,type:uuid"`
	Slug string    `bun:"slug,notnull"`
}

type widgetLabel struct {
	bun.BaseModel `bun:"table:widget_labels,alias:wl"`

	ID       uuid.UUID `bun:",pk,type:uuid"`
	WidgetID uuid.UUID `bun:"widget_id,notnull,type:uuid"`
	Language string    `bun:"language,notnull"`
}

func schema() []storage.Table {
	return []storage.Table{
		{
			Model:   (*widget)(nil),
			Indexes: []storage.Index{{Name: "widgets_slug_key", Columns: []string{"slug"}, Unique: true}},
		},
		{
			Model:       (*widgetLabel)(nil),
			ForeignKeys: []string{`("widget_id") REFERENCES "widgets" ("id") ON DELETE CASCADE`},
			Indexes: []storage.Index{
				{Name: "widget_labels_widget_language_key", Columns: []string{"widget_id", "language"}, Unique: true},
			},
		},
	}
}

func openMemory(t *testing.T) *bun.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Config{Driver: "oracle", DSN: "x"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMigrateIsIdempotentAndEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	if err := storage.Migrate(ctx, db, schema()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := storage.Migrate(ctx, db, schema()...); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	first := &widget{ID: uuid.New(), Slug: "rapport-annuel"}
	if _, err := db.NewInsert().Model(first).Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := db.NewInsert().Model(&widget{ID: uuid.New(), Slug: "rapport-annuel"}).Exec(ctx)
	if !storage.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation on slug, got %v", err)
	}

	label := &widgetLabel{ID: uuid.New(), WidgetID: first.ID, Language: "fr"}
	if _, err := db.NewInsert().Model(label).Exec(ctx); err != nil {
		t.Fatalf("insert label: %v", err)
	}
	_, err = db.NewInsert().Model(&widgetLabel{ID: uuid.New(), WidgetID: first.ID, Language: "fr"}).Exec(ctx)
	if !storage.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation on (widget_id, language), got %v", err)
	}
}

func TestIsNoRows(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	if err := storage.Migrate(ctx, db, schema()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	err := db.NewSelect().Model(new(widget)).Where("?TableAlias.slug = ?", "missing").Scan(ctx)
	if !storage.IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		unique    bool
		transient bool
	}{
		{"nil", nil, false, false},
		{"sentinel", fmt.Errorf("wrap: %w", storage.ErrUniqueViolation), true, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true, false},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false, true},
		{"pq unique", &pq.Error{Code: "23505"}, true, false},
		{"pq deadlock", &pq.Error{Code: "40P01"}, false, true},
		{"pq connection", &pq.Error{Code: "08006"}, false, true},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), false, true},
		{"no rows", sql.ErrNoRows, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := storage.IsUniqueViolation(tc.err); got != tc.unique {
				t.Fatalf("IsUniqueViolation = %v, want %v", got, tc.unique)
			}
			if got := storage.IsTransient(tc.err); got != tc.transient {
				t.Fatalf("IsTransient = %v, want %v", got, tc.transient)
			}
		})
	}
}

func TestRetryRepeatsTransientFailures(t *testing.T) {
	calls := 0
	err := storage.Retry(context.Background(), storage.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnPermanentErrors(t *testing.T) {
	permanent := errors.New("syntax error")
	calls := 0
	err := storage.Retry(context.Background(), storage.RetryPolicy{Attempts: 5, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected one call returning permanent error, got %d calls, %v", calls, err)
	}
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := storage.Retry(context.Background(), storage.RetryPolicy{Attempts: 2, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		return driver.ErrBadConn
	})
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected bad conn error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected initial call plus 2 retries, got %d", calls)
	}
}
