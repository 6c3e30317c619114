package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Index is a secondary index created after its table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table couples a bun model with the constraints bun cannot infer from tags.
type Table struct {
	Model       any
	ForeignKeys []string
	Indexes     []Index
}

// Migrate creates every table and index that does not exist yet, in order,
// inside one transaction.
func Migrate(ctx context.Context, db *bun.DB, tables ...Table) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, table := range tables {
			q := tx.NewCreateTable().Model(table.Model).IfNotExists()
			for _, fk := range table.ForeignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("storage: create table for %T: %w", table.Model, err)
			}

			for _, idx := range table.Indexes {
				iq := tx.NewCreateIndex().Model(table.Model).Index(idx.Name).Column(idx.Columns...).IfNotExists()
				if idx.Unique {
					iq = iq.Unique()
				}
				if _, err := iq.Exec(ctx); err != nil {
					return fmt.Errorf("storage: create index %s: %w", idx.Name, err)
				}
			}
		}
		return nil
	})
}
