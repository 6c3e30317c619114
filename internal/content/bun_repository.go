package content

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-portal/internal/storage"
)

// BunRepository persists a kind with uptrace/bun. Writes run in a single
// transaction; reads go through go-repository-bun.
type BunRepository[P Record[T], T Translation] struct {
	db      *bun.DB
	kind    Kind[P, T]
	records repository.Repository[P]
	// alias is the parent table alias, needed where a subquery would
	// otherwise rebind ?TableAlias.
	alias string
}

var _ Repository[*Article, *ArticleTranslation] = (*BunRepository[*Article, *ArticleTranslation])(nil)

// NewBunRepository wires a repository for kind.
func NewBunRepository[P Record[T], T Translation](db *bun.DB, kind Kind[P, T]) *BunRepository[P, T] {
	return &BunRepository[P, T]{
		db:      db,
		kind:    kind,
		records: NewRecordRepository(db, kind),
		alias:   db.Table(reflect.TypeOf(kind.NewRecord()).Elem()).Alias,
	}
}

func (r *BunRepository[P, T]) Create(ctx context.Context, record P, translations []T) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("%s: insert: %w", r.kind.Name, err)
		}
		if len(translations) == 0 {
			return nil
		}
		for _, tr := range translations {
			tr.SetParentID(record.GetID())
			tr.SetSearchFolded(searchDocument(tr, r.kind.SearchColumns))
		}
		if _, err := tx.NewInsert().Model(&translations).Exec(ctx); err != nil {
			return fmt.Errorf("%s: insert translations: %w", r.kind.Name, err)
		}
		record.SetTranslations(translations)
		return nil
	})
}

func (r *BunRepository[P, T]) GetByID(ctx context.Context, id uuid.UUID) (P, error) {
	return r.first(ctx, id.String(), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	})
}

func (r *BunRepository[P, T]) GetBySlug(ctx context.Context, slug string) (P, error) {
	return r.first(ctx, slug, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.slug = ?", slug)
	})
}

func (r *BunRepository[P, T]) first(ctx context.Context, key string, where func(*bun.SelectQuery) *bun.SelectQuery) (P, error) {
	var zero P
	records, _, err := r.records.List(ctx,
		repository.SelectRawProcessor(withTranslations),
		repository.SelectRawProcessor(where),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return zero, r.mapError(err, key)
	}
	if len(records) == 0 {
		return zero, NotFound(r.kind.Name, key)
	}
	return records[0], nil
}

func (r *BunRepository[P, T]) SlugOwner(ctx context.Context, slug string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.db.NewSelect().
		Model(r.kind.NewRecord()).
		Column("id").
		Where("?TableAlias.slug = ?", slug).
		Limit(1).
		Scan(ctx, &id)
	if storage.IsNoRows(err) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%s: slug lookup: %w", r.kind.Name, err)
	}
	return id, true, nil
}

func (r *BunRepository[P, T]) List(ctx context.Context, opts ListOptions) ([]P, int, error) {
	if err := r.checkFilters(opts.Filters); err != nil {
		return nil, 0, err
	}
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(withTranslations),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return r.applyFilters(q, opts.Filters, opts.OnlyVisible)
		}),
		repository.SelectRawProcessor(r.applyOrder),
	}
	if opts.Limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(opts.Limit, opts.Offset))
	}

	records, total, err := r.records.List(ctx, criteria...)
	if err != nil {
		return nil, 0, r.mapError(err, "")
	}
	return records, total, nil
}

func (r *BunRepository[P, T]) Count(ctx context.Context, filters ...Filter) (int, error) {
	if err := r.checkFilters(filters); err != nil {
		return 0, err
	}
	q := r.db.NewSelect().Model(r.kind.NewRecord())
	total, err := r.applyFilters(q, filters, false).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", r.kind.Name, err)
	}
	return total, nil
}

func (r *BunRepository[P, T]) Search(ctx context.Context, locale, term string, limit int, onlyVisible bool) ([]P, error) {
	pattern := "%" + escapeLike(Fold(term)) + "%"
	matches := r.db.NewSelect().
		Model(r.kind.NewTranslation()).
		Column(r.kind.ParentColumn).
		Where("?TableAlias.language = ?", locale).
		Where(`?TableAlias.search_folded LIKE ? ESCAPE '\'`, pattern)

	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(withTranslations),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?.id IN (?)", bun.Ident(r.alias), matches)
			return r.applyFilters(q, nil, onlyVisible)
		}),
		repository.SelectRawProcessor(r.applyOrder),
	}
	if limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(limit, 0))
	}

	records, _, err := r.records.List(ctx, criteria...)
	if err != nil {
		return nil, r.mapError(err, term)
	}
	return records, nil
}

// Update writes the parent columns and reconciles translations by language:
// rows for dropped languages are deleted, shared languages are updated in
// place and new languages inserted. It all happens in one transaction.
func (r *BunRepository[P, T]) Update(ctx context.Context, record P, columns []string, translations []T) error {
	id := record.GetID()
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		cols := append(slices.Clone(columns), "updated_at")
		slices.Sort(cols)
		cols = slices.Compact(cols)

		result, err := tx.NewUpdate().Model(record).Column(cols...).WherePK().Exec(ctx)
		if err != nil {
			return fmt.Errorf("%s: update: %w", r.kind.Name, err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("%s: update rows affected: %w", r.kind.Name, err)
		} else if affected == 0 {
			return NotFound(r.kind.Name, id.String())
		}

		var existing []T
		if err := tx.NewSelect().
			Model(&existing).
			Where("?TableAlias.? = ?", bun.Ident(r.kind.ParentColumn), id).
			Scan(ctx); err != nil && !storage.IsNoRows(err) {
			return fmt.Errorf("%s: load translations: %w", r.kind.Name, err)
		}
		current := make(map[string]T, len(existing))
		for _, tr := range existing {
			current[tr.GetLanguage()] = tr
		}

		languages := make([]string, 0, len(translations))
		for _, tr := range translations {
			languages = append(languages, tr.GetLanguage())
		}
		if _, err := tx.NewDelete().
			Model(r.kind.NewTranslation()).
			Where("?TableAlias.? = ?", bun.Ident(r.kind.ParentColumn), id).
			Where("?TableAlias.language NOT IN (?)", bun.In(languages)).
			Exec(ctx); err != nil {
			return fmt.Errorf("%s: delete stale translations: %w", r.kind.Name, err)
		}

		for _, tr := range translations {
			tr.SetParentID(id)
			tr.SetSearchFolded(searchDocument(tr, r.kind.SearchColumns))
			if prev, ok := current[tr.GetLanguage()]; ok {
				tr.SetID(prev.GetID())
				tr.SetCreatedAt(prev.GetCreatedAt())
				if _, err := tx.NewUpdate().
					Model(tr).
					ExcludeColumn("id", "language", "created_at", r.kind.ParentColumn).
					WherePK().
					Exec(ctx); err != nil {
					return fmt.Errorf("%s: update translation %s: %w", r.kind.Name, tr.GetLanguage(), err)
				}
				continue
			}
			if _, err := tx.NewInsert().Model(tr).Exec(ctx); err != nil {
				return fmt.Errorf("%s: insert translation %s: %w", r.kind.Name, tr.GetLanguage(), err)
			}
		}

		record.SetTranslations(translations)
		return nil
	})
}

func (r *BunRepository[P, T]) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model(r.kind.NewTranslation()).
			Where("?TableAlias.? = ?", bun.Ident(r.kind.ParentColumn), id).
			Exec(ctx); err != nil {
			return fmt.Errorf("%s: delete translations: %w", r.kind.Name, err)
		}

		result, err := tx.NewDelete().
			Model(r.kind.NewRecord()).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("%s: delete: %w", r.kind.Name, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: delete rows affected: %w", r.kind.Name, err)
		}
		if affected == 0 {
			return NotFound(r.kind.Name, id.String())
		}
		return nil
	})
}

func (r *BunRepository[P, T]) checkFilters(filters []Filter) error {
	probe := r.kind.NewRecord()
	for _, f := range filters {
		if _, ok := probe.FieldValue(f.Column); !ok {
			return Invalid(r.kind.Name, fmt.Sprintf("cannot filter on %q", f.Column))
		}
	}
	return nil
}

func (r *BunRepository[P, T]) applyFilters(q *bun.SelectQuery, filters []Filter, onlyVisible bool) *bun.SelectQuery {
	for _, f := range filters {
		if f.Value == nil {
			q = q.Where("?TableAlias.? IS NULL", bun.Ident(f.Column))
			continue
		}
		q = q.Where("?TableAlias.? = ?", bun.Ident(f.Column), f.Value)
	}
	if onlyVisible && r.kind.VisibleColumn != "" {
		q = q.Where("?TableAlias.? = ?", bun.Ident(r.kind.VisibleColumn), true)
	}
	return q
}

func (r *BunRepository[P, T]) applyOrder(q *bun.SelectQuery) *bun.SelectQuery {
	for _, expr := range r.kind.OrderBy {
		q = q.OrderExpr(expr)
	}
	return q.OrderExpr("?TableAlias.id ASC")
}

func (r *BunRepository[P, T]) mapError(err error, key string) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return NotFound(r.kind.Name, key)
	}
	return fmt.Errorf("%s: query: %w", r.kind.Name, err)
}

func withTranslations(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("Translations")
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
