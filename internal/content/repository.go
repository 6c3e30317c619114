package content

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the storage port for one translatable kind. Implementations
// return NotFound for missing records and wrap driver errors with %w so
// storage.IsUniqueViolation and storage.IsTransient keep working.
type Repository[P Record[T], T Translation] interface {
	Create(ctx context.Context, record P, translations []T) error
	GetByID(ctx context.Context, id uuid.UUID) (P, error)
	GetBySlug(ctx context.Context, slug string) (P, error)
	// SlugOwner returns the id holding slug, if any.
	SlugOwner(ctx context.Context, slug string) (uuid.UUID, bool, error)
	List(ctx context.Context, opts ListOptions) ([]P, int, error)
	Count(ctx context.Context, filters ...Filter) (int, error)
	// Search matches term against the kind's search columns of translations
	// in locale only.
	Search(ctx context.Context, locale, term string, limit int, onlyVisible bool) ([]P, error)
	// Update writes columns plus updated_at and replaces the translation set.
	Update(ctx context.Context, record P, columns []string, translations []T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewRecordRepository builds the go-repository-bun handle used for reads.
func NewRecordRepository[P Record[T], T Translation](db *bun.DB, kind Kind[P, T]) repository.Repository[P] {
	return repository.MustNewRepository(db, repository.ModelHandlers[P]{
		NewRecord: kind.NewRecord,
		GetID: func(record P) uuid.UUID {
			return record.GetID()
		},
		SetID: func(record P, id uuid.UUID) {
			record.SetID(id)
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(record P) string {
			return record.GetSlug()
		},
	})
}
