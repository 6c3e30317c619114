package content

import (
	"time"

	"github.com/google/uuid"
)

// Translation is one localized row owned by a parent record.
type Translation interface {
	GetID() uuid.UUID
	SetID(uuid.UUID)
	GetParentID() uuid.UUID
	SetParentID(uuid.UUID)
	GetLanguage() string
	SetLanguage(string)
	GetCreatedAt() time.Time
	SetCreatedAt(time.Time)
	GetUpdatedAt() time.Time
	SetUpdatedAt(time.Time)
	// Label is the human title used to derive slugs.
	Label() string
	// LocalizedField returns the value of a searchable column.
	LocalizedField(column string) string
	GetSearchFolded() string
	SetSearchFolded(string)
	Validate() error
}

// Record is a translatable parent entity.
type Record[T Translation] interface {
	GetID() uuid.UUID
	SetID(uuid.UUID)
	GetSlug() string
	SetSlug(string)
	GetCreatedAt() time.Time
	SetCreatedAt(time.Time)
	GetUpdatedAt() time.Time
	SetUpdatedAt(time.Time)
	GetTranslations() []T
	SetTranslations([]T)
	// Visible reports whether the record may be served on public reads.
	Visible() bool
	// FieldValue returns the value of a filterable column.
	FieldValue(column string) (any, bool)
	Validate() error
}

// Patch applies optional field changes to a record and returns the columns
// it touched.
type Patch[P any] interface {
	Apply(record P) []string
}

// Kind describes one translatable entity type.
type Kind[P Record[T], T Translation] struct {
	Name           string
	ParentColumn   string
	NewRecord      func() P
	NewTranslation func() T
	Clone          func(P) P
	SearchColumns  []string
	OrderBy        []string
	Less           func(a, b P) bool
	// VisibleColumn is empty for kinds that are always public.
	VisibleColumn string
	SearchLimit   int
	// Prepare runs before every write and returns extra columns it set.
	Prepare func(record P, now time.Time) []string
}

// Timestamps is embedded by every model.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

func (t *Timestamps) GetCreatedAt() time.Time  { return t.CreatedAt }
func (t *Timestamps) SetCreatedAt(v time.Time) { t.CreatedAt = v }
func (t *Timestamps) GetUpdatedAt() time.Time  { return t.UpdatedAt }
func (t *Timestamps) SetUpdatedAt(v time.Time) { t.UpdatedAt = v }

// Filter is an equality condition on a record column.
type Filter struct {
	Column string
	Value  any
}

// ListOptions narrows and pages a listing.
type ListOptions struct {
	Filters     []Filter
	Limit       int
	Offset      int
	OnlyVisible bool
}

func cloneRows[E any](in []*E) []*E {
	if in == nil {
		return nil
	}
	out := make([]*E, 0, len(in))
	for _, row := range in {
		if row == nil {
			continue
		}
		copied := *row
		out = append(out, &copied)
	}
	return out
}
