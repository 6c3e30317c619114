package content

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Category groups articles.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID   uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug string    `bun:"slug,notnull" json:"slug"`
	Timestamps

	Translations []*CategoryTranslation `bun:"rel:has-many,join:id=category_id" json:"translations,omitempty"`
}

type CategoryTranslation struct {
	bun.BaseModel `bun:"table:category_translations,alias:ct"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CategoryID  uuid.UUID `bun:"category_id,notnull,type:uuid" json:"category_id"`
	Language    string    `bun:"language,notnull" json:"language"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	Timestamps
	SearchIndex
}

func (c *Category) GetID() uuid.UUID                         { return c.ID }
func (c *Category) SetID(id uuid.UUID)                       { c.ID = id }
func (c *Category) GetSlug() string                          { return c.Slug }
func (c *Category) SetSlug(slug string)                      { c.Slug = slug }
func (c *Category) GetTranslations() []*CategoryTranslation  { return c.Translations }
func (c *Category) SetTranslations(t []*CategoryTranslation) { c.Translations = t }
func (c *Category) Visible() bool                            { return true }
func (c *Category) Validate() error                          { return nil }

func (c *Category) FieldValue(column string) (any, bool) {
	if column == "slug" {
		return c.Slug, true
	}
	return nil, false
}

func (c *Category) clone() *Category {
	copied := *c
	copied.Translations = cloneRows(c.Translations)
	return &copied
}

func (t *CategoryTranslation) GetID() uuid.UUID         { return t.ID }
func (t *CategoryTranslation) SetID(id uuid.UUID)       { t.ID = id }
func (t *CategoryTranslation) GetParentID() uuid.UUID   { return t.CategoryID }
func (t *CategoryTranslation) SetParentID(id uuid.UUID) { t.CategoryID = id }
func (t *CategoryTranslation) GetLanguage() string      { return t.Language }
func (t *CategoryTranslation) SetLanguage(code string)  { t.Language = code }
func (t *CategoryTranslation) Label() string            { return t.Name }

func (t *CategoryTranslation) LocalizedField(column string) string {
	switch column {
	case "name":
		return t.Name
	case "description":
		return t.Description
	default:
		return ""
	}
}

func (t *CategoryTranslation) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.By(notBlank), validation.Length(1, 120)),
		validation.Field(&t.Description, validation.Length(0, 2000)),
	)
}

// CategoryPatch has no parent fields: a category is its slug plus its
// translations.
type CategoryPatch struct{}

func (CategoryPatch) Apply(*Category) []string { return nil }

func CategoryKind() Kind[*Category, *CategoryTranslation] {
	return Kind[*Category, *CategoryTranslation]{
		Name:           "category",
		ParentColumn:   "category_id",
		NewRecord:      func() *Category { return &Category{} },
		NewTranslation: func() *CategoryTranslation { return &CategoryTranslation{} },
		Clone:          (*Category).clone,
		SearchColumns:  []string{"name", "description"},
		OrderBy:        []string{"?TableAlias.slug ASC"},
		Less: func(a, b *Category) bool {
			return a.Slug < b.Slug
		},
		SearchLimit: 20,
	}
}
