package content

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Article is a news item or research story.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID          uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Slug        string     `bun:"slug,notnull" json:"slug"`
	Domain      string     `bun:"domain" json:"domain,omitempty"`
	MainImage   string     `bun:"main_image" json:"main_image,omitempty"`
	Published   bool       `bun:"published,notnull" json:"published"`
	PublishedAt *time.Time `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CategoryID  *uuid.UUID `bun:"category_id,type:uuid,nullzero" json:"category_id,omitempty"`
	Timestamps

	Translations []*ArticleTranslation `bun:"rel:has-many,join:id=article_id" json:"translations,omitempty"`
}

// ArticleTranslation carries the localized article fields.
type ArticleTranslation struct {
	bun.BaseModel `bun:"table:article_translations,alias:at"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ArticleID uuid.UUID `bun:"article_id,notnull,type:uuid" json:"article_id"`
	Language  string    `bun:"language,notnull" json:"language"`
	Title     string    `bun:"title,notnull" json:"title"`
	Excerpt   string    `bun:"excerpt" json:"excerpt,omitempty"`
	Content   string    `bun:"content" json:"content,omitempty"`
	Timestamps
	SearchIndex
}

func (a *Article) GetID() uuid.UUID                        { return a.ID }
func (a *Article) SetID(id uuid.UUID)                      { a.ID = id }
func (a *Article) GetSlug() string                         { return a.Slug }
func (a *Article) SetSlug(slug string)                     { a.Slug = slug }
func (a *Article) GetTranslations() []*ArticleTranslation  { return a.Translations }
func (a *Article) SetTranslations(t []*ArticleTranslation) { a.Translations = t }
func (a *Article) Visible() bool                           { return a.Published }

func (a *Article) FieldValue(column string) (any, bool) {
	switch column {
	case "slug":
		return a.Slug, true
	case "domain":
		return a.Domain, true
	case "published":
		return a.Published, true
	case "category_id":
		if a.CategoryID == nil {
			return nil, true
		}
		return *a.CategoryID, true
	default:
		return nil, false
	}
}

func (a *Article) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Domain, validation.Length(0, 120)),
		validation.Field(&a.MainImage, validation.Length(0, 2048), is.URL),
	)
}

func (a *Article) clone() *Article {
	copied := *a
	if a.PublishedAt != nil {
		at := *a.PublishedAt
		copied.PublishedAt = &at
	}
	if a.CategoryID != nil {
		id := *a.CategoryID
		copied.CategoryID = &id
	}
	copied.Translations = cloneRows(a.Translations)
	return &copied
}

func (t *ArticleTranslation) GetID() uuid.UUID         { return t.ID }
func (t *ArticleTranslation) SetID(id uuid.UUID)       { t.ID = id }
func (t *ArticleTranslation) GetParentID() uuid.UUID   { return t.ArticleID }
func (t *ArticleTranslation) SetParentID(id uuid.UUID) { t.ArticleID = id }
func (t *ArticleTranslation) GetLanguage() string      { return t.Language }
func (t *ArticleTranslation) SetLanguage(code string)  { t.Language = code }
func (t *ArticleTranslation) Label() string            { return t.Title }

func (t *ArticleTranslation) LocalizedField(column string) string {
	switch column {
	case "title":
		return t.Title
	case "excerpt":
		return t.Excerpt
	case "content":
		return t.Content
	default:
		return ""
	}
}

func (t *ArticleTranslation) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Title, validation.Required, validation.By(notBlank), validation.Length(1, 300)),
		validation.Field(&t.Excerpt, validation.Length(0, 1000)),
	)
}

// ArticlePatch lists optional article changes. ClearCategory detaches the
// category and wins over CategoryID.
type ArticlePatch struct {
	Domain        *string
	MainImage     *string
	Published     *bool
	PublishedAt   *time.Time
	CategoryID    *uuid.UUID
	ClearCategory bool
}

func (p ArticlePatch) Apply(a *Article) []string {
	var columns []string
	if p.Domain != nil {
		a.Domain = strings.TrimSpace(*p.Domain)
		columns = append(columns, "domain")
	}
	if p.MainImage != nil {
		a.MainImage = strings.TrimSpace(*p.MainImage)
		columns = append(columns, "main_image")
	}
	if p.Published != nil {
		a.Published = *p.Published
		columns = append(columns, "published")
	}
	if p.PublishedAt != nil {
		at := p.PublishedAt.UTC()
		a.PublishedAt = &at
		columns = append(columns, "published_at")
	}
	switch {
	case p.ClearCategory:
		a.CategoryID = nil
		columns = append(columns, "category_id")
	case p.CategoryID != nil:
		id := *p.CategoryID
		a.CategoryID = &id
		columns = append(columns, "category_id")
	}
	return columns
}

// ArticleKind describes articles: newest first, only published articles
// are public.
func ArticleKind() Kind[*Article, *ArticleTranslation] {
	return Kind[*Article, *ArticleTranslation]{
		Name:           "article",
		ParentColumn:   "article_id",
		NewRecord:      func() *Article { return &Article{} },
		NewTranslation: func() *ArticleTranslation { return &ArticleTranslation{} },
		Clone:          (*Article).clone,
		SearchColumns:  []string{"title", "excerpt", "content"},
		OrderBy:        []string{"?TableAlias.created_at DESC"},
		Less: func(a, b *Article) bool {
			return a.CreatedAt.After(b.CreatedAt)
		},
		VisibleColumn: "published",
		SearchLimit:   20,
		Prepare: func(a *Article, now time.Time) []string {
			if a.Published && a.PublishedAt == nil {
				at := now
				a.PublishedAt = &at
				return []string{"published_at"}
			}
			return nil
		},
	}
}
