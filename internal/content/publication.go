package content

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// Publication is a paper, report or book issued by the center.
type Publication struct {
	bun.BaseModel `bun:"table:publications,alias:p"`

	ID     uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug   string    `bun:"slug,notnull" json:"slug"`
	Year   int       `bun:"year" json:"year,omitempty"`
	DOI    string    `bun:"doi" json:"doi,omitempty"`
	PDFURL string    `bun:"pdf_url" json:"pdf_url,omitempty"`
	Domain string    `bun:"domain" json:"domain,omitempty"`
	Timestamps

	Translations []*PublicationTranslation `bun:"rel:has-many,join:id=publication_id" json:"translations,omitempty"`
}

type PublicationTranslation struct {
	bun.BaseModel `bun:"table:publication_translations,alias:pt"`

	ID            uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PublicationID uuid.UUID `bun:"publication_id,notnull,type:uuid" json:"publication_id"`
	Language      string    `bun:"language,notnull" json:"language"`
	Title         string    `bun:"title,notnull" json:"title"`
	Authors       string    `bun:"authors" json:"authors,omitempty"`
	Abstract      string    `bun:"abstract" json:"abstract,omitempty"`
	Timestamps
	SearchIndex
}

func (p *Publication) GetID() uuid.UUID                            { return p.ID }
func (p *Publication) SetID(id uuid.UUID)                          { p.ID = id }
func (p *Publication) GetSlug() string                             { return p.Slug }
func (p *Publication) SetSlug(slug string)                         { p.Slug = slug }
func (p *Publication) GetTranslations() []*PublicationTranslation  { return p.Translations }
func (p *Publication) SetTranslations(t []*PublicationTranslation) { p.Translations = t }
func (p *Publication) Visible() bool                               { return true }

func (p *Publication) FieldValue(column string) (any, bool) {
	switch column {
	case "slug":
		return p.Slug, true
	case "year":
		return p.Year, true
	case "domain":
		return p.Domain, true
	case "doi":
		return p.DOI, true
	default:
		return nil, false
	}
}

func (p *Publication) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Year, validation.Min(1900), validation.Max(2100)),
		validation.Field(&p.DOI, validation.Match(doiPattern).Error("must be a DOI such as 10.1000/xyz")),
		validation.Field(&p.PDFURL, is.URL),
		validation.Field(&p.Domain, validation.Length(0, 120)),
	)
}

func (p *Publication) clone() *Publication {
	copied := *p
	copied.Translations = cloneRows(p.Translations)
	return &copied
}

func (t *PublicationTranslation) GetID() uuid.UUID         { return t.ID }
func (t *PublicationTranslation) SetID(id uuid.UUID)       { t.ID = id }
func (t *PublicationTranslation) GetParentID() uuid.UUID   { return t.PublicationID }
func (t *PublicationTranslation) SetParentID(id uuid.UUID) { t.PublicationID = id }
func (t *PublicationTranslation) GetLanguage() string      { return t.Language }
func (t *PublicationTranslation) SetLanguage(code string)  { t.Language = code }
func (t *PublicationTranslation) Label() string            { return t.Title }

func (t *PublicationTranslation) LocalizedField(column string) string {
	switch column {
	case "title":
		return t.Title
	case "authors":
		return t.Authors
	case "abstract":
		return t.Abstract
	default:
		return ""
	}
}

func (t *PublicationTranslation) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Title, validation.Required, validation.By(notBlank), validation.Length(1, 400)),
		validation.Field(&t.Authors, validation.Length(0, 1000)),
	)
}

type PublicationPatch struct {
	Year   *int
	DOI    *string
	PDFURL *string
	Domain *string
}

func (p PublicationPatch) Apply(pub *Publication) []string {
	var columns []string
	if p.Year != nil {
		pub.Year = *p.Year
		columns = append(columns, "year")
	}
	if p.DOI != nil {
		pub.DOI = strings.TrimSpace(*p.DOI)
		columns = append(columns, "doi")
	}
	if p.PDFURL != nil {
		pub.PDFURL = strings.TrimSpace(*p.PDFURL)
		columns = append(columns, "pdf_url")
	}
	if p.Domain != nil {
		pub.Domain = strings.TrimSpace(*p.Domain)
		columns = append(columns, "domain")
	}
	return columns
}

// PublicationKind orders publications by year, most recent first.
func PublicationKind() Kind[*Publication, *PublicationTranslation] {
	return Kind[*Publication, *PublicationTranslation]{
		Name:           "publication",
		ParentColumn:   "publication_id",
		NewRecord:      func() *Publication { return &Publication{} },
		NewTranslation: func() *PublicationTranslation { return &PublicationTranslation{} },
		Clone:          (*Publication).clone,
		SearchColumns:  []string{"title", "authors", "abstract"},
		OrderBy:        []string{"?TableAlias.year DESC", "?TableAlias.slug ASC"},
		Less: func(a, b *Publication) bool {
			if a.Year != b.Year {
				return a.Year > b.Year
			}
			return a.Slug < b.Slug
		},
		SearchLimit: 20,
	}
}
