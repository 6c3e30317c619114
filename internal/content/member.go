package content

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Member is a researcher or staff profile.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug      string    `bun:"slug,notnull" json:"slug"`
	Image     string    `bun:"image" json:"image,omitempty"`
	Email     string    `bun:"email" json:"email,omitempty"`
	SortOrder int       `bun:"sort_order,notnull" json:"sort_order"`
	Timestamps

	Translations []*MemberTranslation `bun:"rel:has-many,join:id=member_id" json:"translations,omitempty"`
}

type MemberTranslation struct {
	bun.BaseModel `bun:"table:member_translations,alias:mt"`

	ID       uuid.UUID `bun:",pk,type:uuid" json:"id"`
	MemberID uuid.UUID `bun:"member_id,notnull,type:uuid" json:"member_id"`
	Language string    `bun:"language,notnull" json:"language"`
	Name     string    `bun:"name,notnull" json:"name"`
	Role     string    `bun:"role" json:"role,omitempty"`
	Bio      string    `bun:"bio" json:"bio,omitempty"`
	Timestamps
	SearchIndex
}

func (m *Member) GetID() uuid.UUID                       { return m.ID }
func (m *Member) SetID(id uuid.UUID)                     { m.ID = id }
func (m *Member) GetSlug() string                        { return m.Slug }
func (m *Member) SetSlug(slug string)                    { m.Slug = slug }
func (m *Member) GetTranslations() []*MemberTranslation  { return m.Translations }
func (m *Member) SetTranslations(t []*MemberTranslation) { m.Translations = t }
func (m *Member) Visible() bool                          { return true }

func (m *Member) FieldValue(column string) (any, bool) {
	switch column {
	case "slug":
		return m.Slug, true
	case "email":
		return m.Email, true
	default:
		return nil, false
	}
}

func (m *Member) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Email, is.EmailFormat),
		validation.Field(&m.Image, is.URL),
		validation.Field(&m.SortOrder, validation.Min(0)),
	)
}

func (m *Member) clone() *Member {
	copied := *m
	copied.Translations = cloneRows(m.Translations)
	return &copied
}

func (t *MemberTranslation) GetID() uuid.UUID         { return t.ID }
func (t *MemberTranslation) SetID(id uuid.UUID)       { t.ID = id }
func (t *MemberTranslation) GetParentID() uuid.UUID   { return t.MemberID }
func (t *MemberTranslation) SetParentID(id uuid.UUID) { t.MemberID = id }
func (t *MemberTranslation) GetLanguage() string      { return t.Language }
func (t *MemberTranslation) SetLanguage(code string)  { t.Language = code }
func (t *MemberTranslation) Label() string            { return t.Name }

func (t *MemberTranslation) LocalizedField(column string) string {
	switch column {
	case "name":
		return t.Name
	case "role":
		return t.Role
	case "bio":
		return t.Bio
	default:
		return ""
	}
}

func (t *MemberTranslation) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.By(notBlank), validation.Length(1, 200)),
		validation.Field(&t.Role, validation.Length(0, 200)),
	)
}

type MemberPatch struct {
	Image     *string
	Email     *string
	SortOrder *int
}

func (p MemberPatch) Apply(m *Member) []string {
	var columns []string
	if p.Image != nil {
		m.Image = strings.TrimSpace(*p.Image)
		columns = append(columns, "image")
	}
	if p.Email != nil {
		m.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		columns = append(columns, "email")
	}
	if p.SortOrder != nil {
		m.SortOrder = *p.SortOrder
		columns = append(columns, "sort_order")
	}
	return columns
}

// MemberKind orders members by their explicit sort order.
func MemberKind() Kind[*Member, *MemberTranslation] {
	return Kind[*Member, *MemberTranslation]{
		Name:           "member",
		ParentColumn:   "member_id",
		NewRecord:      func() *Member { return &Member{} },
		NewTranslation: func() *MemberTranslation { return &MemberTranslation{} },
		Clone:          (*Member).clone,
		SearchColumns:  []string{"name", "role", "bio"},
		OrderBy:        []string{"?TableAlias.sort_order ASC", "?TableAlias.slug ASC"},
		Less: func(a, b *Member) bool {
			if a.SortOrder != b.SortOrder {
				return a.SortOrder < b.SortOrder
			}
			return a.Slug < b.Slug
		},
		SearchLimit: 20,
	}
}
