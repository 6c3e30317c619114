// Package contentcmd exposes the content services as go-command messages.
// Message types follow portal.<kind>.<op>.
package contentcmd

import (
	"context"
	"reflect"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-portal/internal/content"
)

const messagePrefix = "portal."

// Service is the subset of content.Service the handlers dispatch to.
type Service[P content.Record[T], T content.Translation] interface {
	Create(ctx context.Context, req content.CreateRequest[P, T]) (P, error)
	Update(ctx context.Context, req content.UpdateRequest[P, T]) (P, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ Service[*content.Article, *content.ArticleTranslation] = (*content.Service[*content.Article, *content.ArticleTranslation])(nil)

// CreateCommand creates a record with its translations.
type CreateCommand[P content.Record[T], T content.Translation] struct {
	Record       P      `json:"record,omitempty"`
	Slug         string `json:"slug,omitempty"`
	Translations []T    `json:"translations"`
}

func (CreateCommand[P, T]) Type() string { return MessageType[P]("create") }

func (m CreateCommand[P, T]) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Slug, validation.Length(0, 200)),
		validation.Field(&m.Translations, validation.Required),
	)
}

// UpdateCommand patches a record and replaces its translation set.
type UpdateCommand[P content.Record[T], T content.Translation] struct {
	ID             uuid.UUID        `json:"id"`
	Patch          content.Patch[P] `json:"-"`
	Translations   []T              `json:"translations"`
	RegenerateSlug bool             `json:"regenerate_slug,omitempty"`
}

func (UpdateCommand[P, T]) Type() string { return MessageType[P]("update") }

func (m UpdateCommand[P, T]) Validate() error {
	errs := validation.Errors{}
	if m.ID == uuid.Nil {
		errs["id"] = validation.NewError("portal.update.id_required", "id is required")
	}
	if len(m.Translations) == 0 {
		errs["translations"] = validation.NewError("portal.update.translations_required", "at least one translation is required")
	}
	return errs.Filter()
}

// DeleteCommand removes a record and its translations.
type DeleteCommand[P content.Record[T], T content.Translation] struct {
	ID uuid.UUID `json:"id"`
}

func (DeleteCommand[P, T]) Type() string { return MessageType[P]("delete") }

func (m DeleteCommand[P, T]) Validate() error {
	if m.ID == uuid.Nil {
		return validation.Errors{
			"id": validation.NewError("portal.delete.id_required", "id is required"),
		}
	}
	return nil
}

// MessageType returns portal.<kind>.<op> for the record type P, the kind
// being the lowercased type name.
func MessageType[P any](op string) string {
	t := reflect.TypeFor[P]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return messagePrefix + strings.ToLower(t.Name()) + "." + op
}
