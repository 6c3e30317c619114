package contentcmd

import (
	"context"

	"github.com/goliatone/go-portal/internal/commands"
	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

// Registry receives command handlers, typically a go-command dispatcher
// adapter.
type Registry interface {
	RegisterCommand(handler any) error
}

// Handlers groups the create, update and delete handlers of one kind.
type Handlers[P content.Record[T], T content.Translation] struct {
	Create *commands.Handler[CreateCommand[P, T]]
	Update *commands.Handler[UpdateCommand[P, T]]
	Delete *commands.Handler[DeleteCommand[P, T]]
}

// NewHandlers builds the handlers for kind over service.
func NewHandlers[P content.Record[T], T content.Translation](kind string, service Service[P, T], logger interfaces.Logger) Handlers[P, T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	create := func(ctx context.Context, msg CreateCommand[P, T]) error {
		record, err := service.Create(ctx, content.CreateRequest[P, T]{
			Record:       msg.Record,
			Slug:         msg.Slug,
			Translations: msg.Translations,
		})
		if err != nil {
			return err
		}
		logger.Debug("command.record.created", "id", record.GetID(), "slug", record.GetSlug())
		return nil
	}
	update := func(ctx context.Context, msg UpdateCommand[P, T]) error {
		_, err := service.Update(ctx, content.UpdateRequest[P, T]{
			ID:             msg.ID,
			Patch:          msg.Patch,
			Translations:   msg.Translations,
			RegenerateSlug: msg.RegenerateSlug,
		})
		return err
	}
	remove := func(ctx context.Context, msg DeleteCommand[P, T]) error {
		return service.Delete(ctx, msg.ID)
	}

	return Handlers[P, T]{
		Create: commands.NewHandler(create,
			commands.WithLogger[CreateCommand[P, T]](logger),
			commands.WithOperation[CreateCommand[P, T]](kind+".create"),
		),
		Update: commands.NewHandler(update,
			commands.WithLogger[UpdateCommand[P, T]](logger),
			commands.WithOperation[UpdateCommand[P, T]](kind+".update"),
		),
		Delete: commands.NewHandler(remove,
			commands.WithLogger[DeleteCommand[P, T]](logger),
			commands.WithOperation[DeleteCommand[P, T]](kind+".delete"),
		),
	}
}

// All returns the handlers in registration order.
func (h Handlers[P, T]) All() []any {
	return []any{h.Create, h.Update, h.Delete}
}

// Register hands every handler to registry.
func (h Handlers[P, T]) Register(registry Registry) error {
	for _, handler := range h.All() {
		if err := registry.RegisterCommand(handler); err != nil {
			return err
		}
	}
	return nil
}
