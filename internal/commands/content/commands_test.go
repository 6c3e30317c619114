package contentcmd_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	contentcmd "github.com/goliatone/go-portal/internal/commands/content"
	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/i18n"
)

type (
	memberCreate = contentcmd.CreateCommand[*content.Member, *content.MemberTranslation]
	memberUpdate = contentcmd.UpdateCommand[*content.Member, *content.MemberTranslation]
	memberDelete = contentcmd.DeleteCommand[*content.Member, *content.MemberTranslation]
)

func newMembers(t *testing.T) (*content.Service[*content.Member, *content.MemberTranslation], contentcmd.Handlers[*content.Member, *content.MemberTranslation]) {
	t.Helper()
	registry, err := i18n.NewRegistry(i18n.Config{DefaultLocale: "fr", Locales: []string{"fr", "en", "ar"}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc := content.NewService(content.MemberKind(), content.NewMemoryRepository(content.MemberKind()), registry)
	return svc, contentcmd.NewHandlers[*content.Member, *content.MemberTranslation]("member", svc, nil)
}

func TestMessageTypes(t *testing.T) {
	cases := []struct{ got, want string }{
		{memberCreate{}.Type(), "portal.member.create"},
		{memberUpdate{}.Type(), "portal.member.update"},
		{memberDelete{}.Type(), "portal.member.delete"},
		{contentcmd.CreateCommand[*content.Article, *content.ArticleTranslation]{}.Type(), "portal.article.create"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, tc.got)
		}
	}
}

func TestCreateUpdateDeleteThroughHandlers(t *testing.T) {
	ctx := context.Background()
	svc, handlers := newMembers(t)

	err := handlers.Create.Execute(ctx, memberCreate{
		Record:       &content.Member{Email: "amina@example.org"},
		Translations: []*content.MemberTranslation{{Language: "fr", Name: "Amina Benali", Role: "Océanographe"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	member, err := svc.GetBySlug(ctx, "amina-benali")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	err = handlers.Update.Execute(ctx, memberUpdate{
		ID:           member.ID,
		Patch:        content.MemberPatch{SortOrder: ptr(3)},
		Translations: []*content.MemberTranslation{{Language: "en", Name: "Amina Benali", Role: "Oceanographer"}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := svc.Get(ctx, member.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.SortOrder != 3 || len(updated.Translations) != 1 || updated.Translations[0].Language != "en" {
		t.Fatalf("unexpected member after update %+v", updated)
	}

	if err := handlers.Delete.Execute(ctx, memberDelete{ID: member.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = handlers.Delete.Execute(ctx, memberDelete{ID: member.ID})
	if !content.IsNotFound(err) {
		t.Fatalf("expected not found to pass through, got %v", err)
	}
}

func TestMessagesRejectMissingFields(t *testing.T) {
	ctx := context.Background()
	_, handlers := newMembers(t)

	if err := handlers.Create.Execute(ctx, memberCreate{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for empty create, got %v", err)
	}
	if err := handlers.Update.Execute(ctx, memberUpdate{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}
	if err := handlers.Delete.Execute(ctx, memberDelete{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for empty delete, got %v", err)
	}
}

func TestServiceValidationSurvivesHandler(t *testing.T) {
	_, handlers := newMembers(t)
	err := handlers.Create.Execute(context.Background(), memberCreate{
		Translations: []*content.MemberTranslation{{Language: "sw", Name: "Amina"}},
	})
	if !content.IsValidation(err) {
		t.Fatalf("expected service validation error, got %v", err)
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func TestRegisterHandsEveryHandler(t *testing.T) {
	_, handlers := newMembers(t)
	registry := &recordingRegistry{}
	if err := handlers.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(registry.handlers) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(registry.handlers))
	}
}

func TestDispatchCreateCommand(t *testing.T) {
	ctx := context.Background()
	svc, handlers := newMembers(t)

	sub := dispatcher.SubscribeCommand(handlers.Create)
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(ctx, memberCreate{
		Translations: []*content.MemberTranslation{{Language: "fr", Name: "Karim Haddad"}},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "karim-haddad"); err != nil {
		t.Fatalf("expected dispatched create to persist: %v", err)
	}
	if _, err := svc.Get(ctx, uuid.New()); !content.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func ptr[V any](v V) *V {
	return &v
}
