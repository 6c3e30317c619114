package content_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/i18n"
	"github.com/goliatone/go-portal/internal/logging/console"
	"github.com/goliatone/go-portal/internal/storage"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

type (
	articleService     = content.Service[*content.Article, *content.ArticleTranslation]
	articleRepo        = content.MemoryRepository[*content.Article, *content.ArticleTranslation]
	publicationService = content.Service[*content.Publication, *content.PublicationTranslation]
)

func portalRegistry(t *testing.T) *i18n.Registry {
	t.Helper()
	registry, err := i18n.NewRegistry(i18n.Config{DefaultLocale: "fr", Locales: []string{"fr", "en", "ar"}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

// tickingClock advances one second on every call so records order
// deterministically by creation time.
func tickingClock() func() time.Time {
	var (
		mu  sync.Mutex
		now = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func fastRetry() content.ServiceOption {
	return content.WithReadRetry(storage.RetryPolicy{Attempts: 2, Backoff: time.Millisecond})
}

func newArticles(t *testing.T, opts ...content.ServiceOption) (*articleService, *articleRepo) {
	t.Helper()
	repo := content.NewMemoryRepository(content.ArticleKind())
	opts = append([]content.ServiceOption{content.WithClock(tickingClock()), fastRetry()}, opts...)
	return content.NewService(content.ArticleKind(), repo, portalRegistry(t), opts...), repo
}

func newPublications(t *testing.T, opts ...content.ServiceOption) *publicationService {
	t.Helper()
	repo := content.NewMemoryRepository(content.PublicationKind())
	opts = append([]content.ServiceOption{content.WithClock(tickingClock()), fastRetry()}, opts...)
	return content.NewService(content.PublicationKind(), repo, portalRegistry(t), opts...)
}

func articleTr(lang, title string) *content.ArticleTranslation {
	return &content.ArticleTranslation{Language: lang, Title: title}
}

func climateStudy(published bool) content.CreateRequest[*content.Article, *content.ArticleTranslation] {
	return content.CreateRequest[*content.Article, *content.ArticleTranslation]{
		Record: &content.Article{Domain: "climate", Published: published},
		Translations: []*content.ArticleTranslation{
			{Language: "fr", Title: "Étude Climat", Excerpt: "Synthèse des observations"},
			{Language: "en", Title: "Climate Study", Excerpt: "Summary of observations"},
		},
	}
}

func ptr[V any](v V) *V {
	return &v
}

func bufferLogger() (interfaces.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: console.LevelTrace})
	return provider.GetLogger("portal.article"), &buf
}

type recordingInvalidator struct {
	mu    sync.Mutex
	kinds []string
	err   error
}

func (r *recordingInvalidator) InvalidateListings(_ context.Context, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	return r.err
}

// fieldList renders the validation fields of err as "a;b;".
func fieldList(err error) string {
	var e *goerrors.Error
	if !errors.As(err, &e) {
		return ""
	}
	var b strings.Builder
	for _, field := range e.ValidationErrors {
		b.WriteString(field.Field)
		b.WriteString(";")
	}
	return b.String()
}
