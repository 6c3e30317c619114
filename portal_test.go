package portal_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/internal/content"
)

func testConfig(t *testing.T) portal.Config {
	t.Helper()
	cfg := portal.DefaultConfig()
	cfg.Storage.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	cfg.Logging.Level = "error"
	cfg.Content.ReadBackoff = time.Millisecond
	return cfg
}

func newSeededModule(t *testing.T) *portal.Module {
	t.Helper()
	module, err := portal.New(testConfig(t))
	if err != nil {
		t.Fatalf("portal.New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	fixture, err := portal.DefaultFixture()
	if err != nil {
		t.Fatalf("default fixture: %v", err)
	}
	if _, err := module.Seed(context.Background(), fixture); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return module
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := portal.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromEnvOverlaysPortalVariables(t *testing.T) {
	t.Setenv("PORTAL_DEFAULT_LOCALE", "en")
	t.Setenv("PORTAL_I18N_LOCALES", "en,fr")
	t.Setenv("PORTAL_CONTENT_SEARCH_LIMIT", "5")
	t.Setenv("PORTAL_CACHE_TTL", "2m")

	cfg, err := portal.FromEnv(portal.DefaultConfig())
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DefaultLocale != "en" || len(cfg.I18N.Locales) != 2 {
		t.Fatalf("unexpected locales %q %v", cfg.DefaultLocale, cfg.I18N.Locales)
	}
	if cfg.Content.SearchLimit != 5 || cfg.Cache.TTL != 2*time.Minute {
		t.Fatalf("unexpected overlay %+v %+v", cfg.Content, cfg.Cache)
	}
	if cfg.Content.SlugRetries != portal.DefaultConfig().Content.SlugRetries {
		t.Fatalf("unset variables must keep defaults, got %d", cfg.Content.SlugRetries)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "mysql"
	if _, err := portal.New(cfg); !errors.Is(err, portal.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestSeededPortalReadsWithFallback(t *testing.T) {
	ctx := context.Background()
	module := newSeededModule(t)

	cases := []struct {
		name     string
		slug     string
		locale   string
		title    string
		fallback bool
	}{
		{"exact english", "etude-climat", "en", "Climate Study", false},
		{"regional english", "etude-climat", "en-GB", "Climate Study", true},
		{"missing arabic", "etude-climat", "ar", "Étude Climat", true},
		{"arabic present", "campagne-vaccination", "ar", "حملة التطعيم", false},
		{"unsupported locale", "campagne-vaccination", "sw", "Campagne de vaccination", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := module.ArticleReader().GetBySlug(ctx, tc.slug, tc.locale)
			if err != nil {
				t.Fatalf("GetBySlug: %v", err)
			}
			if got.Translation.Title != tc.title || got.Fallback != tc.fallback {
				t.Fatalf("expected %q fallback=%v, got %q fallback=%v", tc.title, tc.fallback, got.Translation.Title, got.Fallback)
			}
		})
	}

	if _, err := module.ArticleReader().GetBySlug(ctx, "note-interne", "fr"); !content.IsNotFound(err) {
		t.Fatalf("unpublished article must be hidden, got %v", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	module := newSeededModule(t)
	fixture, err := portal.DefaultFixture()
	if err != nil {
		t.Fatalf("default fixture: %v", err)
	}
	report, err := module.Seed(context.Background(), fixture)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if report.Created["article"] != 0 || report.Skipped["article"] != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSearchAcrossKinds(t *testing.T) {
	module := newSeededModule(t)

	results, err := module.Search().Search(context.Background(), "en", "annual")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results.Publications) != 1 || len(results.Articles) != 0 {
		t.Fatalf("unexpected results %+v", results)
	}

	empty, err := module.Search().Search(context.Background(), "fr", "  ")
	if err != nil {
		t.Fatalf("blank search: %v", err)
	}
	if !empty.Empty() {
		t.Fatalf("blank term must return no hits, got %+v", empty)
	}
}

func TestCategoryDeleteIsRestricted(t *testing.T) {
	ctx := context.Background()
	module := newSeededModule(t)

	category, err := module.Categories().GetBySlug(ctx, "environnement")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if err := module.Categories().Delete(ctx, category.ID); !content.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	listed, total, err := module.ArticleReader().List(ctx, "en", portal.ListOptions{
		Filters: []portal.Filter{{Column: "category_id", Value: category.ID}},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(listed) != 1 || listed[0].Record.Slug != "etude-climat" {
		t.Fatalf("unexpected listing total=%d %+v", total, listed)
	}
}

func TestCommandsExposesEveryHandler(t *testing.T) {
	module, err := portal.New(testConfig(t))
	if err != nil {
		t.Fatalf("portal.New: %v", err)
	}
	defer module.Close()

	if got := len(module.Commands()); got != 12 {
		t.Fatalf("expected 12 handlers, got %d", got)
	}
}
