package content_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/storage"
	"github.com/goliatone/go-portal/pkg/testsupport"
)

func newPortalDB(t *testing.T) *bun.DB {
	t.Helper()
	db := testsupport.NewBunSQLite(t)
	if err := storage.Migrate(context.Background(), db, content.Tables()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newBunArticles(t *testing.T, db *bun.DB, opts ...content.ServiceOption) *articleService {
	t.Helper()
	opts = append([]content.ServiceOption{content.WithClock(tickingClock()), fastRetry()}, opts...)
	return content.NewService(content.ArticleKind(), content.NewBunRepository(db, content.ArticleKind()), portalRegistry(t), opts...)
}

func countTranslations(t *testing.T, db *bun.DB, articleID uuid.UUID) int {
	t.Helper()
	n, err := db.NewSelect().
		Model((*content.ArticleTranslation)(nil)).
		Where("article_id = ?", articleID).
		Count(context.Background())
	if err != nil {
		t.Fatalf("count translations: %v", err)
	}
	return n
}

func TestBunRepositoryCreateAndRead(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)

	article, err := svc.Create(ctx, climateStudy(true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bySlug, err := svc.GetBySlug(ctx, "etude-climat")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if bySlug.ID != article.ID || len(bySlug.Translations) != 2 {
		t.Fatalf("unexpected record %+v", bySlug)
	}
	if bySlug.PublishedAt == nil {
		t.Fatal("expected published_at to round-trip")
	}

	if _, err := svc.Get(ctx, uuid.New()); !content.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "missing"); !content.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBunRepositorySuffixesDuplicateSlugs(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := content.NewService(content.PublicationKind(), content.NewBunRepository(db, content.PublicationKind()), portalRegistry(t))

	var got []string
	for i := 0; i < 3; i++ {
		pub, err := svc.Create(ctx, content.CreateRequest[*content.Publication, *content.PublicationTranslation]{
			Record:       &content.Publication{Year: 2024},
			Translations: []*content.PublicationTranslation{{Language: "fr", Title: "Rapport Annuel"}},
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		got = append(got, pub.Slug)
	}

	want := []string{"rapport-annuel", "rapport-annuel-1", "rapport-annuel-2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slug %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBunRepositoryRejectsDuplicateSlugAtStorage(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	repo := content.NewBunRepository(db, content.ArticleKind())

	first := &content.Article{ID: uuid.New(), Slug: "same"}
	if err := repo.Create(ctx, first, []*content.ArticleTranslation{{ID: uuid.New(), Language: "fr", Title: "Un"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := countTranslations(t, db, first.ID); got != 1 {
		t.Fatalf("create must attach translations to the new record, got %d rows", got)
	}
	second := &content.Article{ID: uuid.New(), Slug: "same"}
	err := repo.Create(ctx, second, []*content.ArticleTranslation{{ID: uuid.New(), Language: "fr", Title: "Deux"}})
	if !storage.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if countTranslations(t, db, second.ID) != 0 {
		t.Fatal("failed create must not leave translations behind")
	}
}

func TestBunRepositoryUpdateDiffsTranslations(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)

	article, err := svc.Create(ctx, climateStudy(false))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	frID := article.Translations[0].ID

	_, err = svc.Update(ctx, content.UpdateRequest[*content.Article, *content.ArticleTranslation]{
		ID:    article.ID,
		Patch: content.ArticlePatch{Published: ptr(true)},
		Translations: []*content.ArticleTranslation{
			articleTr("fr", "Étude Climat 2026"),
			articleTr("ar", "دراسة المناخ"),
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n := countTranslations(t, db, article.ID); n != 2 {
		t.Fatalf("expected 2 translation rows, got %d", n)
	}

	stored, err := svc.Get(ctx, article.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Published || stored.Domain != "climate" {
		t.Fatalf("unexpected parent columns %+v", stored)
	}
	languages := map[string]*content.ArticleTranslation{}
	for _, tr := range stored.Translations {
		languages[tr.Language] = tr
	}
	if _, ok := languages["en"]; ok {
		t.Fatal("dropped en translation still stored")
	}
	if fr := languages["fr"]; fr == nil || fr.ID != frID || fr.Title != "Étude Climat 2026" {
		t.Fatalf("expected fr updated in place, got %+v", fr)
	}
	if languages["ar"] == nil {
		t.Fatal("expected ar translation inserted")
	}

	_, err = svc.Update(ctx, content.UpdateRequest[*content.Article, *content.ArticleTranslation]{
		ID:           article.ID,
		Translations: []*content.ArticleTranslation{articleTr("fr", "Étude Climat")},
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if n := countTranslations(t, db, article.ID); n != 1 {
		t.Fatalf("expected exactly one translation row, got %d", n)
	}
}

func TestBunRepositoryUpdateUnknownRecord(t *testing.T) {
	db := newPortalDB(t)
	repo := content.NewBunRepository(db, content.ArticleKind())
	record := &content.Article{ID: uuid.New(), Slug: "ghost"}
	err := repo.Update(context.Background(), record, nil, []*content.ArticleTranslation{{ID: uuid.New(), Language: "fr", Title: "Fantôme"}})
	if !content.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBunRepositoryDeleteRemovesTranslations(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)

	article, err := svc.Create(ctx, climateStudy(true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, article.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := countTranslations(t, db, article.ID); n != 0 {
		t.Fatalf("expected translations removed, %d left", n)
	}
	if err := svc.Delete(ctx, article.ID); !content.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestBunRepositoryListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)

	for i := 0; i < 5; i++ {
		req := content.CreateRequest[*content.Article, *content.ArticleTranslation]{
			Record:       &content.Article{Domain: "water", Published: i%2 == 0},
			Translations: []*content.ArticleTranslation{articleTr("fr", fmt.Sprintf("Note %d", i))},
		}
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	items, total, err := svc.List(ctx, content.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("expected 2 of 5, got %d of %d", len(items), total)
	}
	if items[0].Slug != "note-3" || items[1].Slug != "note-2" {
		t.Fatalf("expected newest-first order, got %s, %s", items[0].Slug, items[1].Slug)
	}
	if len(items[0].Translations) != 1 {
		t.Fatalf("expected translations to be loaded, got %d", len(items[0].Translations))
	}

	_, visible, err := svc.List(ctx, content.ListOptions{OnlyVisible: true})
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if visible != 3 {
		t.Fatalf("expected 3 published, got %d", visible)
	}

	count, err := svc.Count(ctx, content.Filter{Column: "domain", Value: "water"})
	if err != nil || count != 5 {
		t.Fatalf("expected count 5, got %d (%v)", count, err)
	}
}

func TestBunRepositorySearch(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)
	reader := content.NewReader(content.ArticleKind(), content.NewBunRepository(db, content.ArticleKind()), portalRegistry(t))

	if _, err := svc.Create(ctx, climateStudy(true)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, content.CreateRequest[*content.Article, *content.ArticleTranslation]{
		Record:       &content.Article{Published: true},
		Translations: []*content.ArticleTranslation{articleTr("en", "100% renewable")},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	results, err := reader.Search(ctx, "en", "climate")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Translation.Title != "Climate Study" {
		t.Fatalf("unexpected results %+v", results)
	}

	results, err = reader.Search(ctx, "fr", "climat")
	if err != nil {
		t.Fatalf("search fr: %v", err)
	}
	if len(results) != 1 || results[0].Locale != "fr" {
		t.Fatalf("expected match on the french title, got %+v", results)
	}

	results, err = reader.Search(ctx, "en", "%")
	if err != nil {
		t.Fatalf("search wildcard: %v", err)
	}
	if len(results) != 1 || results[0].Translation.Title != "100% renewable" {
		t.Fatalf("expected literal percent match, got %d results", len(results))
	}
}

func TestBunRepositoryCategoryGuard(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	registry := portalRegistry(t)
	articlesRepo := content.NewBunRepository(db, content.ArticleKind())
	categoriesRepo := content.NewBunRepository(db, content.CategoryKind())

	categories := content.NewService(content.CategoryKind(), categoriesRepo, registry,
		content.WithDeleteGuard(content.RestrictCategoryDelete(articlesRepo)))
	articles := content.NewService(content.ArticleKind(), articlesRepo, registry)
	articles.SetRecordCheck(content.ArticleCategoryCheck(categoriesRepo))

	category, err := categories.Create(ctx, content.CreateRequest[*content.Category, *content.CategoryTranslation]{
		Translations: []*content.CategoryTranslation{{Language: "fr", Name: "Énergie"}},
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	req := climateStudy(true)
	req.Record.CategoryID = &category.ID
	if _, err := articles.Create(ctx, req); err != nil {
		t.Fatalf("create article: %v", err)
	}

	if err := categories.Delete(ctx, category.ID); !content.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	items, total, err := articles.List(ctx, content.ListOptions{
		Filters: []content.Filter{{Column: "category_id", Value: category.ID}},
	})
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("expected one article in category, got %d (%v)", total, err)
	}
}

func TestBunRepositoryConcurrentCreatesGetDistinctSlugs(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	const writers = 6
	svc := newBunArticles(t, db, content.WithSlugRetries(writers))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slugs = map[string]bool{}
		errs  []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			article, err := svc.Create(ctx, content.CreateRequest[*content.Article, *content.ArticleTranslation]{
				Translations: []*content.ArticleTranslation{articleTr("fr", "Rapport Annuel")},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			slugs[article.Slug] = true
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("concurrent create failed: %v", errs)
	}
	if len(slugs) != writers {
		t.Fatalf("expected %d distinct slugs, got %v", writers, slugs)
	}
	if !slugs["rapport-annuel"] {
		t.Fatalf("expected the base slug to be taken, got %v", slugs)
	}
}

func TestBunRepositorySearchFoldsAccentsAndCase(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)
	bunReader := content.NewReader(content.ArticleKind(), content.NewBunRepository(db, content.ArticleKind()), portalRegistry(t))

	memRepo := content.NewMemoryRepository(content.ArticleKind())
	memSvc := content.NewService(content.ArticleKind(), memRepo, portalRegistry(t), content.WithClock(tickingClock()))
	memReader := content.NewReader(content.ArticleKind(), memRepo, portalRegistry(t))

	for _, create := range []func() error{
		func() error { _, err := svc.Create(ctx, climateStudy(true)); return err },
		func() error { _, err := memSvc.Create(ctx, climateStudy(true)); return err },
	} {
		if err := create(); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cases := []struct {
		term string
		want int
	}{
		{"Étude", 1},
		{"étude", 1},
		{"ÉTUDE", 1},
		{"Étude Climat", 1},
		{"etude", 1},
		{"synthèse", 1},
		{"étude océan", 0},
	}
	for _, tc := range cases {
		t.Run(tc.term, func(t *testing.T) {
			fromBun, err := bunReader.Search(ctx, "fr", tc.term)
			if err != nil {
				t.Fatalf("bun search: %v", err)
			}
			fromMemory, err := memReader.Search(ctx, "fr", tc.term)
			if err != nil {
				t.Fatalf("memory search: %v", err)
			}
			if len(fromBun) != tc.want || len(fromMemory) != tc.want {
				t.Fatalf("expected %d hits, got bun=%d memory=%d", tc.want, len(fromBun), len(fromMemory))
			}
		})
	}
}

func TestBunRepositoryUpdateRefreshesSearchText(t *testing.T) {
	ctx := context.Background()
	db := newPortalDB(t)
	svc := newBunArticles(t, db)
	reader := content.NewReader(content.ArticleKind(), content.NewBunRepository(db, content.ArticleKind()), portalRegistry(t))

	created, err := svc.Create(ctx, climateStudy(true))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, content.UpdateRequest[*content.Article, *content.ArticleTranslation]{
		ID:           created.ID,
		Translations: []*content.ArticleTranslation{articleTr("fr", "Océans et littoral")},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if results, err := reader.Search(ctx, "fr", "climat"); err != nil || len(results) != 0 {
		t.Fatalf("old title must no longer match, got %d results (err %v)", len(results), err)
	}
	if results, err := reader.Search(ctx, "fr", "OCEANS"); err != nil || len(results) != 1 {
		t.Fatalf("new title must match, got %d results (err %v)", len(results), err)
	}
}
