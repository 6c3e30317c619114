// Package fixtures seeds the portal with categories, articles, publications
// and members described in JSON.
package fixtures

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/identity"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

//go:embed testdata/portal_fixture.json
var defaultFixture []byte

// Fixture lists the records to seed. Keys become slugs and, through
// identity.RecordUUID, record identifiers.
type Fixture struct {
	Categories   []CategoryFixture    `json:"categories"`
	Articles     []ArticleFixture     `json:"articles"`
	Publications []PublicationFixture `json:"publications"`
	Members      []MemberFixture      `json:"members"`
}

type CategoryFixture struct {
	Key          string                         `json:"key"`
	Translations []*content.CategoryTranslation `json:"translations"`
}

type ArticleFixture struct {
	Key          string                        `json:"key"`
	Category     string                        `json:"category,omitempty"`
	Domain       string                        `json:"domain,omitempty"`
	MainImage    string                        `json:"main_image,omitempty"`
	Published    bool                          `json:"published"`
	Translations []*content.ArticleTranslation `json:"translations"`
}

type PublicationFixture struct {
	Key          string                            `json:"key"`
	Year         int                               `json:"year,omitempty"`
	DOI          string                            `json:"doi,omitempty"`
	PDFURL       string                            `json:"pdf_url,omitempty"`
	Domain       string                            `json:"domain,omitempty"`
	Translations []*content.PublicationTranslation `json:"translations"`
}

type MemberFixture struct {
	Key          string                       `json:"key"`
	Image        string                       `json:"image,omitempty"`
	Email        string                       `json:"email,omitempty"`
	SortOrder    int                          `json:"sort_order"`
	Translations []*content.MemberTranslation `json:"translations"`
}

// Services are the write paths Seed goes through.
type Services struct {
	Categories   *content.Service[*content.Category, *content.CategoryTranslation]
	Articles     *content.Service[*content.Article, *content.ArticleTranslation]
	Publications *content.Service[*content.Publication, *content.PublicationTranslation]
	Members      *content.Service[*content.Member, *content.MemberTranslation]
}

// Report counts created and skipped records per kind.
type Report struct {
	Created map[string]int `json:"created"`
	Skipped map[string]int `json:"skipped"`
}

// Default returns the fixture bundled with the module.
func Default() (Fixture, error) {
	return Load(bytes.NewReader(defaultFixture))
}

// Load decodes a fixture, rejecting unknown fields.
func Load(r io.Reader) (Fixture, error) {
	var fixture Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fixture); err != nil {
		return Fixture{}, fmt.Errorf("fixtures: decode: %w", err)
	}
	return fixture, nil
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("fixtures: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Seed creates every fixture record through the services. Records whose id
// or slug already exists are skipped, so seeding twice is harmless.
// Categories go first so articles can reference them.
func Seed(ctx context.Context, services Services, fixture Fixture, logger interfaces.Logger) (Report, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	report := Report{Created: map[string]int{}, Skipped: map[string]int{}}

	for _, item := range fixture.Categories {
		err := seedOne(ctx, services.Categories, report, item.Key, &content.Category{}, item.Translations)
		if err != nil {
			return report, err
		}
	}
	for _, item := range fixture.Articles {
		record := &content.Article{
			Domain:    item.Domain,
			MainImage: item.MainImage,
			Published: item.Published,
		}
		if item.Category != "" {
			id := identity.RecordUUID("category", item.Category)
			record.CategoryID = &id
		}
		if err := seedOne(ctx, services.Articles, report, item.Key, record, item.Translations); err != nil {
			return report, err
		}
	}
	for _, item := range fixture.Publications {
		record := &content.Publication{Year: item.Year, DOI: item.DOI, PDFURL: item.PDFURL, Domain: item.Domain}
		if err := seedOne(ctx, services.Publications, report, item.Key, record, item.Translations); err != nil {
			return report, err
		}
	}
	for _, item := range fixture.Members {
		record := &content.Member{Image: item.Image, Email: item.Email, SortOrder: item.SortOrder}
		if err := seedOne(ctx, services.Members, report, item.Key, record, item.Translations); err != nil {
			return report, err
		}
	}

	logger.Info("fixtures.seeded", "created", report.Created, "skipped", report.Skipped)
	return report, nil
}

func seedOne[P content.Record[T], T content.Translation](ctx context.Context, svc *content.Service[P, T], report Report, key string, record P, translations []T) error {
	if svc == nil {
		return nil
	}
	kind := svc.Kind().Name
	id := identity.RecordUUID(kind, key)
	if id == uuid.Nil {
		return fmt.Errorf("fixtures: %s entry without key", kind)
	}

	exists, err := present(ctx, svc, id, key)
	if err != nil {
		return fmt.Errorf("fixtures: %s %q: %w", kind, key, err)
	}
	if exists {
		report.Skipped[kind]++
		return nil
	}

	record.SetID(id)
	for _, tr := range translations {
		if tr.GetID() == uuid.Nil {
			tr.SetID(identity.TranslationUUID(id, tr.GetLanguage()))
		}
	}
	if _, err := svc.Create(ctx, content.CreateRequest[P, T]{
		Record:       record,
		Slug:         key,
		Translations: translations,
	}); err != nil {
		return fmt.Errorf("fixtures: %s %q: %w", kind, key, err)
	}
	report.Created[kind]++
	return nil
}

func present[P content.Record[T], T content.Translation](ctx context.Context, svc *content.Service[P, T], id uuid.UUID, slug string) (bool, error) {
	if _, err := svc.Get(ctx, id); err == nil {
		return true, nil
	} else if !content.IsNotFound(err) {
		return false, err
	}
	if _, err := svc.GetBySlug(ctx, slug); err == nil {
		return true, nil
	} else if !content.IsNotFound(err) {
		return false, err
	}
	return false, nil
}
