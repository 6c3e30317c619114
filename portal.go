package portal

import (
	"context"

	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/di"
	"github.com/goliatone/go-portal/internal/fixtures"
	"github.com/goliatone/go-portal/internal/i18n"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/internal/search"
)

type (
	Article                = content.Article
	ArticleTranslation     = content.ArticleTranslation
	Publication            = content.Publication
	PublicationTranslation = content.PublicationTranslation
	Member                 = content.Member
	MemberTranslation      = content.MemberTranslation
	Category               = content.Category
	CategoryTranslation    = content.CategoryTranslation

	ArticleService     = di.ArticleService
	PublicationService = di.PublicationService
	MemberService      = di.MemberService
	CategoryService    = di.CategoryService

	ArticleReader     = di.ArticleReader
	PublicationReader = di.PublicationReader
	MemberReader      = di.MemberReader
	CategoryReader    = di.CategoryReader

	SearchService = search.Service
	SearchResults = search.Results
	ListOptions   = content.ListOptions
	Filter        = content.Filter

	Fixture    = fixtures.Fixture
	SeedReport = fixtures.Report

	Option = di.Option
)

// Module is the top level portal runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a portal module from cfg and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Close releases resources the module opened itself.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	return m.container.Close()
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Registry() *i18n.Registry { return m.container.Registry() }

func (m *Module) Articles() *ArticleService         { return m.container.Articles() }
func (m *Module) Publications() *PublicationService { return m.container.Publications() }
func (m *Module) Members() *MemberService           { return m.container.Members() }
func (m *Module) Categories() *CategoryService      { return m.container.Categories() }

func (m *Module) ArticleReader() *ArticleReader         { return m.container.ArticleReader() }
func (m *Module) PublicationReader() *PublicationReader { return m.container.PublicationReader() }
func (m *Module) MemberReader() *MemberReader           { return m.container.MemberReader() }
func (m *Module) CategoryReader() *CategoryReader       { return m.container.CategoryReader() }

// Search runs a locale-scoped search across articles, publications and
// members.
func (m *Module) Search() *SearchService { return m.container.Search() }

// Commands returns every content command handler, ready for a go-command
// registry.
func (m *Module) Commands() []any {
	var handlers []any
	handlers = append(handlers, m.container.ArticleCommands().All()...)
	handlers = append(handlers, m.container.PublicationCommands().All()...)
	handlers = append(handlers, m.container.MemberCommands().All()...)
	handlers = append(handlers, m.container.CategoryCommands().All()...)
	return handlers
}

// Seed loads fixture through the regular write paths. Records whose ID or
// slug already exists are skipped.
func (m *Module) Seed(ctx context.Context, fixture Fixture) (SeedReport, error) {
	return fixtures.Seed(ctx, fixtures.Services{
		Categories:   m.container.Categories(),
		Articles:     m.container.Articles(),
		Publications: m.container.Publications(),
		Members:      m.container.Members(),
	}, fixture, logging.ModuleLogger(m.container.LoggerProvider(), logging.FixturesModule))
}

// DefaultFixture returns the demo content bundled with the module.
func DefaultFixture() (Fixture, error) {
	return fixtures.Default()
}
