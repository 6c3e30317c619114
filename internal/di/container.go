package di

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-portal/internal/commands"
	contentcmd "github.com/goliatone/go-portal/internal/commands/content"
	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/i18n"
	"github.com/goliatone/go-portal/internal/invalidation"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/internal/logging/console"
	"github.com/goliatone/go-portal/internal/logging/gologger"
	"github.com/goliatone/go-portal/internal/runtimeconfig"
	"github.com/goliatone/go-portal/internal/search"
	"github.com/goliatone/go-portal/internal/storage"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

type (
	ArticleService     = content.Service[*content.Article, *content.ArticleTranslation]
	PublicationService = content.Service[*content.Publication, *content.PublicationTranslation]
	MemberService      = content.Service[*content.Member, *content.MemberTranslation]
	CategoryService    = content.Service[*content.Category, *content.CategoryTranslation]

	ArticleReader     = content.Reader[*content.Article, *content.ArticleTranslation]
	PublicationReader = content.Reader[*content.Publication, *content.PublicationTranslation]
	MemberReader      = content.Reader[*content.Member, *content.MemberTranslation]
	CategoryReader    = content.Reader[*content.Category, *content.CategoryTranslation]

	ArticleCommands     = contentcmd.Handlers[*content.Article, *content.ArticleTranslation]
	PublicationCommands = contentcmd.Handlers[*content.Publication, *content.PublicationTranslation]
	MemberCommands      = contentcmd.Handlers[*content.Member, *content.MemberTranslation]
	CategoryCommands    = contentcmd.Handlers[*content.Category, *content.CategoryTranslation]
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	registry *i18n.Registry

	bunDB         *bun.DB
	ownsDB        bool
	memoryStorage bool

	cacheService    cache.CacheService
	invalidator     interfaces.ListingInvalidator
	commandRegistry contentcmd.Registry
	clock           func() time.Time

	articleRepo     content.Repository[*content.Article, *content.ArticleTranslation]
	publicationRepo content.Repository[*content.Publication, *content.PublicationTranslation]
	memberRepo      content.Repository[*content.Member, *content.MemberTranslation]
	categoryRepo    content.Repository[*content.Category, *content.CategoryTranslation]

	articles     *ArticleService
	publications *PublicationService
	members      *MemberService
	categories   *CategoryService

	articleReader     *ArticleReader
	publicationReader *PublicationReader
	memberReader      *MemberReader
	categoryReader    *CategoryReader

	searchSvc *search.Service

	articleCommands     ArticleCommands
	publicationCommands PublicationCommands
	memberCommands      MemberCommands
	categoryCommands    CategoryCommands
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB injects an externally owned database. The container neither
// opens nor closes a pool when one is given.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMemoryStorage keeps every record in process instead of SQL.
func WithMemoryStorage() Option {
	return func(c *Container) {
		c.memoryStorage = true
	}
}

// WithCacheService shares an existing go-repository-cache service.
func WithCacheService(service cache.CacheService) Option {
	return func(c *Container) {
		c.cacheService = service
	}
}

// WithInvalidator adds a listener notified after every mutation, next to the
// cache invalidator.
func WithInvalidator(invalidator interfaces.ListingInvalidator) Option {
	return func(c *Container) {
		c.invalidator = invalidator
	}
}

// WithCommandRegistry registers every content command handler with registry.
func WithCommandRegistry(registry contentcmd.Registry) Option {
	return func(c *Container) {
		c.commandRegistry = registry
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

// NewContainer validates cfg and builds every service. On failure any pool it
// opened is closed again.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}

	registry, err := i18n.NewRegistry(i18n.FromModuleConfig(cfg.DefaultLocale, cfg.I18N.Locales))
	if err != nil {
		return nil, fmt.Errorf("portal: locale registry: %w", err)
	}
	c.registry = registry

	ctx := context.Background()
	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	if err := c.configureCache(); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.configureRepositories()
	c.configureServices()
	if err := c.configureCommands(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Info("portal.container.ready",
		"default_locale", registry.Default(),
		"locales", strings.Join(registry.Codes(), ","),
		"storage", c.storageLabel(),
		"cache", c.cacheService != nil,
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     c.Config.Logging.Level,
				Format:    c.Config.Logging.Format,
				AddSource: c.Config.Logging.AddSource,
				Focus:     c.Config.Logging.Focus,
			})
			if err != nil {
				return fmt.Errorf("portal: logging: %w", err)
			}
			c.loggerProvider = provider
		default:
			level, _ := console.ParseLevel(c.Config.Logging.Level)
			c.loggerProvider = console.NewProvider(console.Options{Writer: os.Stderr, MinLevel: level})
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, logging.StorageModule)
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.memoryStorage {
		return nil
	}
	if c.bunDB == nil {
		db, err := storage.Open(ctx, storage.Config{
			Driver:          c.Config.Storage.Driver,
			DSN:             c.Config.Storage.DSN,
			Debug:           c.Config.Storage.Debug,
			MaxOpenConns:    c.Config.Storage.MaxOpenConns,
			MaxIdleConns:    c.Config.Storage.MaxIdleConns,
			ConnMaxLifetime: c.Config.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("portal: open storage: %w", err)
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.Config.Storage.AutoMigrate {
		if err := storage.Migrate(ctx, c.bunDB, content.Tables()...); err != nil {
			_ = c.Close()
			return fmt.Errorf("portal: migrate: %w", err)
		}
		c.logger.Debug("storage.migrated", "tables", len(content.Tables()))
	}
	return nil
}

func (c *Container) configureCache() error {
	invalidators := []interfaces.ListingInvalidator{c.invalidator}
	if c.Config.Cache.Enabled {
		if c.cacheService == nil {
			service, err := invalidation.NewCacheService(c.Config.Cache.TTL)
			if err != nil {
				return fmt.Errorf("portal: cache: %w", err)
			}
			c.cacheService = service
		}
		invalidators = append(invalidators, invalidation.NewCacheInvalidator(c.cacheService, c.logger))
	}
	c.invalidator = invalidation.Multi(invalidators...)
	return nil
}

func (c *Container) configureRepositories() {
	if c.memoryStorage {
		c.articleRepo = content.NewMemoryRepository(content.ArticleKind())
		c.publicationRepo = content.NewMemoryRepository(content.PublicationKind())
		c.memberRepo = content.NewMemoryRepository(content.MemberKind())
		c.categoryRepo = content.NewMemoryRepository(content.CategoryKind())
		return
	}
	c.articleRepo = content.NewBunRepository(c.bunDB, content.ArticleKind())
	c.publicationRepo = content.NewBunRepository(c.bunDB, content.PublicationKind())
	c.memberRepo = content.NewBunRepository(c.bunDB, content.MemberKind())
	c.categoryRepo = content.NewBunRepository(c.bunDB, content.CategoryKind())
}

func (c *Container) configureServices() {
	policy := storage.RetryPolicy{
		Attempts: c.Config.Content.ReadRetries,
		Backoff:  c.Config.Content.ReadBackoff,
		MaxDelay: time.Second,
	}
	serviceOpts := func(kind string, extra ...content.ServiceOption) []content.ServiceOption {
		opts := []content.ServiceOption{
			content.WithLogger(logging.KindLogger(c.loggerProvider, kind)),
			content.WithInvalidator(c.invalidator),
			content.WithSlugRetries(c.Config.Content.SlugRetries),
			content.WithReadRetry(policy),
			content.WithClock(c.clock),
		}
		return append(opts, extra...)
	}
	readerOpts := func(kind string) []content.ReaderOption {
		return []content.ReaderOption{
			content.WithReaderLogger(logging.KindLogger(c.loggerProvider, kind)),
			content.WithReaderRetry(policy),
			content.WithSearchLimit(c.Config.Content.SearchLimit),
		}
	}

	articleKind := content.ArticleKind()
	publicationKind := content.PublicationKind()
	memberKind := content.MemberKind()
	categoryKind := content.CategoryKind()

	c.articles = content.NewService(articleKind, c.articleRepo, c.registry, serviceOpts(articleKind.Name)...)
	c.articles.SetRecordCheck(content.ArticleCategoryCheck(c.categoryRepo))
	c.publications = content.NewService(publicationKind, c.publicationRepo, c.registry, serviceOpts(publicationKind.Name)...)
	c.members = content.NewService(memberKind, c.memberRepo, c.registry, serviceOpts(memberKind.Name)...)
	c.categories = content.NewService(categoryKind, c.categoryRepo, c.registry,
		serviceOpts(categoryKind.Name, content.WithDeleteGuard(content.RestrictCategoryDelete(c.articleRepo)))...)

	c.articleReader = content.NewReader(articleKind, c.articleRepo, c.registry, readerOpts(articleKind.Name)...)
	c.publicationReader = content.NewReader(publicationKind, c.publicationRepo, c.registry, readerOpts(publicationKind.Name)...)
	c.memberReader = content.NewReader(memberKind, c.memberRepo, c.registry, readerOpts(memberKind.Name)...)
	c.categoryReader = content.NewReader(categoryKind, c.categoryRepo, c.registry, readerOpts(categoryKind.Name)...)

	c.searchSvc = search.NewService(c.articleReader, c.publicationReader, c.memberReader,
		search.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.SearchModule)))
}

func (c *Container) configureCommands() error {
	c.articleCommands = contentcmd.NewHandlers("article", c.articles, commands.Logger(c.loggerProvider, "article"))
	c.publicationCommands = contentcmd.NewHandlers("publication", c.publications, commands.Logger(c.loggerProvider, "publication"))
	c.memberCommands = contentcmd.NewHandlers("member", c.members, commands.Logger(c.loggerProvider, "member"))
	c.categoryCommands = contentcmd.NewHandlers("category", c.categories, commands.Logger(c.loggerProvider, "category"))

	if c.commandRegistry == nil {
		return nil
	}
	for _, register := range []func(contentcmd.Registry) error{
		c.articleCommands.Register,
		c.publicationCommands.Register,
		c.memberCommands.Register,
		c.categoryCommands.Register,
	} {
		if err := register(c.commandRegistry); err != nil {
			return fmt.Errorf("portal: register commands: %w", err)
		}
	}
	return nil
}

func (c *Container) storageLabel() string {
	if c.memoryStorage {
		return "memory"
	}
	return c.bunDB.Dialect().Name().String()
}

// Close releases the database pool when the container opened it.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	c.ownsDB = false
	if err := c.bunDB.Close(); err != nil {
		return fmt.Errorf("portal: close storage: %w", err)
	}
	return nil
}

func (c *Container) Registry() *i18n.Registry                   { return c.registry }
func (c *Container) DB() *bun.DB                                { return c.bunDB }
func (c *Container) LoggerProvider() interfaces.LoggerProvider  { return c.loggerProvider }
func (c *Container) CacheService() cache.CacheService           { return c.cacheService }
func (c *Container) Invalidator() interfaces.ListingInvalidator { return c.invalidator }
func (c *Container) Articles() *ArticleService                  { return c.articles }
func (c *Container) Publications() *PublicationService          { return c.publications }
func (c *Container) Members() *MemberService                    { return c.members }
func (c *Container) Categories() *CategoryService               { return c.categories }
func (c *Container) ArticleReader() *ArticleReader              { return c.articleReader }
func (c *Container) PublicationReader() *PublicationReader      { return c.publicationReader }
func (c *Container) MemberReader() *MemberReader                { return c.memberReader }
func (c *Container) CategoryReader() *CategoryReader            { return c.categoryReader }
func (c *Container) Search() *search.Service                    { return c.searchSvc }
func (c *Container) ArticleCommands() ArticleCommands           { return c.articleCommands }
func (c *Container) PublicationCommands() PublicationCommands   { return c.publicationCommands }
func (c *Container) MemberCommands() MemberCommands             { return c.memberCommands }
func (c *Container) CategoryCommands() CategoryCommands         { return c.categoryCommands }
