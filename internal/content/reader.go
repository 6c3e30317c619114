package content

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-portal/internal/i18n"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/internal/storage"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

// Localized is a record paired with the translation chosen for a request.
type Localized[P Record[T], T Translation] struct {
	Record      P
	Translation T
	// Locale is the language of Translation.
	Locale string
	// Requested is the canonical form of the requested locale.
	Requested string
	// Found is false when no candidate locale had a translation and
	// Translation is blank.
	Found bool
	// Fallback is true when Locale differs from Requested.
	Fallback bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

type readerOptions struct {
	logger     interfaces.Logger
	readPolicy storage.RetryPolicy
	limit      int
}

func WithReaderLogger(logger interfaces.Logger) ReaderOption {
	return func(o *readerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithReaderRetry(policy storage.RetryPolicy) ReaderOption {
	return func(o *readerOptions) {
		o.readPolicy = policy
	}
}

// WithSearchLimit overrides the kind's search cap.
func WithSearchLimit(limit int) ReaderOption {
	return func(o *readerOptions) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// Reader serves public, locale-aware reads. Unpublished records are not
// visible through it.
type Reader[P Record[T], T Translation] struct {
	kind     Kind[P, T]
	repo     Repository[P, T]
	registry *i18n.Registry
	readerOptions
}

func NewReader[P Record[T], T Translation](kind Kind[P, T], repo Repository[P, T], registry *i18n.Registry, opts ...ReaderOption) *Reader[P, T] {
	o := readerOptions{
		logger:     logging.NoOp(),
		readPolicy: storage.DefaultRetryPolicy(),
		limit:      kind.SearchLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Reader[P, T]{kind: kind, repo: repo, registry: registry, readerOptions: o}
}

// Get returns a published record resolved for locale.
func (r *Reader[P, T]) Get(ctx context.Context, id uuid.UUID, locale string) (*Localized[P, T], error) {
	return r.one(ctx, id.String(), locale, func(ctx context.Context) (P, error) {
		return r.repo.GetByID(ctx, id)
	})
}

// GetBySlug returns a published record resolved for locale.
func (r *Reader[P, T]) GetBySlug(ctx context.Context, slug, locale string) (*Localized[P, T], error) {
	slug = strings.TrimSpace(slug)
	return r.one(ctx, slug, locale, func(ctx context.Context) (P, error) {
		return r.repo.GetBySlug(ctx, slug)
	})
}

func (r *Reader[P, T]) one(ctx context.Context, key, locale string, load func(context.Context) (P, error)) (*Localized[P, T], error) {
	var record P
	err := storage.Retry(ctx, r.readPolicy, func(ctx context.Context) error {
		var err error
		record, err = load(ctx)
		return err
	})
	if err != nil {
		return nil, r.failure(ctx, "get", err)
	}
	if !record.Visible() {
		return nil, NotFound(r.kind.Name, key)
	}
	localized := r.Resolve(record, locale)
	return &localized, nil
}

// List returns published records, each resolved for locale, and the total
// before paging.
func (r *Reader[P, T]) List(ctx context.Context, locale string, opts ListOptions) ([]Localized[P, T], int, error) {
	opts.OnlyVisible = true
	var (
		records []P
		total   int
	)
	err := storage.Retry(ctx, r.readPolicy, func(ctx context.Context) error {
		var err error
		records, total, err = r.repo.List(ctx, opts)
		return err
	})
	if err != nil {
		return nil, 0, r.failure(ctx, "list", err)
	}
	return r.resolveAll(records, locale), total, nil
}

// Search matches term case-insensitively against the localized fields of a
// single locale: the requested one when supported, otherwise its base
// language or the default. A blank term returns no results.
func (r *Reader[P, T]) Search(ctx context.Context, locale, term string) ([]Localized[P, T], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Localized[P, T]{}, nil
	}
	scope := r.registry.Resolve(locale)

	var records []P
	err := storage.Retry(ctx, r.readPolicy, func(ctx context.Context) error {
		var err error
		records, err = r.repo.Search(ctx, scope, term, r.limit, true)
		return err
	})
	if err != nil {
		return nil, r.failure(ctx, "search", err)
	}
	return r.resolveAll(records, locale), nil
}

// Resolve picks the translation of record for locale following the registry
// fallback chain, a blank locale meaning the default. Translations in
// unsupported languages are skipped. When no candidate matches, Translation
// is blank and Found is false.
func (r *Reader[P, T]) Resolve(record P, locale string) Localized[P, T] {
	requested, _ := r.registry.Normalize(locale)
	if requested == "" {
		requested = r.registry.Default()
	}
	byLanguage := make(map[string]T, len(record.GetTranslations()))
	for _, tr := range record.GetTranslations() {
		code, ok := r.registry.Normalize(tr.GetLanguage())
		if !ok {
			continue
		}
		if _, dup := byLanguage[code]; !dup {
			byLanguage[code] = tr
		}
	}

	for _, candidate := range r.registry.Candidates(locale) {
		if tr, ok := byLanguage[candidate]; ok {
			return Localized[P, T]{
				Record:      record,
				Translation: tr,
				Locale:      candidate,
				Requested:   requested,
				Found:       true,
				Fallback:    candidate != requested,
			}
		}
	}

	blank := r.kind.NewTranslation()
	blank.SetLanguage(requested)
	blank.SetParentID(record.GetID())
	return Localized[P, T]{
		Record:      record,
		Translation: blank,
		Locale:      requested,
		Requested:   requested,
	}
}

func (r *Reader[P, T]) resolveAll(records []P, locale string) []Localized[P, T] {
	out := make([]Localized[P, T], 0, len(records))
	for _, record := range records {
		out = append(out, r.Resolve(record, locale))
	}
	return out
}

func (r *Reader[P, T]) failure(ctx context.Context, op string, err error) error {
	if IsNotFound(err) || IsValidation(err) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.logger.WithContext(ctx).Error(r.kind.Name+".read.failed", "operation", op, "error", err)
	return StorageFailure(r.kind.Name, op)
}
