package content

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-portal/internal/i18n"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/internal/slugs"
	"github.com/goliatone/go-portal/internal/storage"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

// DefaultSlugRetries bounds slug reassignment after unique violations.
const DefaultSlugRetries = 3

// CreateRequest carries a new record and its translations. Slug is optional;
// when empty it is derived from the default-locale title.
type CreateRequest[P Record[T], T Translation] struct {
	Record       P
	Slug         string
	Translations []T
}

// UpdateRequest changes the patched parent columns and replaces the whole
// translation set: languages missing from Translations are removed.
type UpdateRequest[P Record[T], T Translation] struct {
	ID             uuid.UUID
	Patch          Patch[P]
	Translations   []T
	RegenerateSlug bool
}

// DeleteGuard vetoes a delete by returning an error.
type DeleteGuard func(ctx context.Context, id uuid.UUID) error

// IDGenerator returns new record identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures a Service at construction time.
type ServiceOption func(*options)

type options struct {
	now         func() time.Time
	id          IDGenerator
	logger      interfaces.Logger
	invalidator interfaces.ListingInvalidator
	assigner    slugs.Assigner
	slugRetries int
	readPolicy  storage.RetryPolicy
	deleteGuard DeleteGuard
}

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(o *options) {
		if clock != nil {
			o.now = clock
		}
	}
}

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(o *options) {
		if generator != nil {
			o.id = generator
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInvalidator receives a signal after every successful mutation.
func WithInvalidator(invalidator interfaces.ListingInvalidator) ServiceOption {
	return func(o *options) {
		if invalidator != nil {
			o.invalidator = invalidator
		}
	}
}

func WithSlugAssigner(assigner slugs.Assigner) ServiceOption {
	return func(o *options) {
		o.assigner = assigner
	}
}

func WithSlugRetries(retries int) ServiceOption {
	return func(o *options) {
		if retries > 0 {
			o.slugRetries = retries
		}
	}
}

// WithReadRetry sets the backoff applied to reads failing with transient
// storage errors.
func WithReadRetry(policy storage.RetryPolicy) ServiceOption {
	return func(o *options) {
		o.readPolicy = policy
	}
}

func WithDeleteGuard(guard DeleteGuard) ServiceOption {
	return func(o *options) {
		o.deleteGuard = guard
	}
}

func newOptions(opts []ServiceOption) options {
	o := options{
		now:         time.Now,
		id:          uuid.New,
		logger:      logging.NoOp(),
		invalidator: noopInvalidator{},
		assigner:    slugs.NewAssigner(),
		slugRetries: DefaultSlugRetries,
		readPolicy:  storage.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Service implements the administrative use-cases for one kind. Reads here
// ignore publication state; public reads go through Reader.
type Service[P Record[T], T Translation] struct {
	kind     Kind[P, T]
	repo     Repository[P, T]
	registry *i18n.Registry
	check    func(ctx context.Context, record P) error
	options
}

// NewService wires a service for kind over repo.
func NewService[P Record[T], T Translation](kind Kind[P, T], repo Repository[P, T], registry *i18n.Registry, opts ...ServiceOption) *Service[P, T] {
	return &Service[P, T]{
		kind:     kind,
		repo:     repo,
		registry: registry,
		options:  newOptions(opts),
	}
}

// SetRecordCheck installs a check run against the record before every write,
// typically to verify references to other kinds. It must be called before the
// service is shared.
func (s *Service[P, T]) SetRecordCheck(check func(ctx context.Context, record P) error) {
	s.check = check
}

// Kind returns the descriptor the service was built with.
func (s *Service[P, T]) Kind() Kind[P, T] {
	return s.kind
}

// Create validates and persists a record with its translations.
func (s *Service[P, T]) Create(ctx context.Context, req CreateRequest[P, T]) (P, error) {
	var zero P
	record := req.Record
	if isNil(record) {
		record = s.kind.NewRecord()
	}

	translations, err := s.prepareTranslations(req.Translations)
	if err != nil {
		return zero, err
	}
	if err := s.validateRecord(ctx, record); err != nil {
		return zero, err
	}

	explicit := ""
	if strings.TrimSpace(req.Slug) != "" {
		explicit = strings.ToLower(strings.TrimSpace(req.Slug))
		if !slugs.IsValid(explicit) {
			return zero, Invalid(s.kind.Name, "slug is invalid", goerrors.FieldError{
				Field:   "slug",
				Message: "must contain lowercase letters, digits and single hyphens",
				Value:   req.Slug,
			})
		}
	}

	now := s.now().UTC()
	if record.GetID() == uuid.Nil {
		record.SetID(s.id())
	}
	record.SetCreatedAt(now)
	record.SetUpdatedAt(now)
	if s.kind.Prepare != nil {
		s.kind.Prepare(record, now)
	}
	for _, tr := range translations {
		if tr.GetID() == uuid.Nil {
			tr.SetID(s.id())
		}
		tr.SetParentID(record.GetID())
		tr.SetCreatedAt(now)
		tr.SetUpdatedAt(now)
	}

	base := explicit
	if base == "" {
		base = s.deriveSlug(translations)
	}

	for attempt := 1; ; attempt++ {
		slug := explicit
		if slug == "" {
			slug, err = s.assignSlug(ctx, base, uuid.Nil)
			if err != nil {
				return zero, err
			}
		} else if owner, taken, err := s.slugOwner(ctx, slug); err != nil {
			return zero, s.storageFailure(ctx, "create", err)
		} else if taken && owner != record.GetID() {
			return zero, Conflict(s.kind.Name, fmt.Sprintf("slug %q already exists", slug))
		}
		record.SetSlug(slug)

		err = s.repo.Create(ctx, record, translations)
		if err == nil {
			break
		}
		if !storage.IsUniqueViolation(err) {
			return zero, s.storageFailure(ctx, "create", err)
		}
		if taken, lookupErr := s.idTaken(ctx, record.GetID()); lookupErr != nil {
			return zero, s.storageFailure(ctx, "create", lookupErr)
		} else if taken {
			return zero, Conflict(s.kind.Name, fmt.Sprintf("id %q already exists", record.GetID()))
		}
		if explicit != "" || attempt >= s.slugRetries {
			s.logger.Warn(s.kind.Name+".slug.conflict", "slug", slug, "attempts", attempt, "error", err)
			return zero, Conflict(s.kind.Name, fmt.Sprintf("slug %q already exists", slug))
		}
		s.logger.Debug(s.kind.Name+".slug.retry", "slug", slug, "attempt", attempt)
	}

	s.logger.Info(s.kind.Name+".created", "id", record.GetID(), "slug", record.GetSlug(), "kind", s.kind.Name)
	s.invalidate(ctx)
	return record, nil
}

// Update applies the patch, replaces the translations and optionally
// re-derives the slug.
func (s *Service[P, T]) Update(ctx context.Context, req UpdateRequest[P, T]) (P, error) {
	var zero P
	if req.ID == uuid.Nil {
		return zero, NotFound(s.kind.Name, req.ID.String())
	}
	translations, err := s.prepareTranslations(req.Translations)
	if err != nil {
		return zero, err
	}

	record, err := s.Get(ctx, req.ID)
	if err != nil {
		return zero, err
	}

	var columns []string
	if req.Patch != nil {
		columns = req.Patch.Apply(record)
	}
	if err := s.validateRecord(ctx, record); err != nil {
		return zero, err
	}

	now := s.now().UTC()
	record.SetUpdatedAt(now)
	if s.kind.Prepare != nil {
		columns = append(columns, s.kind.Prepare(record, now)...)
	}

	previous := make(map[string]T, len(record.GetTranslations()))
	for _, tr := range record.GetTranslations() {
		previous[tr.GetLanguage()] = tr
	}
	for _, tr := range translations {
		tr.SetParentID(record.GetID())
		tr.SetUpdatedAt(now)
		if prev, ok := previous[tr.GetLanguage()]; ok {
			tr.SetID(prev.GetID())
			tr.SetCreatedAt(prev.GetCreatedAt())
			continue
		}
		tr.SetID(s.id())
		tr.SetCreatedAt(now)
	}

	base := ""
	if req.RegenerateSlug {
		base = s.deriveSlug(translations)
		if base != record.GetSlug() {
			columns = append(columns, "slug")
		} else {
			base = ""
		}
	}

	for attempt := 1; ; attempt++ {
		if base != "" {
			slug, err := s.assignSlug(ctx, base, record.GetID())
			if err != nil {
				return zero, err
			}
			record.SetSlug(slug)
		}

		err = s.repo.Update(ctx, record, columns, translations)
		if err == nil {
			break
		}
		if IsNotFound(err) {
			return zero, err
		}
		if !storage.IsUniqueViolation(err) {
			return zero, s.storageFailure(ctx, "update", err)
		}
		if base == "" || attempt >= s.slugRetries {
			return zero, Conflict(s.kind.Name, fmt.Sprintf("slug %q already exists", record.GetSlug()))
		}
	}

	s.logger.Info(s.kind.Name+".updated", "id", record.GetID(), "slug", record.GetSlug(), "kind", s.kind.Name, "columns", columns)
	s.invalidate(ctx)
	return record, nil
}

// Delete removes the record and all of its translations.
func (s *Service[P, T]) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return NotFound(s.kind.Name, id.String())
	}
	if s.deleteGuard != nil {
		if err := s.deleteGuard(ctx, id); err != nil {
			return s.classify(ctx, "delete", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return err
		}
		return s.storageFailure(ctx, "delete", err)
	}

	s.logger.Info(s.kind.Name+".deleted", "id", id, "kind", s.kind.Name)
	s.invalidate(ctx)
	return nil
}

// Get returns a record regardless of its publication state.
func (s *Service[P, T]) Get(ctx context.Context, id uuid.UUID) (P, error) {
	var record P
	err := storage.Retry(ctx, s.readPolicy, func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return record, s.classify(ctx, "get", err)
	}
	return record, nil
}

func (s *Service[P, T]) GetBySlug(ctx context.Context, slug string) (P, error) {
	var record P
	err := storage.Retry(ctx, s.readPolicy, func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
		return err
	})
	if err != nil {
		return record, s.classify(ctx, "get", err)
	}
	return record, nil
}

// List returns records in kind order with the total before paging.
func (s *Service[P, T]) List(ctx context.Context, opts ListOptions) ([]P, int, error) {
	var (
		records []P
		total   int
	)
	err := storage.Retry(ctx, s.readPolicy, func(ctx context.Context) error {
		var err error
		records, total, err = s.repo.List(ctx, opts)
		return err
	})
	if err != nil {
		return nil, 0, s.classify(ctx, "list", err)
	}
	return records, total, nil
}

// Count returns how many records match filters.
func (s *Service[P, T]) Count(ctx context.Context, filters ...Filter) (int, error) {
	var total int
	err := storage.Retry(ctx, s.readPolicy, func(ctx context.Context) error {
		var err error
		total, err = s.repo.Count(ctx, filters...)
		return err
	})
	if err != nil {
		return 0, s.classify(ctx, "count", err)
	}
	return total, nil
}

// prepareTranslations canonicalises languages and validates every row.
func (s *Service[P, T]) prepareTranslations(in []T) ([]T, error) {
	if len(in) == 0 {
		return nil, Invalid(s.kind.Name, "at least one translation is required", goerrors.FieldError{
			Field:   "translations",
			Message: "cannot be empty",
		})
	}

	var fields []goerrors.FieldError
	seen := make(map[string]int, len(in))
	out := make([]T, 0, len(in))
	for i, tr := range in {
		prefix := fmt.Sprintf("translations[%d]", i)
		if isNil(tr) {
			fields = append(fields, goerrors.FieldError{Field: prefix, Message: "is required"})
			continue
		}

		code, ok := s.registry.Normalize(tr.GetLanguage())
		switch {
		case strings.TrimSpace(tr.GetLanguage()) == "":
			fields = append(fields, goerrors.FieldError{Field: prefix + ".language", Message: "is required"})
		case !ok:
			fields = append(fields, goerrors.FieldError{
				Field:   prefix + ".language",
				Message: "is not a supported locale",
				Value:   tr.GetLanguage(),
			})
		default:
			if first, dup := seen[code]; dup {
				fields = append(fields, goerrors.FieldError{
					Field:   prefix + ".language",
					Message: fmt.Sprintf("duplicates translations[%d]", first),
					Value:   code,
				})
			} else {
				seen[code] = i
			}
			tr.SetLanguage(code)
		}

		nested, err := fieldErrors(prefix, tr.Validate())
		if err != nil {
			return nil, err
		}
		fields = append(fields, nested...)
		out = append(out, tr)
	}

	if len(fields) > 0 {
		return nil, Invalid(s.kind.Name, "invalid translations", fields...)
	}
	return out, nil
}

func (s *Service[P, T]) validateRecord(ctx context.Context, record P) error {
	fields, err := fieldErrors("", record.Validate())
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return Invalid(s.kind.Name, "invalid "+s.kind.Name, fields...)
	}
	if s.check != nil {
		if err := s.check(ctx, record); err != nil {
			return s.classify(ctx, "check", err)
		}
	}
	return nil
}

// classify passes categorised errors through and sanitises the rest.
func (s *Service[P, T]) classify(ctx context.Context, op string, err error) error {
	if IsConflict(err) || IsNotFound(err) || IsValidation(err) {
		return err
	}
	return s.storageFailure(ctx, op, err)
}

// deriveSlug slugifies the default-locale label, else the first one. The kind
// name stands in when nothing transliterates.
func (s *Service[P, T]) deriveSlug(translations []T) string {
	source := translations[0].Label()
	for _, tr := range translations {
		if tr.GetLanguage() == s.registry.Default() {
			source = tr.Label()
			break
		}
	}
	if base := slugs.Slugify(source); base != "" {
		return base
	}
	return s.kind.Name
}

func (s *Service[P, T]) assignSlug(ctx context.Context, base string, self uuid.UUID) (string, error) {
	slug, err := s.assigner.Assign(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		owner, taken, err := s.slugOwner(ctx, candidate)
		if err != nil {
			return false, err
		}
		return taken && owner != self, nil
	})
	switch {
	case err == nil:
		return slug, nil
	case errors.Is(err, slugs.ErrExhausted):
		return "", Conflict(s.kind.Name, fmt.Sprintf("no free slug for %q", base))
	default:
		return "", s.storageFailure(ctx, "slug assignment", err)
	}
}

// idTaken reports whether a record with id is already stored.
func (s *Service[P, T]) idTaken(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service[P, T]) slugOwner(ctx context.Context, slug string) (uuid.UUID, bool, error) {
	var (
		owner uuid.UUID
		taken bool
	)
	err := storage.Retry(ctx, s.readPolicy, func(ctx context.Context) error {
		var err error
		owner, taken, err = s.repo.SlugOwner(ctx, slug)
		return err
	})
	return owner, taken, err
}

// storageFailure logs the backend error and returns a sanitised one.
func (s *Service[P, T]) storageFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.WithContext(ctx).Error(s.kind.Name+".storage.failed", "operation", op, "error", err)
	return StorageFailure(s.kind.Name, op)
}

func (s *Service[P, T]) invalidate(ctx context.Context) {
	if err := s.invalidator.InvalidateListings(ctx, s.kind.Name); err != nil {
		s.logger.Warn(s.kind.Name+".invalidate.failed", "error", err)
	}
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateListings(context.Context, string) error { return nil }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
