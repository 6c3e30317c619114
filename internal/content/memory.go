package content

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-portal/internal/storage"
)

// MemoryRepository keeps records in process. It enforces the same unique keys
// as the SQL schema and is safe for concurrent use.
type MemoryRepository[P Record[T], T Translation] struct {
	mu      sync.RWMutex
	kind    Kind[P, T]
	records map[uuid.UUID]P
	faults  map[string][]error
}

var _ Repository[*Member, *MemberTranslation] = (*MemoryRepository[*Member, *MemberTranslation])(nil)

func NewMemoryRepository[P Record[T], T Translation](kind Kind[P, T]) *MemoryRepository[P, T] {
	return &MemoryRepository[P, T]{
		kind:    kind,
		records: make(map[uuid.UUID]P),
		faults:  make(map[string][]error),
	}
}

// FailNext queues err as the result of the next call to op ("create",
// "get", "list", "search", "update", "delete", "slug", "count").
func (r *MemoryRepository[P, T]) FailNext(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[op] = append(r.faults[op], err)
}

func (r *MemoryRepository[P, T]) fault(op string) error {
	queue := r.faults[op]
	if len(queue) == 0 {
		return nil
	}
	r.faults[op] = queue[1:]
	return queue[0]
}

func (r *MemoryRepository[P, T]) Create(_ context.Context, record P, translations []T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("create"); err != nil {
		return err
	}

	if _, exists := r.records[record.GetID()]; exists {
		return fmt.Errorf("%s: id %s: %w", r.kind.Name, record.GetID(), storage.ErrUniqueViolation)
	}
	if err := r.checkSlug(record.GetID(), record.GetSlug()); err != nil {
		return err
	}
	if err := r.checkLanguages(translations); err != nil {
		return err
	}

	record.SetTranslations(translations)
	r.records[record.GetID()] = r.kind.Clone(record)
	return nil
}

func (r *MemoryRepository[P, T]) GetByID(_ context.Context, id uuid.UUID) (P, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero P
	if err := r.fault("get"); err != nil {
		return zero, err
	}
	record, ok := r.records[id]
	if !ok {
		return zero, NotFound(r.kind.Name, id.String())
	}
	return r.kind.Clone(record), nil
}

func (r *MemoryRepository[P, T]) GetBySlug(_ context.Context, slug string) (P, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero P
	if err := r.fault("get"); err != nil {
		return zero, err
	}
	for _, record := range r.records {
		if record.GetSlug() == slug {
			return r.kind.Clone(record), nil
		}
	}
	return zero, NotFound(r.kind.Name, slug)
}

func (r *MemoryRepository[P, T]) SlugOwner(_ context.Context, slug string) (uuid.UUID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("slug"); err != nil {
		return uuid.Nil, false, err
	}
	for id, record := range r.records {
		if record.GetSlug() == slug {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (r *MemoryRepository[P, T]) List(_ context.Context, opts ListOptions) ([]P, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("list"); err != nil {
		return nil, 0, err
	}

	matched, err := r.filter(opts.Filters, opts.OnlyVisible)
	if err != nil {
		return nil, 0, err
	}
	total := len(matched)

	if opts.Offset > 0 {
		matched = matched[min(opts.Offset, len(matched)):]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return r.cloneAll(matched), total, nil
}

func (r *MemoryRepository[P, T]) Count(_ context.Context, filters ...Filter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("count"); err != nil {
		return 0, err
	}
	matched, err := r.filter(filters, false)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (r *MemoryRepository[P, T]) Search(_ context.Context, locale, term string, limit int, onlyVisible bool) ([]P, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("search"); err != nil {
		return nil, err
	}

	needle := Fold(term)
	candidates, err := r.filter(nil, onlyVisible)
	if err != nil {
		return nil, err
	}

	var out []P
	for _, record := range candidates {
		if r.matches(record, locale, needle) {
			out = append(out, record)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return r.cloneAll(out), nil
}

func (r *MemoryRepository[P, T]) matches(record P, locale, needle string) bool {
	for _, tr := range record.GetTranslations() {
		if tr.GetLanguage() != locale {
			continue
		}
		for _, column := range r.kind.SearchColumns {
			if strings.Contains(Fold(tr.LocalizedField(column)), needle) {
				return true
			}
		}
	}
	return false
}

func (r *MemoryRepository[P, T]) Update(_ context.Context, record P, _ []string, translations []T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("update"); err != nil {
		return err
	}

	id := record.GetID()
	current, ok := r.records[id]
	if !ok {
		return NotFound(r.kind.Name, id.String())
	}
	if err := r.checkSlug(id, record.GetSlug()); err != nil {
		return err
	}
	if err := r.checkLanguages(translations); err != nil {
		return err
	}

	previous := make(map[string]T, len(current.GetTranslations()))
	for _, tr := range current.GetTranslations() {
		previous[tr.GetLanguage()] = tr
	}
	for _, tr := range translations {
		tr.SetParentID(id)
		if prev, ok := previous[tr.GetLanguage()]; ok {
			tr.SetID(prev.GetID())
			tr.SetCreatedAt(prev.GetCreatedAt())
		}
	}

	record.SetCreatedAt(current.GetCreatedAt())
	record.SetTranslations(translations)
	r.records[id] = r.kind.Clone(record)
	return nil
}

func (r *MemoryRepository[P, T]) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault("delete"); err != nil {
		return err
	}
	if _, ok := r.records[id]; !ok {
		return NotFound(r.kind.Name, id.String())
	}
	delete(r.records, id)
	return nil
}

func (r *MemoryRepository[P, T]) checkSlug(id uuid.UUID, slug string) error {
	for otherID, other := range r.records {
		if otherID != id && other.GetSlug() == slug {
			return fmt.Errorf("%s: slug %q: %w", r.kind.Name, slug, storage.ErrUniqueViolation)
		}
	}
	return nil
}

func (r *MemoryRepository[P, T]) checkLanguages(translations []T) error {
	seen := make(map[string]struct{}, len(translations))
	for _, tr := range translations {
		if _, dup := seen[tr.GetLanguage()]; dup {
			return fmt.Errorf("%s: translation %s: %w", r.kind.Name, tr.GetLanguage(), storage.ErrUniqueViolation)
		}
		seen[tr.GetLanguage()] = struct{}{}
	}
	return nil
}

// filter returns matching records in kind order. Callers hold the lock.
func (r *MemoryRepository[P, T]) filter(filters []Filter, onlyVisible bool) ([]P, error) {
	probe := r.kind.NewRecord()
	for _, f := range filters {
		if _, ok := probe.FieldValue(f.Column); !ok {
			return nil, Invalid(r.kind.Name, fmt.Sprintf("cannot filter on %q", f.Column))
		}
	}

	out := make([]P, 0, len(r.records))
	for _, record := range r.records {
		if onlyVisible && !record.Visible() {
			continue
		}
		if matchesFilters(record, filters) {
			out = append(out, record)
		}
	}
	slices.SortStableFunc(out, func(a, b P) int {
		switch {
		case r.kind.Less != nil && r.kind.Less(a, b):
			return -1
		case r.kind.Less != nil && r.kind.Less(b, a):
			return 1
		default:
			return strings.Compare(a.GetID().String(), b.GetID().String())
		}
	})
	return out, nil
}

func (r *MemoryRepository[P, T]) cloneAll(records []P) []P {
	out := make([]P, 0, len(records))
	for _, record := range records {
		out = append(out, r.kind.Clone(record))
	}
	return out
}

func matchesFilters[P Record[T], T Translation](record P, filters []Filter) bool {
	for _, f := range filters {
		value, _ := record.FieldValue(f.Column)
		if !sameValue(value, f.Value) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ptr, ok := b.(*uuid.UUID); ok {
		if ptr == nil {
			return false
		}
		b = *ptr
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
