// Package invalidation signals listing caches after content mutations.
package invalidation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

// PrefixDeleter drops every cached key starting with a prefix.
// cache.CacheService satisfies it.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

var _ PrefixDeleter = (cache.CacheService)(nil)

// NewCacheService builds the go-repository-cache service shared by the
// module. A non-positive ttl keeps the library default.
func NewCacheService(ttl time.Duration) (cache.CacheService, error) {
	cfg := cache.DefaultConfig()
	if ttl > 0 {
		cfg.TTL = ttl
	}
	return cache.NewCacheService(cfg)
}

// Prefix returns the key prefix owned by kind.
func Prefix(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind)) + cache.KeySeparator
}

// CacheInvalidator deletes the keys of a kind from a shared cache.
type CacheInvalidator struct {
	cache  PrefixDeleter
	logger interfaces.Logger
}

var _ interfaces.ListingInvalidator = (*CacheInvalidator)(nil)

func NewCacheInvalidator(deleter PrefixDeleter, logger interfaces.Logger) *CacheInvalidator {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &CacheInvalidator{cache: deleter, logger: logger}
}

func (c *CacheInvalidator) InvalidateListings(ctx context.Context, kind string) error {
	if c == nil || c.cache == nil {
		return nil
	}
	if strings.TrimSpace(kind) == "" {
		return errors.New("invalidation: kind is required")
	}
	prefix := Prefix(kind)
	if err := c.cache.DeleteByPrefix(ctx, prefix); err != nil {
		return err
	}
	c.logger.Debug("listings.invalidated", "kind", kind, "prefix", prefix)
	return nil
}

// NoOp returns an invalidator that does nothing.
func NoOp() interfaces.ListingInvalidator {
	return noop{}
}

type noop struct{}

func (noop) InvalidateListings(context.Context, string) error { return nil }

// Multi notifies every invalidator and joins their errors.
func Multi(invalidators ...interfaces.ListingInvalidator) interfaces.ListingInvalidator {
	out := make(multi, 0, len(invalidators))
	for _, inv := range invalidators {
		if inv != nil {
			out = append(out, inv)
		}
	}
	return out
}

type multi []interfaces.ListingInvalidator

func (m multi) InvalidateListings(ctx context.Context, kind string) error {
	var errs []error
	for _, inv := range m {
		if err := inv.InvalidateListings(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every signal it receives.
type Recorder struct {
	mu    sync.Mutex
	kinds []string
}

var _ interfaces.ListingInvalidator = (*Recorder)(nil)

func (r *Recorder) InvalidateListings(_ context.Context, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	return nil
}

// Kinds returns the signalled kinds in order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kinds...)
}

// Reset forgets recorded signals.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = nil
}
