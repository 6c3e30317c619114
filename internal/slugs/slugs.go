// Package slugs derives URL-safe identifiers from titles and picks the first
// free variant of a base slug.
package slugs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/mozillazg/go-unidecode"
)

// DefaultMaxSuffix bounds the numeric suffixes Assign tries.
const DefaultMaxSuffix = 1000

var (
	ErrEmptyBase = errors.New("slugs: base slug is empty")
	ErrExhausted = errors.New("slugs: no free slug variant")
)

var (
	validPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	invalidRuns  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify transliterates title to ASCII and reduces it to lowercase letters,
// digits and single hyphens. The result may be empty when title has no
// transliterable characters.
func Slugify(title string) string {
	ascii := unidecode.Unidecode(strings.TrimSpace(title))
	if normalized, err := slug.Normalize(ascii); err == nil && normalized != "" {
		ascii = normalized
	}
	return strings.Trim(invalidRuns.ReplaceAllString(strings.ToLower(ascii), "-"), "-")
}

// IsValid reports whether value is a non-empty strict slug.
func IsValid(value string) bool {
	return validPattern.MatchString(value)
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Assigner picks a free slug for a base value.
//
// Assign is a check followed by a later insert by the caller and is not
// atomic. Two concurrent callers may pick the same slug; the storage unique
// index rejects the second insert and the caller retries.
type Assigner struct {
	MaxSuffix int
}

// NewAssigner returns an Assigner using DefaultMaxSuffix.
func NewAssigner() Assigner {
	return Assigner{MaxSuffix: DefaultMaxSuffix}
}

// Assign returns base when free, otherwise base-1, base-2, ... up to
// MaxSuffix.
func (a Assigner) Assign(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	if base == "" {
		return "", ErrEmptyBase
	}
	limit := a.MaxSuffix
	if limit <= 0 {
		limit = DefaultMaxSuffix
	}

	for n := 0; n <= limit; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := base
		if n > 0 {
			candidate = base + "-" + strconv.Itoa(n)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slugs: check %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s (tried %d suffixes)", ErrExhausted, base, limit)
}
