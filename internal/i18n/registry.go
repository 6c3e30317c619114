package i18n

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

var (
	ErrNoLocales             = errors.New("i18n: at least one locale is required")
	ErrInvalidLocale         = errors.New("i18n: locale code is not a valid language tag")
	ErrDuplicateLocale       = errors.New("i18n: locale listed more than once")
	ErrDefaultLocaleMismatch = errors.New("i18n: default locale is not a supported locale")
)

// Registry is the fixed, ordered set of locales the portal publishes in. It
// is immutable after construction and safe for concurrent use.
type Registry struct {
	codes []string
	index map[string]struct{}
	def   string
}

// NewRegistry canonicalises every code in cfg and validates the set.
func NewRegistry(cfg Config) (*Registry, error) {
	if len(cfg.Locales) == 0 {
		return nil, ErrNoLocales
	}

	r := &Registry{
		codes: make([]string, 0, len(cfg.Locales)),
		index: make(map[string]struct{}, len(cfg.Locales)),
	}
	for _, raw := range cfg.Locales {
		code, err := canonical(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := r.index[code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLocale, code)
		}
		r.index[code] = struct{}{}
		r.codes = append(r.codes, code)
	}

	def, err := canonical(cfg.DefaultLocale)
	if err != nil {
		return nil, err
	}
	if _, ok := r.index[def]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefaultLocaleMismatch, def)
	}
	r.def = def
	return r, nil
}

// MustNewRegistry panics when cfg is invalid.
func MustNewRegistry(cfg Config) *Registry {
	r, err := NewRegistry(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// Codes returns the supported codes in configuration order.
func (r *Registry) Codes() []string {
	return slices.Clone(r.codes)
}

// Default returns the default locale code.
func (r *Registry) Default() string {
	return r.def
}

// Supports reports whether code, once canonicalised, is supported.
func (r *Registry) Supports(code string) bool {
	_, ok := r.Normalize(code)
	return ok
}

// Normalize returns the canonical form of code and whether it is supported.
// Unparsable input is returned trimmed and lowercased.
func (r *Registry) Normalize(code string) (string, bool) {
	canon, err := canonical(code)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(code)), false
	}
	_, ok := r.index[canon]
	return canon, ok
}

// Candidates returns the lookup chain for requested: the exact code when
// supported, its base language when supported, then the default.
func (r *Registry) Candidates(requested string) []string {
	out := make([]string, 0, 3)
	add := func(code string) {
		if _, ok := r.index[code]; ok && !slices.Contains(out, code) {
			out = append(out, code)
		}
	}

	if tag, err := parse(requested); err == nil {
		add(tag.String())
		if base, conf := tag.Base(); conf == language.Exact {
			add(base.String())
		}
	}
	add(r.def)
	return out
}

// Resolve returns the first candidate for requested. It always succeeds
// because the default is supported.
func (r *Registry) Resolve(requested string) string {
	return r.Candidates(requested)[0]
}

func parse(code string) (language.Tag, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return language.Und, fmt.Errorf("%w: empty", ErrInvalidLocale)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrInvalidLocale, code)
	}
	return tag, nil
}

func canonical(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}
