// Package search runs one public search across articles, publications and
// members.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-portal/internal/content"
	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

type (
	ArticleHit     = content.Localized[*content.Article, *content.ArticleTranslation]
	PublicationHit = content.Localized[*content.Publication, *content.PublicationTranslation]
	MemberHit      = content.Localized[*content.Member, *content.MemberTranslation]
)

// Searcher is the read side a group is served from. content.Reader
// satisfies it.
type Searcher[H any] interface {
	Search(ctx context.Context, locale, term string) ([]H, error)
}

// Results groups hits per kind. Each group is capped independently.
type Results struct {
	Term         string           `json:"term"`
	Locale       string           `json:"locale"`
	Articles     []ArticleHit     `json:"articles"`
	Publications []PublicationHit `json:"publications"`
	Members      []MemberHit      `json:"members"`
}

// Total returns the number of hits across groups.
func (r Results) Total() int {
	return len(r.Articles) + len(r.Publications) + len(r.Members)
}

// Empty reports whether no group matched.
func (r Results) Empty() bool {
	return r.Total() == 0
}

type Service struct {
	articles     Searcher[ArticleHit]
	publications Searcher[PublicationHit]
	members      Searcher[MemberHit]
	logger       interfaces.Logger
}

type Option func(*Service)

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(articles Searcher[ArticleHit], publications Searcher[PublicationHit], members Searcher[MemberHit], opts ...Option) *Service {
	s := &Service{
		articles:     articles,
		publications: publications,
		members:      members,
		logger:       logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Search queries each kind in turn and stops at the first failure. A blank
// term returns empty groups without touching storage.
func (s *Service) Search(ctx context.Context, locale, term string) (Results, error) {
	term = strings.TrimSpace(term)
	results := Results{
		Term:         term,
		Locale:       locale,
		Articles:     []ArticleHit{},
		Publications: []PublicationHit{},
		Members:      []MemberHit{},
	}
	if term == "" {
		return results, nil
	}

	started := time.Now()
	var err error
	if results.Articles, err = run(ctx, s.articles, locale, term); err != nil {
		return Results{}, err
	}
	if results.Publications, err = run(ctx, s.publications, locale, term); err != nil {
		return Results{}, err
	}
	if results.Members, err = run(ctx, s.members, locale, term); err != nil {
		return Results{}, err
	}

	s.logger.WithContext(ctx).Debug("search.completed",
		"locale", locale,
		"term", term,
		"articles", len(results.Articles),
		"publications", len(results.Publications),
		"members", len(results.Members),
		"duration", time.Since(started).String(),
	)
	return results, nil
}

func run[H any](ctx context.Context, searcher Searcher[H], locale, term string) ([]H, error) {
	if searcher == nil {
		return []H{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits, err := searcher.Search(ctx, locale, term)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []H{}
	}
	return hits, nil
}
