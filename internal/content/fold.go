package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchIndex is embedded by every translation model. SearchFolded keeps the
// searchable fields in folded form so SQL backends match with a plain LIKE.
type SearchIndex struct {
	SearchFolded string `bun:"search_folded" json:"-"`
}

func (s *SearchIndex) GetSearchFolded() string  { return s.SearchFolded }
func (s *SearchIndex) SetSearchFolded(v string) { s.SearchFolded = v }

// Fold lowercases value and strips combining marks, so "Étude" and "ETUDE"
// both become "etude". Scripts without case are only stripped of marks.
func Fold(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(value))
	if err != nil {
		return strings.ToLower(value)
	}
	return folded
}

// searchDocument folds the searchable columns of tr, one per line.
func searchDocument[T Translation](tr T, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		if value := strings.TrimSpace(tr.LocalizedField(column)); value != "" {
			parts = append(parts, Fold(value))
		}
	}
	return strings.Join(parts, "\n")
}
