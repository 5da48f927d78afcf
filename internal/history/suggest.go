package history

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultSuggestLimit is used when Suggest is called with a limit <= 0
const DefaultSuggestLimit = 10

// Suggest returns up to limit history entries for prefix. Entries starting
// with prefix come first in history order, followed by entries whose
// Jaro-Winkler similarity to prefix reaches the store threshold, best first.
// Matching ignores case.
func (s *Store) Suggest(prefix string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	entries := s.Entries()

	needle := strings.ToLower(strings.TrimSpace(prefix))
	if needle == "" {
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries
	}

	type scored struct {
		text  string
		score float64
	}

	suggestions := make([]string, 0, limit)
	var fuzzy []scored
	for _, entry := range entries {
		lower := strings.ToLower(entry)
		if strings.HasPrefix(lower, needle) {
			suggestions = append(suggestions, entry)
			continue
		}
		if score := similarity(needle, lower); score >= s.threshold {
			fuzzy = append(fuzzy, scored{entry, score})
		}
	}

	sort.SliceStable(fuzzy, func(i, j int) bool {
		return fuzzy[i].score > fuzzy[j].score
	})
	for _, f := range fuzzy {
		suggestions = append(suggestions, f.text)
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
