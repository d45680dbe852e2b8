package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/varoOP/playshelf/internal/domain"
)

// Match is one search hit with the matched title positions.
type Match struct {
	Item           domain.Item
	MatchedIndexes []int
	Score          int
}

// titleIndex implements fuzzy.Source over lowercase titles.
type titleIndex struct {
	items []domain.Item
	lower []string
}

func (idx *titleIndex) String(i int) string { return idx.lower[i] }

func (idx *titleIndex) Len() int { return len(idx.items) }

// Search ranks items by fuzzy title match, best first. An empty query
// matches nothing.
func Search(items []domain.Item, query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	idx := &titleIndex{items: items, lower: make([]string, len(items))}
	for i, it := range items {
		idx.lower[i] = strings.ToLower(it.Title)
	}

	matches := fuzzy.FindFrom(query, idx)
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, Match{
			Item:           items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}
	return out
}
