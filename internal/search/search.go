package search

import (
	"slices"
	"strings"

	"github.com/mmcdole/suasor/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Filter returns the items that pass every set filter. Year and rating bounds exclude
// items without a year or rating. The input is not modified.
func Filter(items []domain.SearchResultItem, f domain.SearchFilters) []domain.SearchResultItem {
	out := make([]domain.SearchResultItem, 0, len(items))
	for _, it := range items {
		if matches(it, f) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it domain.SearchResultItem, f domain.SearchFilters) bool {
	if f.MediaType != "" && f.MediaType != domain.MediaTypeAll && it.Type != f.MediaType {
		return false
	}
	if y := f.Year; y != nil {
		if y.Min != 0 && (it.Year == 0 || it.Year < y.Min) {
			return false
		}
		if y.Max != 0 && (it.Year == 0 || it.Year > y.Max) {
			return false
		}
	}
	if len(f.Genres) > 0 && !slices.ContainsFunc(f.Genres, func(g string) bool { return slices.Contains(it.Genres, g) }) {
		return false
	}
	if r := f.Rating; r != nil {
		if r.Min != 0 && (it.Rating == 0 || it.Rating < r.Min) {
			return false
		}
		if r.Max != 0 && (it.Rating == 0 || it.Rating > r.Max) {
			return false
		}
	}
	if f.InLibrary != nil && (it.InLibrary == nil || *it.InLibrary != *f.InLibrary) {
		return false
	}
	return true
}

// Match is a QuickFilter hit with the title positions that matched, for highlighting
type Match struct {
	Item           domain.SearchResultItem
	MatchedIndexes []int
	Score          int
}

// titleIndex implements fuzzy.Source over lowercase titles
type titleIndex struct {
	items  []domain.SearchResultItem
	titles []string
}

func newTitleIndex(items []domain.SearchResultItem) *titleIndex {
	idx := &titleIndex{items: items, titles: make([]string, len(items))}
	for i, it := range items {
		idx.titles[i] = strings.ToLower(it.Title)
	}
	return idx
}

func (idx *titleIndex) String(i int) string { return idx.titles[i] }

func (idx *titleIndex) Len() int { return len(idx.items) }

// QuickFilter narrows the current results in memory, best match first. An empty text
// returns every result unranked.
func (e *Engine) QuickFilter(text string) []Match {
	return rank(e.Results(), text)
}

func rank(items []domain.SearchResultItem, text string) []Match {
	text = strings.TrimSpace(text)
	if text == "" {
		out := make([]Match, len(items))
		for i, it := range items {
			out[i] = Match{Item: it}
		}
		return out
	}

	found := fuzzy.FindFrom(strings.ToLower(text), newTitleIndex(items))
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{Item: items[m.Index], MatchedIndexes: m.MatchedIndexes, Score: m.Score}
	}
	return out
}
