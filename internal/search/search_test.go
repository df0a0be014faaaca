package search

import (
	"testing"

	"github.com/mmcdole/suasor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ids(items []domain.SearchResultItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	yes, no := true, false
	items := []domain.SearchResultItem{
		{ID: "a", Type: domain.MediaTypeMovie, Year: 1999, Rating: 8.7, Genres: []string{"sci-fi", "action"}, InLibrary: &yes},
		{ID: "b", Type: domain.MediaTypeMovie, Year: 2021, Rating: 6.1, Genres: []string{"drama"}, InLibrary: &no},
		{ID: "c", Type: domain.MediaTypeSeries, Genres: []string{"drama"}},
		{ID: "d", Type: domain.MediaTypeAlbum, Year: 1971, Rating: 9.1, InLibrary: &yes},
	}

	tests := []struct {
		name    string
		filters domain.SearchFilters
		want    []string
	}{
		{"no filters", domain.SearchFilters{}, []string{"a", "b", "c", "d"}},
		{"all types", domain.DefaultSearchFilters(), []string{"a", "b", "c", "d"}},
		{"media type", domain.SearchFilters{MediaType: domain.MediaTypeMovie}, []string{"a", "b"}},
		{"year min drops unknown year", domain.SearchFilters{Year: &domain.Range[int]{Min: 1990}}, []string{"a", "b"}},
		{"year range", domain.SearchFilters{Year: &domain.Range[int]{Min: 1970, Max: 2000}}, []string{"a", "d"}},
		{"genre intersection", domain.SearchFilters{Genres: []string{"drama", "horror"}}, []string{"b", "c"}},
		{"rating max drops unknown rating", domain.SearchFilters{Rating: &domain.Range[float64]{Max: 9}}, []string{"a", "b"}},
		{"in library", domain.SearchFilters{InLibrary: &yes}, []string{"a", "d"}},
		{"not in library skips unknown", domain.SearchFilters{InLibrary: &no}, []string{"b"}},
		{"combined", domain.SearchFilters{MediaType: domain.MediaTypeMovie, Rating: &domain.Range[float64]{Min: 7}}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(items, tt.filters)))
		})
	}
}

func TestRank(t *testing.T) {
	items := []domain.SearchResultItem{
		{ID: "1", Title: "Mr. Robot"},
		{ID: "2", Title: "The Matrix"},
		{ID: "3", Title: "Robocop"},
	}

	got := rank(items, "robo")
	assert.ElementsMatch(t, []string{"1", "3"}, []string{got[0].Item.ID, got[1].Item.ID})
	assert.Len(t, got, 2)
	assert.NotEmpty(t, got[0].MatchedIndexes)

	assert.Len(t, rank(items, ""), 3)
	assert.Empty(t, rank(items, "zzz"))
}
