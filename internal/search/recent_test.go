package search

import (
	"fmt"
	"testing"

	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/logging"
	"github.com/mmcdole/suasor/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRecentSearchDedupesAndCaps(t *testing.T) {
	e, _, db := newEngine(t)

	for i := 0; i < 12; i++ {
		e.SaveRecentSearch(fmt.Sprintf("q%d", i))
	}
	e.SaveRecentSearch("q5")
	e.SaveRecentSearch("   ")

	recent := e.State().Data().RecentSearches
	assert.Len(t, recent, 10)
	assert.Equal(t, "q5", recent[0])
	assert.Equal(t, "q11", recent[1])
	assert.NotContains(t, recent, "q0")

	raw, ok := db.Get(KeyRecentSearches)
	require.True(t, ok)
	assert.Contains(t, raw, `"q5"`)

	// a fresh engine restores them
	again := New(e.api, db, state.Options{Logger: logging.Discard()})
	t.Cleanup(again.Close)
	again.Initialize()
	assert.Equal(t, recent, again.State().Data().RecentSearches)
}

func TestRecentSearchesAsResults(t *testing.T) {
	e, _, _ := newEngine(t)
	e.SaveRecentSearch("dune")

	results := e.Results()
	require.Len(t, results, 1)
	assert.Equal(t, domain.SearchResultItem{
		ID:       "recent-dune",
		Title:    "dune",
		Type:     domain.ResultTypeRecent,
		Source:   domain.SourceRecent,
		Subtitle: "Recent search",
	}, results[0])

	e.ClearRecentSearches()
	assert.Empty(t, e.Results())
}

func TestMatchRecent(t *testing.T) {
	e, _, _ := newEngine(t)
	for _, q := range []string{"alien", "Dune", "dune part two", "heat"} {
		e.SaveRecentSearch(q)
	}

	got := e.MatchRecent("dune")
	assert.Equal(t, []string{"Dune", "dune part two"}, got)
	assert.Len(t, e.MatchRecent(""), 4)
	assert.Empty(t, e.MatchRecent("xyz"))
}

func TestInitializeIgnoresCorruptValue(t *testing.T) {
	e, _, db := newEngine(t)
	require.NoError(t, db.Set(KeyRecentSearches, "not json"))

	e.Initialize()
	assert.Empty(t, e.State().Data().RecentSearches)
}
