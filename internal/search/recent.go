package search

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/suasor/internal/domain"
)

const (
	// KeyRecentSearches is the KV key holding recent queries as a JSON array
	KeyRecentSearches = "suasor_recent_searches"

	maxRecentSearches = 10
)

// Initialize restores recent searches from the KV store
func (e *Engine) Initialize() {
	recent := []string{}
	if raw, ok := e.kv.Get(KeyRecentSearches); ok {
		if err := json.Unmarshal([]byte(raw), &recent); err != nil {
			e.logger.Warn("ignoring unreadable recent searches", "error", err)
			recent = []string{}
		}
	}
	e.state.Update(func(st State) State {
		st.RecentSearches = recent
		return st
	})
}

// SaveRecentSearch moves query to the front of the recent searches, dropping duplicates
// and keeping at most ten. Blank queries are ignored.
func (e *Engine) SaveRecentSearch(query string) {
	if strings.TrimSpace(query) == "" {
		return
	}

	var updated []string
	e.state.Update(func(st State) State {
		updated = make([]string, 0, maxRecentSearches)
		updated = append(updated, query)
		for _, q := range st.RecentSearches {
			if q != query && len(updated) < maxRecentSearches {
				updated = append(updated, q)
			}
		}
		st.RecentSearches = updated
		return st
	})

	data, err := json.Marshal(updated)
	if err == nil {
		err = e.kv.Set(KeyRecentSearches, string(data))
	}
	if err != nil {
		e.logger.Error("failed to save recent searches", "error", err)
	}
}

// ClearRecentSearches forgets every recent search
func (e *Engine) ClearRecentSearches() {
	if err := e.kv.Remove(KeyRecentSearches); err != nil {
		e.logger.Error("failed to clear recent searches", "error", err)
	}
	e.state.Update(func(st State) State {
		st.RecentSearches = []string{}
		return st
	})
}

// RecentSearchesAsResults presents the recent searches as result rows
func (e *Engine) RecentSearchesAsResults() []domain.SearchResultItem {
	recent := e.state.Data().RecentSearches
	out := make([]domain.SearchResultItem, 0, len(recent))
	for _, q := range recent {
		out = append(out, domain.SearchResultItem{
			ID:       "recent-" + q,
			Title:    q,
			Type:     domain.ResultTypeRecent,
			Source:   domain.SourceRecent,
			Subtitle: "Recent search",
		})
	}
	return out
}

// MatchRecent returns the recent searches that fuzzily contain text, closest first.
// Ties keep the recency order.
func (e *Engine) MatchRecent(text string) []string {
	recent := e.state.Data().RecentSearches
	if strings.TrimSpace(text) == "" {
		return append([]string(nil), recent...)
	}

	ranks := fuzzy.RankFindNormalizedFold(text, recent)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
