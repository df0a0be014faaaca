package tui

import "github.com/mmcdole/suasor/internal/state"

// StateMsg carries a new search engine snapshot
type StateMsg state.State[searchState]

// debounceMsg fires after typing pauses; stale sequence numbers are ignored
type debounceMsg struct {
	seq int
}

// SearchDoneMsg is sent when every source of a run has settled
type SearchDoneMsg struct {
	Query string
}

// SuggestionsMsg carries query completions
type SuggestionsMsg struct {
	Query       string
	Suggestions []string
}
