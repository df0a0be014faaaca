package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/suasor/internal/search"
	"github.com/mmcdole/suasor/internal/state"
)

type searchState = search.State

// Command factories for async operations

// DebounceCmd waits for typing to pause before searching
func DebounceCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

// SearchCmd runs the engine's current query. The run is abandoned when ctx is cancelled.
func SearchCmd(ctx context.Context, engine *search.Engine, query string) tea.Cmd {
	return func() tea.Msg {
		engine.Search(ctx)
		return SearchDoneMsg{Query: query}
	}
}

// SuggestionsCmd fetches completions for the current query
func SuggestionsCmd(ctx context.Context, engine *search.Engine, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return SuggestionsMsg{Query: query, Suggestions: engine.Suggestions(ctx)}
	}
}

// WaitForStateCmd blocks until the engine publishes a new snapshot
func WaitForStateCmd(ch <-chan state.State[searchState]) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return StateMsg(st)
	}
}
