// Package search fans a query out to the local library, the media clients and the
// metadata providers, and merges the three result sets.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Bucket is the result set of one source
type Bucket struct {
	Items   []domain.SearchResultItem
	Loading bool
	Error   string
	Done    bool
}

// State is the engine's observable state
type State struct {
	Query   string
	Filters domain.SearchFilters

	Local    Bucket
	Client   Bucket
	Metadata Bucket

	RecentSearches    []string
	SuggestedSearches []string
	// SelectedIndex points into AllResults; -1 is no selection
	SelectedIndex int
}

// Bucket returns the bucket of src
func (s State) Bucket(src domain.SearchSource) Bucket {
	switch src {
	case domain.SourceLocal:
		return s.Local
	case domain.SourceClient:
		return s.Client
	case domain.SourceMetadata:
		return s.Metadata
	}
	return Bucket{}
}

func (s State) withBucket(src domain.SearchSource, b Bucket) State {
	switch src {
	case domain.SourceLocal:
		s.Local = b
	case domain.SourceClient:
		s.Client = b
	case domain.SourceMetadata:
		s.Metadata = b
	}
	return s
}

func resetBuckets(s State) State {
	s.Local, s.Client, s.Metadata = Bucket{}, Bucket{}, Bucket{}
	s.SelectedIndex = -1
	return s
}

func initialState() State {
	return State{Filters: domain.DefaultSearchFilters(), SelectedIndex: -1}
}

// Status summarizes the buckets for display
type Status struct {
	IsLoading bool
	IsDone    bool
	HasError  bool
}

var endpoints = map[domain.SearchSource]string{
	domain.SourceLocal:    "/search",
	domain.SourceClient:   "/search/clients",
	domain.SourceMetadata: "/search/metadata",
}

// Engine runs searches. One Engine serves the whole process.
type Engine struct {
	api    *api.Client
	kv     domain.KeyValueStore
	state  *state.Store[State]
	cache  *cache.Cache[[]domain.SearchResultItem]
	logger *slog.Logger

	// generation identifies the current run; results from older runs are dropped
	generation atomic.Uint64
}

// New creates an Engine. Call Initialize to restore recent searches.
func New(client *api.Client, kv domain.KeyValueStore, opts state.Options) *Engine {
	opts = opts.WithDefaults()
	return &Engine{
		api:    client,
		kv:     kv,
		state:  state.New(initialState()),
		cache:  cache.New[[]domain.SearchResultItem](opts.Cache),
		logger: opts.Logger,
	}
}

// State exposes the engine state for subscription and snapshots
func (e *Engine) State() *state.Store[State] { return e.state }

// SetQuery replaces the query and clears the selection
func (e *Engine) SetQuery(q string) {
	e.state.Update(func(st State) State {
		st.Query = q
		st.SelectedIndex = -1
		return st
	})
}

// SetFilters applies edit to a copy of the current filters
func (e *Engine) SetFilters(edit func(*domain.SearchFilters)) {
	e.state.Update(func(st State) State {
		f := st.Filters
		f.Genres = slices.Clone(f.Genres)
		f.Sources = slices.Clone(f.Sources)
		edit(&f)
		st.Filters = f
		return st
	})
}

// ClearFilters restores the default filters
func (e *Engine) ClearFilters() {
	e.state.Update(func(st State) State {
		st.Filters = domain.DefaultSearchFilters()
		return st
	})
}

// ResetResults empties the buckets but keeps query and filters
func (e *Engine) ResetResults() {
	e.generation.Add(1)
	e.state.Update(resetBuckets)
	e.state.SetLoading(false)
}

// ClearSearch resets query, filters, buckets and suggestions
func (e *Engine) ClearSearch() {
	e.generation.Add(1)
	e.state.Update(func(st State) State {
		st = resetBuckets(st)
		st.Query = ""
		st.Filters = domain.DefaultSearchFilters()
		st.SuggestedSearches = nil
		return st
	})
	e.state.SetLoading(false)
}

// Search runs the current query against every enabled source and returns once all of
// them have settled. A failing source only marks its own bucket. A blank query just
// resets the buckets.
func (e *Engine) Search(ctx context.Context) {
	snap := e.state.Data()
	query, filters := snap.Query, snap.Filters
	if strings.TrimSpace(query) == "" {
		e.ResetResults()
		return
	}

	gen := e.generation.Add(1)
	e.state.SetLoading(true)
	e.state.Update(resetBuckets)

	var wg conc.WaitGroup
	for _, src := range domain.SearchSources {
		if !filters.HasSource(src) {
			continue
		}
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() { e.searchSource(ctx, gen, src, query, filters) })
			if r := pc.Recovered(); r != nil {
				e.logger.Error("search source panicked", "source", src, "panic", r.Value)
				e.finish(gen, src, nil, fmt.Errorf("%s search failed: %v", src, r.Value))
			}
		})
	}
	wg.Wait()

	if e.generation.Load() == gen {
		e.state.SetLoading(false)
	}
	e.logger.Debug("search settled", "query", query, "status", e.Status())
}

// current reports whether results of run gen may still be applied
func (e *Engine) current(ctx context.Context, gen uint64) bool {
	return ctx.Err() == nil && e.generation.Load() == gen
}

// update applies fn when gen is still the current run. The check happens under the
// state lock so a newer run cannot interleave.
func (e *Engine) update(gen uint64, fn func(State) State) {
	e.state.Update(func(st State) State {
		if e.generation.Load() != gen {
			return st
		}
		return fn(st)
	})
}

func cacheKey(src domain.SearchSource, query string, filters domain.SearchFilters) string {
	f, _ := json.Marshal(filters)
	return cache.Key("search", src, query, string(f))
}

// params builds the query string shared by the three source endpoints
func params(src domain.SearchSource, query string, f domain.SearchFilters) url.Values {
	v := url.Values{"query": {query}, "source": {string(src)}}
	if f.MediaType != "" && f.MediaType != domain.MediaTypeAll {
		v.Set("mediaType", string(f.MediaType))
	}
	if f.Year != nil {
		if f.Year.Min != 0 {
			v.Set("yearMin", strconv.Itoa(f.Year.Min))
		}
		if f.Year.Max != 0 {
			v.Set("yearMax", strconv.Itoa(f.Year.Max))
		}
	}
	if len(f.Genres) > 0 {
		v.Set("genres", strings.Join(f.Genres, ","))
	}
	if f.Rating != nil {
		if f.Rating.Min != 0 {
			v.Set("ratingMin", strconv.FormatFloat(f.Rating.Min, 'f', -1, 64))
		}
		if f.Rating.Max != 0 {
			v.Set("ratingMax", strconv.FormatFloat(f.Rating.Max, 'f', -1, 64))
		}
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

func (e *Engine) searchSource(ctx context.Context, gen uint64, src domain.SearchSource, query string, filters domain.SearchFilters) {
	e.update(gen, func(st State) State {
		b := st.Bucket(src)
		b.Loading, b.Error, b.Done = true, "", false
		return st.withBucket(src, b)
	})

	items, err := e.cache.Load(ctx, cacheKey(src, query, filters), func(ctx context.Context) ([]domain.SearchResultItem, error) {
		raw, err := api.Get[[]json.RawMessage](ctx, e.api, endpoints[src], params(src, query, filters)).Unwrap()
		if err != nil {
			return nil, err
		}
		return convert(src, raw)
	})
	if !e.current(ctx, gen) {
		e.logger.Debug("dropping stale search results", "source", src, "query", query)
		e.update(gen, func(st State) State {
			b := st.Bucket(src)
			b.Loading = false
			return st.withBucket(src, b)
		})
		return
	}
	if err != nil {
		e.logger.Warn("search source failed", "source", src, "query", query, "error", err)
	}
	e.finish(gen, src, items, err)
}

// finish settles the bucket of src and reconciles the metadata bucket
func (e *Engine) finish(gen uint64, src domain.SearchSource, items []domain.SearchResultItem, err error) {
	e.update(gen, func(st State) State {
		b := st.Bucket(src)
		b.Loading, b.Done = false, true
		if err != nil {
			b.Error = errorMessage(err)
		} else {
			b.Items, b.Error = items, ""
		}
		return reconcile(st.withBucket(src, b))
	})
}

func errorMessage(err error) string {
	if info := state.Normalize(err); info.Message != "" {
		return info.Message
	}
	return err.Error()
}

// reconcile flags metadata results whose ID also appears in the local or client results.
// It runs whenever any bucket settles, so the outcome does not depend on which source
// answers first. It only ever upgrades to in-library.
func reconcile(st State) State {
	if len(st.Metadata.Items) == 0 {
		return st
	}
	owned := make(map[string]struct{}, len(st.Local.Items)+len(st.Client.Items))
	for _, it := range st.Local.Items {
		owned[it.ID] = struct{}{}
	}
	for _, it := range st.Client.Items {
		owned[it.ID] = struct{}{}
	}
	if len(owned) == 0 {
		return st
	}

	var items []domain.SearchResultItem
	for i, it := range st.Metadata.Items {
		if _, ok := owned[it.ID]; !ok || it.IsInLibrary() {
			continue
		}
		if items == nil {
			items = append([]domain.SearchResultItem(nil), st.Metadata.Items...)
		}
		items[i].InLibrary = flag(true)
	}
	if items != nil {
		st.Metadata.Items = items
	}
	return st
}

func flag(b bool) *bool { return &b }

// wireItem is a search hit as the server returns it
type wireItem struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	MediaType  domain.MediaType `json:"mediaType"`
	Year       int              `json:"year"`
	Poster     string           `json:"poster"`
	Subtitle   string           `json:"subtitle"`
	Overview   string           `json:"overview"`
	SourceName string           `json:"sourceName"`
	Provider   string           `json:"provider"`
	Rating     float64          `json:"rating"`
	Genres     []string         `json:"genres"`
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// convert maps raw hits to result items for src. Local and client hits are in the
// library; metadata hits start out as not in the library.
func convert(src domain.SearchSource, raw []json.RawMessage) ([]domain.SearchResultItem, error) {
	items := make([]domain.SearchResultItem, 0, len(raw))
	for _, r := range raw {
		var w wireItem
		if err := json.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", src, err)
		}
		var details map[string]any
		if err := json.Unmarshal(r, &details); err != nil {
			details = nil
		}

		item := domain.SearchResultItem{
			ID:       w.ID,
			Title:    w.Title,
			Type:     w.MediaType,
			Source:   src,
			Year:     w.Year,
			Poster:   w.Poster,
			Subtitle: w.Subtitle,
			Rating:   w.Rating,
			Genres:   w.Genres,
			Details:  details,
		}
		switch src {
		case domain.SourceLocal:
			if item.Subtitle == "" {
				item.Subtitle = truncate(w.Overview, 50)
			}
			item.InLibrary = flag(true)
		case domain.SourceClient:
			if item.Subtitle == "" {
				item.Subtitle = w.SourceName + ": " + truncate(w.Overview, 40)
			}
			item.InLibrary = flag(true)
		case domain.SourceMetadata:
			if item.Subtitle == "" {
				item.Subtitle = w.Provider + ": " + truncate(w.Overview, 40)
			}
			item.InLibrary = flag(false)
		}
		items = append(items, item)
	}
	return items, nil
}

// Status summarizes loading, completion and errors across the enabled sources
func (e *Engine) Status() Status {
	full := e.state.State()
	st := full.Data
	status := Status{
		IsLoading: full.Loading,
		IsDone:    true,
		HasError:  full.Error != nil,
	}
	for _, src := range domain.SearchSources {
		b := st.Bucket(src)
		status.IsLoading = status.IsLoading || b.Loading
		status.HasError = status.HasError || b.Error != ""
		if st.Filters.HasSource(src) && !b.Done {
			status.IsDone = false
		}
	}
	return status
}

// AllResults returns the merged buckets narrowed by the current filters
func (e *Engine) AllResults() []domain.SearchResultItem {
	st := e.state.Data()
	return Filter(merged(st), st.Filters)
}

func merged(st State) []domain.SearchResultItem {
	out := make([]domain.SearchResultItem, 0, len(st.Local.Items)+len(st.Client.Items)+len(st.Metadata.Items))
	out = append(out, st.Local.Items...)
	out = append(out, st.Client.Items...)
	return append(out, st.Metadata.Items...)
}

// Results is what a result list shows: recent searches for a blank query, otherwise
// AllResults
func (e *Engine) Results() []domain.SearchResultItem {
	if strings.TrimSpace(e.state.Data().Query) == "" {
		return e.RecentSearchesAsResults()
	}
	return e.AllResults()
}

// Suggestions fetches query completions. Queries under two characters and failures
// yield an empty list.
func (e *Engine) Suggestions(ctx context.Context) []string {
	query := strings.TrimSpace(e.state.Data().Query)
	if len([]rune(query)) < 2 {
		e.state.Update(func(st State) State {
			st.SuggestedSearches = nil
			return st
		})
		return []string{}
	}

	suggestions, err := api.Get[[]string](ctx, e.api, "/search/suggestions", url.Values{"query": {query}}).Unwrap()
	if err != nil {
		e.logger.Warn("search suggestions failed", "query", query, "error", err)
		return []string{}
	}
	e.state.Update(func(st State) State {
		st.SuggestedSearches = suggestions
		return st
	})
	return suggestions
}

// SetSelected selects index i of AllResults; values outside [-1, len) are ignored
func (e *Engine) SetSelected(i int) {
	n := len(e.AllResults())
	if i < -1 || i >= n {
		return
	}
	e.state.Update(func(st State) State {
		st.SelectedIndex = i
		return st
	})
}

// Direction of a selection move
type Direction int

const (
	Up Direction = iota
	Down
)

// MoveSelection moves the selection one step, wrapping at both ends
func (e *Engine) MoveSelection(d Direction) {
	n := len(e.AllResults())
	e.state.Update(func(st State) State {
		if n == 0 {
			st.SelectedIndex = -1
			return st
		}
		i := st.SelectedIndex
		if d == Down {
			if i == -1 || i >= n-1 {
				i = 0
			} else {
				i++
			}
		} else {
			if i <= 0 {
				i = n - 1
			} else {
				i--
			}
		}
		st.SelectedIndex = i
		return st
	})
}

// Selected returns the selected result, or nil
func (e *Engine) Selected() *domain.SearchResultItem {
	st := e.state.Data()
	if st.SelectedIndex < 0 {
		return nil
	}
	all := Filter(merged(st), st.Filters)
	if st.SelectedIndex >= len(all) {
		return nil
	}
	item := all[st.SelectedIndex]
	return &item
}

// Close stops the engine's timers
func (e *Engine) Close() { e.state.Close() }
