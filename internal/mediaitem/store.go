// Package mediaitem loads and edits media items of the active media client.
package mediaitem

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
	"github.com/sourcegraph/conc"
)

const (
	keyPrefix = "mediaItem"
	// watchlists live under their own prefix
	watchlistPrefix = "media"

	// DefaultLimit is used when a list call passes limit <= 0
	DefaultLimit = 20

	searchTTL = 10 * time.Minute
)

// Ref identifies one loaded item
type Ref struct {
	Type domain.MediaType
	ID   string
}

// State holds media items by type and the list indexes built on them.
// Every ID in Recent, Trending, Recommended and Watchlist is present in Items.
type State struct {
	ActiveClientID int64
	Items          map[domain.MediaType]map[string]domain.MediaItem
	Recent         map[domain.MediaType][]string
	Trending       map[domain.MediaType][]string
	Recommended    map[domain.MediaType][]string
	Watchlist      []Ref
	Collections    []domain.MediaCollection
	Page           api.Page
	// Selection is the item the UI is focused on
	Selection *Ref
}

// Item returns the loaded item, or nil
func (s State) Item(t domain.MediaType, id string) *domain.MediaItem {
	item, ok := s.Items[t][id]
	if !ok {
		return nil
	}
	return &item
}

// RecentItems resolves the recent index for t
func (s State) RecentItems(t domain.MediaType) []domain.MediaItem {
	return s.resolve(t, s.Recent[t])
}

// TrendingItems resolves the trending index for t
func (s State) TrendingItems(t domain.MediaType) []domain.MediaItem {
	return s.resolve(t, s.Trending[t])
}

// RecommendedItems resolves the recommendation index for t
func (s State) RecommendedItems(t domain.MediaType) []domain.MediaItem {
	return s.resolve(t, s.Recommended[t])
}

// WatchlistItems resolves the watchlist in order
func (s State) WatchlistItems() []domain.MediaItem {
	out := make([]domain.MediaItem, 0, len(s.Watchlist))
	for _, ref := range s.Watchlist {
		out = append(out, s.Items[ref.Type][ref.ID])
	}
	return out
}

// InWatchlist reports whether (t, id) is on the watchlist
func (s State) InWatchlist(t domain.MediaType, id string) bool {
	return slices.Contains(s.Watchlist, Ref{Type: t, ID: id})
}

func (s State) resolve(t domain.MediaType, ids []string) []domain.MediaItem {
	out := make([]domain.MediaItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Items[t][id])
	}
	return out
}

// withItems copies st, merges items into the per-type maps and rebuilds Recent
func withItems(st State, items []domain.MediaItem, fallback domain.MediaType) State {
	next := st
	next.Items = make(map[domain.MediaType]map[string]domain.MediaItem, len(st.Items)+1)
	for t, m := range st.Items {
		next.Items[t] = m
	}
	copied := make(map[domain.MediaType]bool)
	for _, item := range items {
		t := item.Type
		if t == "" {
			t = fallback
			item.Type = t
		}
		if !copied[t] {
			m := make(map[string]domain.MediaItem, len(next.Items[t])+len(items))
			for id, v := range next.Items[t] {
				m[id] = v
			}
			next.Items[t] = m
			copied[t] = true
		}
		next.Items[t][item.ID] = item
	}
	return reindex(next)
}

// withoutItem copies st without item (t, id) and rebuilds Recent
func withoutItem(st State, t domain.MediaType, id string) State {
	next := st
	next.Items = make(map[domain.MediaType]map[string]domain.MediaItem, len(st.Items))
	for typ, m := range st.Items {
		next.Items[typ] = m
	}
	if m, ok := st.Items[t]; ok {
		pruned := make(map[string]domain.MediaItem, len(m))
		for k, v := range m {
			if k != id {
				pruned[k] = v
			}
		}
		next.Items[t] = pruned
	}
	if next.Selection != nil && next.Selection.Type == t && next.Selection.ID == id {
		next.Selection = nil
	}
	return reindex(next)
}

// index selects one of the per-type ID indexes of a State
type index func(*State) *map[domain.MediaType][]string

func recentIndex(s *State) *map[domain.MediaType][]string      { return &s.Recent }
func trendingIndex(s *State) *map[domain.MediaType][]string    { return &s.Trending }
func recommendedIndex(s *State) *map[domain.MediaType][]string { return &s.Recommended }

// withIndex merges items and replaces the list of t in the selected index
func withIndex(st State, ix index, t domain.MediaType, items []domain.MediaItem) State {
	next := withItems(st, items, t)
	cur := ix(&next)
	m := make(map[domain.MediaType][]string, len(*cur)+1)
	maps.Copy(m, *cur)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	m[t] = ids
	*cur = m
	return reindex(next)
}

// withRecent replaces the recent list of t
func withRecent(st State, t domain.MediaType, items []domain.MediaItem) State {
	return withIndex(st, recentIndex, t, items)
}

// withWatchlist merges items and replaces the watchlist; untyped items are skipped
func withWatchlist(st State, items []domain.MediaItem) State {
	typed := make([]domain.MediaItem, 0, len(items))
	refs := make([]Ref, 0, len(items))
	for _, item := range items {
		if item.Type == "" {
			continue
		}
		typed = append(typed, item)
		refs = append(refs, Ref{Type: item.Type, ID: item.ID})
	}
	next := withItems(st, typed, "")
	next.Watchlist = refs
	return reindex(next)
}

// reindex drops indexed IDs whose items are gone
func reindex(st State) State {
	for _, ix := range []index{recentIndex, trendingIndex, recommendedIndex} {
		cur := ix(&st)
		if *cur == nil {
			continue
		}
		kept := make(map[domain.MediaType][]string, len(*cur))
		for t, ids := range *cur {
			kept[t] = slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
				_, ok := st.Items[t][id]
				return !ok
			})
		}
		*cur = kept
	}
	if st.Watchlist != nil {
		st.Watchlist = slices.DeleteFunc(slices.Clone(st.Watchlist), func(ref Ref) bool {
			_, ok := st.Items[ref.Type][ref.ID]
			return !ok
		})
	}
	return st
}

type listResult struct {
	Items []domain.MediaItem
	Page  api.Page
}

// Store loads media items for one active client at a time
type Store struct {
	api         *api.Client
	state       *state.Store[State]
	lists       *cache.Cache[listResult]
	details     *cache.Cache[domain.MediaItem]
	collections *cache.Cache[[]domain.MediaCollection]
	logger      *slog.Logger
	opts        state.Options

	// generation changes with the active client; older results are dropped
	generation atomic.Uint64
}

// New creates a Store
func New(client *api.Client, opts state.Options) *Store {
	opts = opts.WithDefaults()
	return &Store{
		api:         client,
		state:       state.New(State{}),
		lists:       cache.New[listResult](opts.Cache),
		details:     cache.New[domain.MediaItem](opts.Cache),
		collections: cache.New[[]domain.MediaCollection](opts.Cache),
		logger:      opts.Logger,
		opts:        opts,
	}
}

// State exposes the store for subscription and snapshots
func (s *Store) State() *state.Store[State] { return s.state }

// mediaServers are the client types Initialize may activate
var mediaServers = []domain.ClientType{
	domain.ClientTypePlex,
	domain.ClientTypeEmby,
	domain.ClientTypeJellyfin,
	domain.ClientTypeSubsonic,
}

// Initialize activates the first enabled media server in clients unless a client is
// already active, and reports whether one is active afterwards.
func (s *Store) Initialize(ctx context.Context, clients []domain.Client) bool {
	if s.state.Data().ActiveClientID != 0 {
		return true
	}
	for _, c := range clients {
		t := domain.ClientType(strings.ToLower(string(c.ClientType)))
		if c.IsEnabled && slices.Contains(mediaServers, t) {
			s.SetActiveClient(ctx, c.ID)
			return true
		}
	}
	s.logger.Info("no enabled media client to activate")
	return false
}

// SetActiveClient switches the client every call is scoped to, drops all cached media
// items and reloads the recent lists, collections and watchlist. Results still in
// flight for the previous client are ignored.
func (s *Store) SetActiveClient(ctx context.Context, clientID int64) {
	s.generation.Add(1)
	s.state.Update(func(State) State {
		return State{ActiveClientID: clientID}
	})
	s.invalidatePattern(cache.Pattern(keyPrefix))
	s.invalidatePattern(cache.Pattern(watchlistPrefix))
	s.logger.Info("switched media client", "clientID", clientID)

	var wg conc.WaitGroup
	for _, t := range []domain.MediaType{
		domain.MediaTypeAlbum,
		domain.MediaTypeArtist,
		domain.MediaTypeTrack,
		domain.MediaTypeMovie,
		domain.MediaTypeSeries,
	} {
		wg.Go(func() { s.LoadRecent(ctx, t, DefaultLimit) })
	}
	wg.Go(func() { s.LoadCollections(ctx) })
	wg.Go(func() { s.LoadWatchlist(ctx) })
	wg.Wait()
}

func (s *Store) invalidatePattern(re *regexp.Regexp) {
	s.lists.InvalidatePattern(re)
	s.details.InvalidatePattern(re)
	s.collections.InvalidatePattern(re)
}

// scope returns the active client and the current generation
func (s *Store) scope() (int64, uint64) {
	return s.state.Data().ActiveClientID, s.generation.Load()
}

// guard wraps a load so a result for a superseded client is reported as ErrSuperseded
func guard[T any](s *Store, gen uint64, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if s.generation.Load() != gen {
			var zero T
			return zero, state.ErrSuperseded
		}
		return v, err
	}
}

func fetchList(ctx context.Context, c *api.Client, path []any, params url.Values) (listResult, error) {
	res := api.Get[[]domain.MediaItem](ctx, c, api.Path(path...), params)
	if !res.OK {
		return listResult{}, res.Err
	}
	return listResult{Items: res.Value, Page: res.Page}, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// LoadRecent loads recently added items of type t and replaces its recent index
func (s *Store) LoadRecent(ctx context.Context, t domain.MediaType, limit int) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	limit = limitOrDefault(limit)
	path, err := recentPath(clientID, t, limit)
	if err != nil {
		s.state.SetError(err)
		return []domain.MediaItem{}
	}
	key := cache.Key(keyPrefix, "recent", clientID, t, limit)
	return s.loadIndexed(ctx, gen, key, recentIndex, t, path, nil, "recent")
}

// LoadTrending loads the trending items of type t and replaces its trending index
func (s *Store) LoadTrending(ctx context.Context, t domain.MediaType, limit int) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	limit = limitOrDefault(limit)
	path, err := trendingPath(clientID, t, limit)
	if err != nil {
		s.state.SetError(err)
		return []domain.MediaItem{}
	}
	key := cache.Key(keyPrefix, "trending", clientID, t, limit)
	return s.loadIndexed(ctx, gen, key, trendingIndex, t, path, nil, "trending")
}

// LoadRecommended loads recommendations of type t for the active client
func (s *Store) LoadRecommended(ctx context.Context, t domain.MediaType, limit int) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	limit = limitOrDefault(limit)
	params := url.Values{
		"clientId":  {strconv.FormatInt(clientID, 10)},
		"mediaType": {string(t)},
		"limit":     {strconv.Itoa(limit)},
	}
	key := cache.Key(keyPrefix, "recommended", clientID, t, limit)
	return s.loadIndexed(ctx, gen, key, recommendedIndex, t, recommendedPath(), params, "recommended")
}

func (s *Store) loadIndexed(ctx context.Context, gen uint64, key string, ix index, t domain.MediaType, path []any, params url.Values, what string) []domain.MediaItem {
	res, _, err := state.Fetch(ctx, s.state, s.lists, key,
		guard(s, gen, func(ctx context.Context) (listResult, error) {
			return fetchList(ctx, s.api, path, params)
		}),
		func(st State, r listResult) State {
			if s.generation.Load() != gen {
				return st
			}
			return withIndex(st, ix, t, r.Items)
		},
	)
	if err != nil {
		s.logger.Error("failed to load media list", "error", err, "list", what, "type", t)
		return []domain.MediaItem{}
	}
	return res.Items
}

// LoadCollections loads the active client's collections
func (s *Store) LoadCollections(ctx context.Context) []domain.MediaCollection {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaCollection{}
	}
	key := cache.Key(keyPrefix, "collections", clientID)
	colls, _, err := state.Fetch(ctx, s.state, s.collections, key,
		guard(s, gen, func(ctx context.Context) ([]domain.MediaCollection, error) {
			return api.Get[[]domain.MediaCollection](ctx, s.api, api.Path(collectionsPath(clientID)...), nil).Unwrap()
		}),
		func(st State, colls []domain.MediaCollection) State {
			if s.generation.Load() != gen {
				return st
			}
			st.Collections = colls
			return st
		},
	)
	if err != nil {
		s.logger.Error("failed to load collections", "error", err, "clientID", clientID)
		return []domain.MediaCollection{}
	}
	return colls
}

func watchlistKey(clientID int64) string {
	return cache.Key(watchlistPrefix, "watchlist", clientID)
}

// LoadWatchlist loads the active client's watchlist
func (s *Store) LoadWatchlist(ctx context.Context) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	res, _, err := state.Fetch(ctx, s.state, s.lists, watchlistKey(clientID),
		guard(s, gen, func(ctx context.Context) (listResult, error) {
			return fetchList(ctx, s.api, watchlistPath(clientID), nil)
		}),
		func(st State, r listResult) State {
			if s.generation.Load() != gen {
				return st
			}
			return withWatchlist(st, r.Items)
		},
	)
	if err != nil {
		s.logger.Error("failed to load watchlist", "error", err, "clientID", clientID)
		return []domain.MediaItem{}
	}
	return res.Items
}

type watchlistRequest struct {
	MediaID   string           `json:"mediaId"`
	MediaType domain.MediaType `json:"mediaType"`
}

// AddToWatchlist adds a loaded item to the watchlist. It reports false when no client is
// active, the item is not loaded or the request fails; an item already on the list
// is a no-op.
func (s *Store) AddToWatchlist(ctx context.Context, t domain.MediaType, id string) bool {
	clientID, gen := s.scope()
	st := s.state.Data()
	if clientID == 0 || st.Item(t, id) == nil {
		return false
	}
	if st.InWatchlist(t, id) {
		return true
	}

	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: guard(s, gen, func(ctx context.Context) (struct{}, error) {
			req := watchlistRequest{MediaID: id, MediaType: t}
			return struct{}{}, s.api.Exec(ctx, http.MethodPost, api.Path(watchlistPath(clientID)...), req)
		}),
		Apply: func(st State, _ struct{}) State {
			ref := Ref{Type: t, ID: id}
			if slices.Contains(st.Watchlist, ref) {
				return st
			}
			st.Watchlist = append(slices.Clone(st.Watchlist), ref)
			return st
		},
		Invalidate: func(struct{}) {
			s.lists.Invalidate(watchlistKey(clientID))
		},
	})
	if err != nil {
		s.logger.Error("failed to add to watchlist", "error", err, "id", id)
		return false
	}
	s.logger.Info("added to watchlist", "id", id, "type", t)
	return true
}

// RemoveFromWatchlist drops an item from the watchlist; an item not on the list is a no-op
func (s *Store) RemoveFromWatchlist(ctx context.Context, t domain.MediaType, id string) bool {
	clientID, gen := s.scope()
	if clientID == 0 {
		return false
	}
	if !s.state.Data().InWatchlist(t, id) {
		return true
	}

	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: guard(s, gen, func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path(watchlistPath(clientID, id)...)).Unwrap()
		}),
		Apply: func(st State, _ struct{}) State {
			ref := Ref{Type: t, ID: id}
			st.Watchlist = slices.DeleteFunc(slices.Clone(st.Watchlist), func(r Ref) bool { return r == ref })
			return st
		},
		Invalidate: func(struct{}) {
			s.lists.Invalidate(watchlistKey(clientID))
		},
	})
	if err != nil {
		s.logger.Error("failed to remove from watchlist", "error", err, "id", id)
		return false
	}
	s.logger.Info("removed from watchlist", "id", id, "type", t)
	return true
}

// ToggleWatchlist adds or removes (t, id) depending on its current membership
func (s *Store) ToggleWatchlist(ctx context.Context, t domain.MediaType, id string) bool {
	if s.state.Data().InWatchlist(t, id) {
		return s.RemoveFromWatchlist(ctx, t, id)
	}
	return s.AddToWatchlist(ctx, t, id)
}

// LoadByGenre loads items of type t tagged with genre
func (s *Store) LoadByGenre(ctx context.Context, t domain.MediaType, genre string, limit int) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	limit = limitOrDefault(limit)
	path, err := genrePath(t, genre)
	if err != nil {
		s.state.SetError(err)
		return []domain.MediaItem{}
	}

	params := url.Values{"limit": {strconv.Itoa(limit)}}
	key := cache.Key(keyPrefix, "genre", clientID, t, genre, limit)
	return s.loadList(ctx, gen, key, t, path, params, "genre", genre)
}

// LoadByYear loads items of type t released in year
func (s *Store) LoadByYear(ctx context.Context, t domain.MediaType, year, limit int) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	limit = limitOrDefault(limit)
	params := url.Values{
		"mediaType": {string(t)},
		"year":      {strconv.Itoa(year)},
		"limit":     {strconv.Itoa(limit)},
	}
	key := cache.Key(keyPrefix, "year", clientID, t, year, limit)
	return s.loadList(ctx, gen, key, t, yearPath(t, year), params, "year", year)
}

// LoadPopular loads the most popular items of type t
func (s *Store) LoadPopular(ctx context.Context, t domain.MediaType, limit int) []domain.MediaItem {
	clientID, gen := s.scope()
	if clientID == 0 {
		return []domain.MediaItem{}
	}
	limit = limitOrDefault(limit)
	path, err := popularPath(t, limit)
	if err != nil {
		s.state.SetError(err)
		return []domain.MediaItem{}
	}
	key := cache.Key(keyPrefix, "popular", clientID, t, limit)
	return s.loadList(ctx, gen, key, t, path, nil, "popular", limit)
}

func (s *Store) loadList(ctx context.Context, gen uint64, key string, t domain.MediaType, path []any, params url.Values, what string, arg any) []domain.MediaItem {
	res, hit, err := state.Fetch(ctx, s.state, s.lists, key,
		guard(s, gen, func(ctx context.Context) (listResult, error) {
			return fetchList(ctx, s.api, path, params)
		}),
		func(st State, r listResult) State {
			if s.generation.Load() != gen {
				return st
			}
			return withItems(st, r.Items, t)
		},
	)
	if err != nil {
		s.logger.Error("failed to load media items", "error", err, "list", what, "arg", arg, "type", t)
		return []domain.MediaItem{}
	}
	s.logger.Debug("loaded media items", "list", what, "type", t, "count", len(res.Items), "cached", hit)
	return res.Items
}

// SearchResult is one page of search matches
type SearchResult struct {
	Items []domain.MediaItem
	Page  api.Page
}

// Search queries the active client's items. Results are cached for 10 minutes.
func (s *Store) Search(ctx context.Context, q domain.MediaSearchQuery) SearchResult {
	clientID, gen := s.scope()
	if clientID == 0 {
		return SearchResult{Items: []domain.MediaItem{}}
	}

	filters, err := json.Marshal(q)
	if err != nil {
		s.state.SetError(err)
		return SearchResult{Items: []domain.MediaItem{}}
	}
	params := url.Values{"query": {q.Query}, "clientId": {strconv.FormatInt(clientID, 10)}}
	if q.Type != "" && q.Type != domain.MediaTypeAll {
		params.Set("mediaType", string(q.Type))
	}
	if q.Genre != "" {
		params.Set("genre", q.Genre)
	}
	if q.Year > 0 {
		params.Set("year", strconv.Itoa(q.Year))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
		params.Set("sortOrder", q.SortOrder)
	}

	key := cache.Key(keyPrefix, "search", clientID, string(filters))
	res, _, err := state.Fetch(ctx, s.state, s.lists, key,
		guard(s, gen, func(ctx context.Context) (listResult, error) {
			return fetchList(ctx, s.api, searchPath(q.Type), params)
		}),
		func(st State, r listResult) State {
			if s.generation.Load() != gen {
				return st
			}
			next := withItems(st, r.Items, q.Type)
			next.Page = r.Page
			return next
		},
		cache.WithTTL(searchTTL),
	)
	if err != nil {
		s.logger.Error("media search failed", "error", err, "query", q.Query)
		return SearchResult{Items: []domain.MediaItem{}}
	}
	return SearchResult{Items: res.Items, Page: res.Page}
}

// Details loads one item, preferring the already loaded copy
func (s *Store) Details(ctx context.Context, t domain.MediaType, id string) *domain.MediaItem {
	clientID, gen := s.scope()
	path, err := detailsPath(t, id)
	if err != nil {
		s.state.SetError(err)
		return nil
	}

	key := cache.Key(keyPrefix, "details", clientID, t, id)
	item, _, err := state.Fetch(ctx, s.state, s.details, key,
		guard(s, gen, func(ctx context.Context) (domain.MediaItem, error) {
			return api.Get[domain.MediaItem](ctx, s.api, api.Path(path...), nil).Unwrap()
		}),
		func(st State, item domain.MediaItem) State {
			if s.generation.Load() != gen {
				return st
			}
			return withItems(st, []domain.MediaItem{item}, t)
		},
	)
	if err != nil {
		s.logger.Error("failed to load media item", "error", err, "type", t, "id", id)
		return nil
	}
	return &item
}

// invalidateType drops every cached list and details entry of type t for clientID
func (s *Store) invalidateType(clientID int64, t domain.MediaType) {
	s.invalidatePattern(cache.Pattern(keyPrefix, cache.Any, clientID, t))
}

// AddItem creates a media item
func (s *Store) AddItem(ctx context.Context, req domain.MediaItemRequest) *domain.MediaItem {
	clientID, gen := s.scope()
	if req.ClientID == 0 {
		req.ClientID = clientID
	}

	item, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.MediaItem]{
		Call: guard(s, gen, func(ctx context.Context) (domain.MediaItem, error) {
			return api.Post[domain.MediaItem](ctx, s.api, "/media/items", req).Unwrap()
		}),
		Apply: func(st State, item domain.MediaItem) State {
			return withItems(st, []domain.MediaItem{item}, req.Type)
		},
		Invalidate: func(item domain.MediaItem) {
			t := item.Type
			if t == "" {
				t = req.Type
			}
			s.invalidateType(clientID, t)
		},
		Success: "Media item added",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to add media item", "error", err, "title", req.Title)
		return nil
	}
	s.logger.Info("added media item", "id", item.ID, "type", item.Type)
	return &item
}

// UpdateItem replaces a media item
func (s *Store) UpdateItem(ctx context.Context, t domain.MediaType, id string, req domain.MediaItemRequest) *domain.MediaItem {
	clientID, gen := s.scope()

	item, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.MediaItem]{
		Call: guard(s, gen, func(ctx context.Context) (domain.MediaItem, error) {
			return api.Put[domain.MediaItem](ctx, s.api, api.Path("media", "items", id), req).Unwrap()
		}),
		Apply: func(st State, item domain.MediaItem) State {
			return withItems(st, []domain.MediaItem{item}, t)
		},
		Invalidate: func(domain.MediaItem) {
			s.details.Invalidate(cache.Key(keyPrefix, "details", clientID, t, id))
			s.invalidateType(clientID, t)
		},
		Success: "Media item updated",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to update media item", "error", err, "id", id)
		return nil
	}
	s.logger.Info("updated media item", "id", id, "type", t)
	return &item
}

// DeleteItem removes a media item
func (s *Store) DeleteItem(ctx context.Context, t domain.MediaType, id string) bool {
	clientID, gen := s.scope()

	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: guard(s, gen, func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("media", "items", id)).Unwrap()
		}),
		Apply: func(st State, _ struct{}) State {
			return withoutItem(st, t, id)
		},
		Invalidate: func(struct{}) {
			s.details.Invalidate(cache.Key(keyPrefix, "details", clientID, t, id))
			s.invalidateType(clientID, t)
		},
		Success: "Media item deleted",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to delete media item", "error", err, "id", id)
		return false
	}
	s.logger.Info("deleted media item", "id", id, "type", t)
	return true
}

// Select focuses an item; an empty id clears the selection
func (s *Store) Select(t domain.MediaType, id string) {
	s.state.Update(func(st State) State {
		if id == "" {
			st.Selection = nil
		} else {
			st.Selection = &Ref{Type: t, ID: id}
		}
		return st
	})
}

// Selected returns the focused item if it is loaded
func (s *Store) Selected() *domain.MediaItem {
	st := s.state.Data()
	if st.Selection == nil {
		return nil
	}
	return st.Item(st.Selection.Type, st.Selection.ID)
}
