// Package playlist manages the current user's playlists and their items.
package playlist

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
)

var keyUser = cache.Key("playlists", "user")

func playlistKey(id int64) string { return cache.Key("playlist", id) }
func itemsKey(id int64) string    { return cache.Key("playlistItems", id) }

// State holds playlists and their loaded items
type State struct {
	Playlists map[int64]domain.Playlist
	// Ordered lists playlist IDs by name
	Ordered []int64
	// Items holds each loaded playlist's items sorted by position
	Items      map[int64][]domain.PlaylistItem
	Selected   int64
	Reordering bool
}

// List resolves Ordered
func (s State) List() []domain.Playlist {
	out := make([]domain.Playlist, 0, len(s.Ordered))
	for _, id := range s.Ordered {
		out = append(out, s.Playlists[id])
	}
	return out
}

func reindex(st State) State {
	st.Ordered = make([]int64, 0, len(st.Playlists))
	for id := range st.Playlists {
		st.Ordered = append(st.Ordered, id)
	}
	sort.Slice(st.Ordered, func(i, j int) bool {
		a, b := st.Playlists[st.Ordered[i]], st.Playlists[st.Ordered[j]]
		if n := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); n != 0 {
			return n < 0
		}
		return a.ID < b.ID
	})
	return st
}

func withPlaylists(st State, replace bool, list ...domain.Playlist) State {
	next := st
	next.Playlists = make(map[int64]domain.Playlist, len(st.Playlists)+len(list))
	if !replace {
		for id, p := range st.Playlists {
			next.Playlists[id] = p
		}
	}
	for _, p := range list {
		next.Playlists[p.ID] = p
	}
	return reindex(next)
}

func sortItems(items []domain.PlaylistItem) []domain.PlaylistItem {
	sorted := append([]domain.PlaylistItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	return sorted
}

// withItems replaces the items of playlist id and keeps its item count in step
func withItems(st State, id int64, items []domain.PlaylistItem) State {
	next := st
	next.Items = make(map[int64][]domain.PlaylistItem, len(st.Items)+1)
	for k, v := range st.Items {
		next.Items[k] = v
	}
	next.Items[id] = sortItems(items)
	if p, ok := st.Playlists[id]; ok {
		p.ItemCount = len(items)
		next = withPlaylists(next, false, p)
	}
	return next
}

// Store reads and mutates playlists
type Store struct {
	api       *api.Client
	state     *state.Store[State]
	lists     *cache.Cache[[]domain.Playlist]
	playlists *cache.Cache[domain.Playlist]
	items     *cache.Cache[[]domain.PlaylistItem]
	logger    *slog.Logger
	opts      state.Options
}

// New creates a Store
func New(client *api.Client, opts state.Options) *Store {
	opts = opts.WithDefaults()
	return &Store{
		api:       client,
		state:     state.New(reindex(State{})),
		lists:     cache.New[[]domain.Playlist](opts.Cache),
		playlists: cache.New[domain.Playlist](opts.Cache),
		items:     cache.New[[]domain.PlaylistItem](opts.Cache),
		logger:    opts.Logger,
		opts:      opts,
	}
}

// State exposes the store for subscription and snapshots
func (s *Store) State() *state.Store[State] { return s.state }

// LoadPlaylists loads the current user's playlists
func (s *Store) LoadPlaylists(ctx context.Context) []domain.Playlist {
	list, hit, err := state.Fetch(ctx, s.state, s.lists, keyUser,
		func(ctx context.Context) ([]domain.Playlist, error) {
			return api.Get[[]domain.Playlist](ctx, s.api, "/playlists", nil).Unwrap()
		},
		func(st State, list []domain.Playlist) State { return withPlaylists(st, true, list...) },
	)
	if err != nil {
		s.logger.Error("failed to fetch playlists", "error", err)
		return []domain.Playlist{}
	}
	s.logger.Debug("fetched playlists", "count", len(list), "cached", hit)
	return list
}

// Playlist loads one playlist
func (s *Store) Playlist(ctx context.Context, id int64) *domain.Playlist {
	p, _, err := state.Fetch(ctx, s.state, s.playlists, playlistKey(id),
		func(ctx context.Context) (domain.Playlist, error) {
			return api.Get[domain.Playlist](ctx, s.api, api.Path("playlists", id), nil).Unwrap()
		},
		func(st State, p domain.Playlist) State { return withPlaylists(st, false, p) },
	)
	if err != nil {
		s.logger.Error("failed to fetch playlist", "error", err, "playlistID", id)
		return nil
	}
	return &p
}

// Create adds a playlist
func (s *Store) Create(ctx context.Context, req domain.PlaylistRequest) *domain.Playlist {
	p, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.Playlist]{
		Call: func(ctx context.Context) (domain.Playlist, error) {
			return api.Post[domain.Playlist](ctx, s.api, "/playlists", req).Unwrap()
		},
		Apply:      func(st State, p domain.Playlist) State { return withPlaylists(st, false, p) },
		Invalidate: func(domain.Playlist) { s.lists.Invalidate(keyUser) },
		Success:    "Playlist created",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to create playlist", "error", err, "name", req.Name)
		return nil
	}
	s.logger.Info("created playlist", "playlistID", p.ID, "name", p.Name)
	return &p
}

// Update replaces a playlist's name, description and visibility
func (s *Store) Update(ctx context.Context, id int64, req domain.PlaylistRequest) *domain.Playlist {
	p, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.Playlist]{
		Call: func(ctx context.Context) (domain.Playlist, error) {
			return api.Put[domain.Playlist](ctx, s.api, api.Path("playlists", id), req).Unwrap()
		},
		Apply: func(st State, p domain.Playlist) State { return withPlaylists(st, false, p) },
		Invalidate: func(domain.Playlist) {
			s.playlists.Invalidate(playlistKey(id))
			s.lists.Invalidate(keyUser)
		},
		Success: "Playlist updated",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to update playlist", "error", err, "playlistID", id)
		return nil
	}
	return &p
}

// Delete removes a playlist
func (s *Store) Delete(ctx context.Context, id int64) bool {
	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("playlists", id)).Unwrap()
		},
		Apply: func(st State, _ struct{}) State {
			next := st
			next.Playlists = make(map[int64]domain.Playlist, len(st.Playlists))
			for pid, p := range st.Playlists {
				if pid != id {
					next.Playlists[pid] = p
				}
			}
			next.Items = make(map[int64][]domain.PlaylistItem, len(st.Items))
			for pid, items := range st.Items {
				if pid != id {
					next.Items[pid] = items
				}
			}
			if next.Selected == id {
				next.Selected = 0
			}
			return reindex(next)
		},
		Invalidate: func(struct{}) {
			s.playlists.Invalidate(playlistKey(id))
			s.lists.Invalidate(keyUser)
			s.items.Invalidate(itemsKey(id))
		},
		Success: "Playlist deleted",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to delete playlist", "error", err, "playlistID", id)
		return false
	}
	s.logger.Info("deleted playlist", "playlistID", id)
	return true
}

// Items loads a playlist's items sorted by position
func (s *Store) Items(ctx context.Context, id int64) []domain.PlaylistItem {
	items, _, err := state.Fetch(ctx, s.state, s.items, itemsKey(id),
		func(ctx context.Context) ([]domain.PlaylistItem, error) {
			items, err := api.Get[[]domain.PlaylistItem](ctx, s.api, api.Path("playlists", id, "items"), nil).Unwrap()
			return sortItems(items), err
		},
		func(st State, items []domain.PlaylistItem) State { return withItems(st, id, items) },
	)
	if err != nil {
		s.logger.Error("failed to fetch playlist items", "error", err, "playlistID", id)
		return []domain.PlaylistItem{}
	}
	return items
}

// nextPosition returns the position after the last loaded item
func (s *Store) nextPosition(ctx context.Context, id int64) int {
	items := s.Items(ctx, id)
	next := 0
	for _, it := range items {
		if it.Position >= next {
			next = it.Position + 1
		}
	}
	return next
}

// AddItem appends a media item to a playlist
func (s *Store) AddItem(ctx context.Context, id int64, mediaItemID string) *domain.PlaylistItem {
	req := domain.PlaylistItemRequest{MediaItemID: mediaItemID, Order: s.nextPosition(ctx, id)}

	item, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.PlaylistItem]{
		Call: func(ctx context.Context) (domain.PlaylistItem, error) {
			return api.Post[domain.PlaylistItem](ctx, s.api, api.Path("playlists", id, "items"), req).Unwrap()
		},
		Apply: func(st State, item domain.PlaylistItem) State {
			return withItems(st, id, append(append([]domain.PlaylistItem(nil), st.Items[id]...), item))
		},
		Invalidate: func(domain.PlaylistItem) { s.invalidateItems(id) },
		Success:    "Item added to playlist",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to add playlist item", "error", err, "playlistID", id, "mediaItemID", mediaItemID)
		return nil
	}
	return &item
}

// AddItems appends several media items in one request
func (s *Store) AddItems(ctx context.Context, id int64, mediaItemIDs []string) []domain.PlaylistItem {
	start := s.nextPosition(ctx, id)
	reqs := make([]domain.PlaylistItemRequest, 0, len(mediaItemIDs))
	for i, mid := range mediaItemIDs {
		reqs = append(reqs, domain.PlaylistItemRequest{MediaItemID: mid, Order: start + i})
	}
	body := map[string]any{"items": reqs}

	added, err := state.Mutate(ctx, s.state, state.Mutation[State, []domain.PlaylistItem]{
		Call: func(ctx context.Context) ([]domain.PlaylistItem, error) {
			return api.Post[[]domain.PlaylistItem](ctx, s.api, api.Path("playlists", id, "items", "batch"), body).Unwrap()
		},
		Apply: func(st State, added []domain.PlaylistItem) State {
			return withItems(st, id, append(append([]domain.PlaylistItem(nil), st.Items[id]...), added...))
		},
		Invalidate: func([]domain.PlaylistItem) { s.invalidateItems(id) },
		Success:    "Items added to playlist",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to add playlist items", "error", err, "playlistID", id, "count", len(mediaItemIDs))
		return []domain.PlaylistItem{}
	}
	return added
}

// RemoveItem removes one entry from a playlist
func (s *Store) RemoveItem(ctx context.Context, id, itemID int64) bool {
	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("playlists", id, "items", itemID)).Unwrap()
		},
		Apply: func(st State, _ struct{}) State {
			kept := make([]domain.PlaylistItem, 0, len(st.Items[id]))
			for _, it := range st.Items[id] {
				if it.ID != itemID {
					kept = append(kept, it)
				}
			}
			return withItems(st, id, kept)
		},
		Invalidate: func(struct{}) { s.invalidateItems(id) },
		Success:    "Item removed from playlist",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to remove playlist item", "error", err, "playlistID", id, "itemID", itemID)
		return false
	}
	return true
}

func (s *Store) invalidateItems(id int64) {
	s.items.Invalidate(itemsKey(id))
	s.playlists.Invalidate(playlistKey(id))
	s.lists.Invalidate(keyUser)
}

// Reorder assigns new positions to a playlist's items
func (s *Store) Reorder(ctx context.Context, id int64, orders []domain.PlaylistItemOrder) []domain.PlaylistItem {
	body := map[string]any{"items": orders}

	items, err := state.Mutate(ctx, s.state, state.Mutation[State, []domain.PlaylistItem]{
		Call: func(ctx context.Context) ([]domain.PlaylistItem, error) {
			items, err := api.Put[[]domain.PlaylistItem](ctx, s.api, api.Path("playlists", id, "items", "reorder"), body).Unwrap()
			return sortItems(items), err
		},
		Apply: func(st State, items []domain.PlaylistItem) State {
			next := withItems(st, id, items)
			next.Reordering = false
			return next
		},
		Invalidate: func([]domain.PlaylistItem) { s.items.Invalidate(itemsKey(id)) },
		Success:    "Playlist reordered",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to reorder playlist", "error", err, "playlistID", id)
		return []domain.PlaylistItem{}
	}
	return items
}

// moveOrders computes the positions after moving the item at index from to index to
func moveOrders(items []domain.PlaylistItem, from, to int) []domain.PlaylistItemOrder {
	moved := append([]domain.PlaylistItem(nil), items...)
	item := moved[from]
	moved = append(moved[:from], moved[from+1:]...)
	moved = append(moved[:to], append([]domain.PlaylistItem{item}, moved[to:]...)...)

	orders := make([]domain.PlaylistItemOrder, len(moved))
	for i, it := range moved {
		orders[i] = domain.PlaylistItemOrder{ID: it.ID, Order: i}
	}
	return orders
}

// MoveItem moves the loaded item at index from to index to and saves the new order.
// Out-of-range indexes and no-op moves return false without a request.
func (s *Store) MoveItem(ctx context.Context, id int64, from, to int) bool {
	items := s.state.Data().Items[id]
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) || from == to {
		return false
	}
	return len(s.Reorder(ctx, id, moveOrders(items, from, to))) > 0
}

// Select focuses a playlist; 0 clears the selection
func (s *Store) Select(id int64) {
	s.state.Update(func(st State) State {
		st.Selected = id
		return st
	})
}

// StartReordering marks the selected playlist as being edited
func (s *Store) StartReordering() {
	s.state.Update(func(st State) State {
		st.Reordering = true
		return st
	})
}

// CancelReordering discards local order changes and reloads the selected playlist
func (s *Store) CancelReordering(ctx context.Context) {
	s.state.Update(func(st State) State {
		st.Reordering = false
		return st
	})
	if id := s.state.Data().Selected; id != 0 {
		s.items.Invalidate(itemsKey(id))
		s.Items(ctx, id)
	}
}
