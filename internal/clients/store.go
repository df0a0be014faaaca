// Package clients manages the user's configured integrations.
package clients

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
)

// keyAll caches the full client list
var keyAll = cache.Key("clients", "all")

// State holds the client list and the indexes derived from it
type State struct {
	Clients []domain.Client
	ByType  map[domain.ClientType][]domain.Client
	ByID    map[int64]domain.Client
}

// withClients returns a State whose indexes are rebuilt from list. Types indexed in prev
// keep an empty entry once their last client is gone.
func withClients(prev State, list []domain.Client) State {
	s := State{
		Clients: list,
		ByType:  make(map[domain.ClientType][]domain.Client, len(prev.ByType)),
		ByID:    make(map[int64]domain.Client, len(list)),
	}
	for t := range prev.ByType {
		s.ByType[t] = []domain.Client{}
	}
	for _, c := range list {
		s.ByType[c.ClientType] = append(s.ByType[c.ClientType], c)
		s.ByID[c.ID] = c
	}
	return s
}

// Store reads and mutates clients
type Store struct {
	api    *api.Client
	state  *state.Store[State]
	cache  *cache.Cache[[]domain.Client]
	logger *slog.Logger
	opts   state.Options
}

// New creates a Store
func New(client *api.Client, opts state.Options) *Store {
	opts = opts.WithDefaults()
	return &Store{
		api:    client,
		state:  state.New(withClients(State{}, nil)),
		cache:  cache.New[[]domain.Client](opts.Cache),
		logger: opts.Logger,
		opts:   opts,
	}
}

// State exposes the store for subscription and snapshots
func (s *Store) State() *state.Store[State] { return s.state }

// LoadClients loads every client of the current user. It returns nil on failure.
func (s *Store) LoadClients(ctx context.Context) []domain.Client {
	list, hit, err := state.Fetch(ctx, s.state, s.cache, keyAll,
		func(ctx context.Context) ([]domain.Client, error) {
			return api.Get[[]domain.Client](ctx, s.api, "/clients", nil).Unwrap()
		},
		func(st State, list []domain.Client) State { return withClients(st, list) },
	)
	if err != nil {
		s.logger.Error("failed to load clients", "error", err)
		return nil
	}
	s.logger.Debug("loaded clients", "count", len(list), "cached", hit)
	return list
}

// CreateClient registers a new integration. The category is derived from the type.
func (s *Store) CreateClient(ctx context.Context, name string, clientType domain.ClientType, cfg domain.ClientConfig) *domain.Client {
	cfg.ClientType = clientType
	cfg.Category = domain.CategoryFor(clientType)
	req := domain.ClientRequest{
		Name:       name,
		IsEnabled:  true,
		ClientType: clientType,
		Client:     cfg,
	}

	created, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.Client]{
		Call: func(ctx context.Context) (domain.Client, error) {
			return api.Post[domain.Client](ctx, s.api, api.Path("admin", "client", clientType), req).Unwrap()
		},
		Apply: func(st State, c domain.Client) State {
			list := append(append([]domain.Client(nil), st.Clients...), c)
			return withClients(st, list)
		},
		Invalidate: func(domain.Client) { s.cache.Invalidate(keyAll) },
		Success:    "Client created",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to create client", "error", err, "type", clientType)
		return nil
	}
	s.logger.Info("created client", "id", created.ID, "type", clientType)
	return &created
}

// UpdateClient replaces a client's settings
func (s *Store) UpdateClient(ctx context.Context, id int64, req domain.ClientRequest) *domain.Client {
	req.Client.ClientType = req.ClientType
	req.Client.Category = domain.CategoryFor(req.ClientType)

	updated, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.Client]{
		Call: func(ctx context.Context) (domain.Client, error) {
			return api.Put[domain.Client](ctx, s.api, api.Path("clients", id), req).Unwrap()
		},
		Apply: func(st State, c domain.Client) State {
			list := make([]domain.Client, 0, len(st.Clients))
			for _, existing := range st.Clients {
				if existing.ID == id {
					existing = c
				}
				list = append(list, existing)
			}
			return withClients(st, list)
		},
		Invalidate: func(domain.Client) { s.cache.Invalidate(keyAll) },
		Success:    "Client updated",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to update client", "error", err, "id", id)
		return nil
	}
	s.logger.Info("updated client", "id", id)
	return &updated
}

// ToggleClient flips the enabled flag of a loaded client
func (s *Store) ToggleClient(ctx context.Context, id int64) *domain.Client {
	c := s.Client(id)
	if c == nil {
		return nil
	}
	return s.UpdateClient(ctx, id, domain.ClientRequest{
		Name:       c.Name,
		IsEnabled:  !c.IsEnabled,
		ClientType: c.ClientType,
		Client:     c.Config,
	})
}

// DeleteClient removes a client
func (s *Store) DeleteClient(ctx context.Context, id int64, clientType domain.ClientType) bool {
	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("admin", "client", clientType, id)).Unwrap()
		},
		Apply: func(st State, _ struct{}) State {
			list := make([]domain.Client, 0, len(st.Clients))
			for _, c := range st.Clients {
				if c.ID != id {
					list = append(list, c)
				}
			}
			return withClients(st, list)
		},
		Invalidate: func(struct{}) { s.cache.Invalidate(keyAll) },
		Success:    "Client deleted",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to delete client", "error", err, "id", id)
		return false
	}
	s.logger.Info("deleted client", "id", id, "type", clientType)
	return true
}

// TestConnection checks connection settings without saving them
func (s *Store) TestConnection(ctx context.Context, clientType domain.ClientType, cfg domain.ClientConfig) *domain.ConnectionResult {
	cfg.ClientType = clientType
	cfg.Category = domain.CategoryFor(clientType)
	res, err := api.Post[domain.ConnectionResult](ctx, s.api, "/clients/test", cfg).Unwrap()
	if err != nil {
		s.logger.Warn("client connection test failed", "error", err, "type", clientType)
		s.state.SetError(err)
		return nil
	}
	return &res
}

// Client returns the loaded client with id, or nil
func (s *Store) Client(id int64) *domain.Client {
	c, ok := s.state.Data().ByID[id]
	if !ok {
		return nil
	}
	return &c
}

// ClientsByType returns the loaded clients of one type; never nil
func (s *Store) ClientsByType(t domain.ClientType) []domain.Client {
	list := s.state.Data().ByType[t]
	if list == nil {
		return []domain.Client{}
	}
	return list
}

// Types returns the client types present, sorted
func (s *Store) Types() []domain.ClientType {
	byType := s.state.Data().ByType
	types := make([]domain.ClientType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Invalidate drops the cached list so the next load hits the server
func (s *Store) Invalidate() {
	s.cache.Invalidate(keyAll)
}
