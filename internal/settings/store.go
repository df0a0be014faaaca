// Package settings manages server-side user and system configuration plus local app
// preferences.
package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
)

// KeyPreferences is the KV key holding AppPreferences as JSON
const KeyPreferences = "suasor_app_preferences"

var (
	keyUser   = cache.Key("config", "user")
	keySystem = cache.Key("config", "system")
)

// State holds the loaded configurations and the local preferences
type State struct {
	User        *domain.UserConfig
	System      *domain.SystemConfig
	Preferences domain.AppPreferences
}

// Store reads and saves configuration
type Store struct {
	api    *api.Client
	kv     domain.KeyValueStore
	state  *state.Store[State]
	user   *cache.Cache[domain.UserConfig]
	system *cache.Cache[domain.SystemConfig]
	logger *slog.Logger
	opts   state.Options
}

// New creates a Store and reads the stored preferences from kv
func New(client *api.Client, kv domain.KeyValueStore, opts state.Options) *Store {
	opts = opts.WithDefaults()
	s := &Store{
		api:    client,
		kv:     kv,
		user:   cache.New[domain.UserConfig](opts.Cache),
		system: cache.New[domain.SystemConfig](opts.Cache),
		logger: opts.Logger,
		opts:   opts,
	}
	s.state = state.New(State{Preferences: s.readPreferences()})
	return s
}

// State exposes the store for subscription and snapshots
func (s *Store) State() *state.Store[State] { return s.state }

// LoadUserConfig loads the current user's configuration
func (s *Store) LoadUserConfig(ctx context.Context) *domain.UserConfig {
	cfg, _, err := state.Fetch(ctx, s.state, s.user, keyUser,
		func(ctx context.Context) (domain.UserConfig, error) {
			return api.Get[domain.UserConfig](ctx, s.api, "/config/user", nil).Unwrap()
		},
		func(st State, cfg domain.UserConfig) State {
			st.User = &cfg
			return st
		},
	)
	if err != nil {
		s.logger.Error("failed to load user config", "error", err)
		return nil
	}
	return &cfg
}

// SaveUserConfig applies edit to the current user configuration and saves the result
func (s *Store) SaveUserConfig(ctx context.Context, edit func(*domain.UserConfig)) *domain.UserConfig {
	var merged domain.UserConfig
	if cur := s.state.Data().User; cur != nil {
		merged = *cur
		merged.PreferredGenres = slices.Clone(cur.PreferredGenres)
		merged.ExcludedGenres = slices.Clone(cur.ExcludedGenres)
	}
	edit(&merged)

	cfg, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.UserConfig]{
		Call: func(ctx context.Context) (domain.UserConfig, error) {
			return api.Put[domain.UserConfig](ctx, s.api, "/config/user", merged).Unwrap()
		},
		Apply: func(st State, cfg domain.UserConfig) State {
			st.User = &cfg
			return st
		},
		Invalidate: func(domain.UserConfig) { s.user.Invalidate(keyUser) },
		Success:    "User settings saved successfully",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to save user config", "error", err)
		return nil
	}
	return &cfg
}

// LoadSystemConfig loads the server configuration. Admin only.
func (s *Store) LoadSystemConfig(ctx context.Context) *domain.SystemConfig {
	cfg, _, err := state.Fetch(ctx, s.state, s.system, keySystem,
		func(ctx context.Context) (domain.SystemConfig, error) {
			return api.Get[domain.SystemConfig](ctx, s.api, "/admin/config", nil).Unwrap()
		},
		func(st State, cfg domain.SystemConfig) State {
			st.System = &cfg
			return st
		},
	)
	if err != nil {
		s.logger.Error("failed to load system config", "error", err)
		return nil
	}
	return &cfg
}

// SaveSystemConfig applies edit to the server configuration and saves the result
func (s *Store) SaveSystemConfig(ctx context.Context, edit func(*domain.SystemConfig)) *domain.SystemConfig {
	var merged domain.SystemConfig
	if cur := s.state.Data().System; cur != nil {
		merged = *cur
	}
	edit(&merged)

	cfg, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.SystemConfig]{
		Call: func(ctx context.Context) (domain.SystemConfig, error) {
			return api.Put[domain.SystemConfig](ctx, s.api, "/admin/config", merged).Unwrap()
		},
		Apply: func(st State, cfg domain.SystemConfig) State {
			st.System = &cfg
			return st
		},
		Invalidate: func(domain.SystemConfig) { s.system.Invalidate(keySystem) },
		Success:    "System settings saved successfully",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to save system config", "error", err)
		return nil
	}
	return &cfg
}

// readPreferences overlays the stored preferences on the defaults
func (s *Store) readPreferences() domain.AppPreferences {
	prefs := domain.DefaultAppPreferences()
	raw, ok := s.kv.Get(KeyPreferences)
	if !ok {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn("ignoring unreadable app preferences", "error", err)
		return domain.DefaultAppPreferences()
	}
	return prefs
}

// Preferences returns the local app preferences
func (s *Store) Preferences() domain.AppPreferences {
	return s.state.Data().Preferences
}

// UpdatePreferences applies edit and persists the result
func (s *Store) UpdatePreferences(edit func(*domain.AppPreferences)) error {
	prefs := s.Preferences()
	edit(&prefs)
	return s.savePreferences(prefs)
}

// ResetPreferences restores the defaults
func (s *Store) ResetPreferences() error {
	return s.savePreferences(domain.DefaultAppPreferences())
}

func (s *Store) savePreferences(prefs domain.AppPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := s.kv.Set(KeyPreferences, string(data)); err != nil {
		s.logger.Error("failed to save app preferences", "error", err)
		return err
	}
	s.state.Update(func(st State) State {
		st.Preferences = prefs
		return st
	})
	return nil
}
