// Package auth keeps the login session and supplies bearer tokens to the API client.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
)

// Storage keys
const (
	KeyAccessToken  = "suasor_access_token"
	KeyRefreshToken = "suasor_refresh_token"
	KeyExpiresAt    = "suasor_expires_at"
	KeyUser         = "suasor_user"
)

// refreshLeeway refreshes tokens that expire within this window
const refreshLeeway = 30 * time.Second

// State is the session as seen by the UI
type State struct {
	User            *domain.User
	IsAuthenticated bool
	ExpiresAt       time.Time
}

type credentials struct {
	access    string
	refresh   string
	expiresAt time.Time
	user      domain.User
}

// Session implements api.Authenticator
type Session struct {
	client *api.Client
	kv     domain.KeyValueStore
	store  *state.Store[State]
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	creds *credentials
}

// NewSession restores any stored session from kv. client must not authenticate
// through this session.
func NewSession(client *api.Client, kv domain.KeyValueStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		client: client,
		kv:     kv,
		store:  state.New(State{}),
		logger: logger,
		now:    time.Now,
	}
	s.restore()
	return s
}

// Store exposes the session state
func (s *Session) Store() *state.Store[State] { return s.store }

func (s *Session) restore() {
	access, ok1 := s.kv.Get(KeyAccessToken)
	refresh, ok2 := s.kv.Get(KeyRefreshToken)
	expiresStr, ok3 := s.kv.Get(KeyExpiresAt)
	userStr, ok4 := s.kv.Get(KeyUser)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}

	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	var user domain.User
	if err == nil {
		err = json.Unmarshal([]byte(userStr), &user)
	}
	if err != nil {
		s.logger.Warn("discarding corrupt session", "error", err)
		s.forget()
		return
	}

	s.apply(&credentials{
		access:    access,
		refresh:   refresh,
		expiresAt: time.Unix(expires, 0),
		user:      user,
	})
}

// Login authenticates with email and password and stores the session
func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	s.store.SetLoading(true)

	body := map[string]string{"email": email, "password": password}
	data, err := api.Post[domain.AuthData](ctx, s.client, "/auth/login", body).Unwrap()
	if err != nil {
		s.logger.Error("login failed", "error", err)
		s.store.SetError(err)
		return nil, err
	}

	if err := s.persist(data); err != nil {
		s.logger.Error("failed to store session", "error", err)
		s.store.SetError(err)
		return nil, err
	}
	s.store.SetLoading(false)
	s.logger.Info("logged in", "user", data.User.Username)
	return &data.User, nil
}

// Logout revokes the refresh token on the server (best effort) and forgets the session
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	creds := s.creds
	s.mu.Unlock()

	if creds != nil {
		body := map[string]string{"refreshToken": creds.refresh}
		if err := s.client.Exec(ctx, http.MethodPost, "/auth/logout", body); err != nil {
			s.logger.Warn("server logout failed", "error", err)
		}
	}
	s.forget()
	s.logger.Info("logged out")
	return nil
}

// Refresh exchanges the refresh token for a new access token. A rejected refresh
// token ends the session.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	creds := s.creds
	s.mu.Unlock()
	if creds == nil {
		return domain.ErrNotAuthenticated
	}

	body := map[string]string{"refreshToken": creds.refresh}
	data, err := api.Post[domain.AuthData](ctx, s.client, "/auth/refresh", body).Unwrap()
	if err != nil {
		s.logger.Error("token refresh failed", "error", err)
		if errors.Is(err, domain.ErrAuthFailed) {
			s.forget()
		}
		return err
	}
	if data.User.ID == 0 {
		data.User = creds.user
	}
	return s.persist(data)
}

// Validate asks the server whether the current token is still accepted
func (s *Session) Validate(ctx context.Context) bool {
	if !s.IsAuthenticated() {
		return false
	}
	err := s.client.Exec(ctx, http.MethodGet, "/auth/validate", nil)
	if err != nil {
		s.logger.Debug("session validation failed", "error", err)
		return false
	}
	return true
}

// Token returns the access token, refreshing it first when it is about to expire
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	creds := s.creds
	s.mu.Unlock()
	if creds == nil {
		return "", domain.ErrNotAuthenticated
	}

	if s.now().Add(refreshLeeway).After(creds.expiresAt) {
		if err := s.Refresh(ctx); err != nil {
			return "", err
		}
		s.mu.Lock()
		creds = s.creds
		s.mu.Unlock()
		if creds == nil {
			return "", domain.ErrNotAuthenticated
		}
	}
	return creds.access, nil
}

// IsAuthenticated reports whether a session is stored
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds != nil
}

// User returns the logged-in user, or nil
func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	u := s.creds.user
	return &u
}

func (s *Session) persist(data domain.AuthData) error {
	userJSON, err := json.Marshal(data.User)
	if err != nil {
		return err
	}
	values := map[string]string{
		KeyAccessToken:  data.AccessToken,
		KeyRefreshToken: data.RefreshToken,
		KeyExpiresAt:    strconv.FormatInt(data.ExpiresAt, 10),
		KeyUser:         string(userJSON),
	}
	for k, v := range values {
		if err := s.kv.Set(k, v); err != nil {
			return err
		}
	}
	s.apply(&credentials{
		access:    data.AccessToken,
		refresh:   data.RefreshToken,
		expiresAt: time.Unix(data.ExpiresAt, 0),
		user:      data.User,
	})
	return nil
}

func (s *Session) apply(creds *credentials) {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	user := creds.user
	s.store.Set(State{User: &user, IsAuthenticated: true, ExpiresAt: creds.expiresAt})
}

func (s *Session) forget() {
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt, KeyUser} {
		if err := s.kv.Remove(k); err != nil {
			s.logger.Warn("failed to remove session key", "key", k, "error", err)
		}
	}
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	s.store.Reset()
}
