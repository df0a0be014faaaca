// Package user manages the current user's profile and, for admins, other accounts.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
)

var keyCurrent = cache.Key("user", "current")

func userKey(id int64) string        { return cache.Key("user", id) }
func listKey(page, limit int) string { return cache.Key("users", "list", page, limit) }

// State holds the signed-in user and the admin listing
type State struct {
	Current *domain.User
	Users   map[int64]domain.User
	// Order is the listing order of Users
	Order      []int64
	Page       int
	TotalPages int
	TotalUsers int
}

// List resolves Order
func (s State) List() []domain.User {
	out := make([]domain.User, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.Users[id])
	}
	return out
}

func withListing(st State, list domain.UserList, page int) State {
	next := st
	next.Users = make(map[int64]domain.User, len(list.Users))
	next.Order = make([]int64, 0, len(list.Users))
	for _, u := range list.Users {
		next.Users[u.ID] = u
		next.Order = append(next.Order, u.ID)
	}
	next.Page = page
	next.TotalPages = list.TotalPages
	next.TotalUsers = list.TotalUsers
	return next
}

// withUser replaces u wherever it appears
func withUser(st State, u domain.User) State {
	next := st
	if _, listed := st.Users[u.ID]; listed {
		next.Users = make(map[int64]domain.User, len(st.Users))
		for id, v := range st.Users {
			next.Users[id] = v
		}
		next.Users[u.ID] = u
	}
	if st.Current != nil && st.Current.ID == u.ID {
		cur := u
		next.Current = &cur
	}
	return next
}

func withoutUser(st State, id int64) State {
	next := st
	next.Users = make(map[int64]domain.User, len(st.Users))
	next.Order = make([]int64, 0, len(st.Order))
	for _, uid := range st.Order {
		if uid != id {
			next.Users[uid] = st.Users[uid]
			next.Order = append(next.Order, uid)
		}
	}
	if next.TotalUsers > 0 {
		next.TotalUsers--
	}
	return next
}

// Store reads and mutates users
type Store struct {
	api      *api.Client
	state    *state.Store[State]
	users    *cache.Cache[domain.User]
	listings *cache.Cache[domain.UserList]
	logger   *slog.Logger
	opts     state.Options
}

// New creates a Store
func New(client *api.Client, opts state.Options) *Store {
	opts = opts.WithDefaults()
	return &Store{
		api:      client,
		state:    state.New(State{}),
		users:    cache.New[domain.User](opts.Cache),
		listings: cache.New[domain.UserList](opts.Cache),
		logger:   opts.Logger,
		opts:     opts,
	}
}

// State exposes the store for subscription and snapshots
func (s *Store) State() *state.Store[State] { return s.state }

// Current returns the loaded current user, or nil
func (s *Store) Current() *domain.User {
	return s.state.Data().Current
}

// IsAdmin reports whether the loaded current user has the admin role
func (s *Store) IsAdmin() bool {
	cur := s.Current()
	return cur != nil && cur.Role == domain.RoleAdmin
}

func setCurrent(st State, u domain.User) State {
	next := withUser(st, u)
	next.Current = &u
	return next
}

// LoadCurrentUser loads the signed-in user's profile
func (s *Store) LoadCurrentUser(ctx context.Context) *domain.User {
	u, _, err := state.Fetch(ctx, s.state, s.users, keyCurrent,
		func(ctx context.Context) (domain.User, error) {
			return api.Get[domain.User](ctx, s.api, "/users/profile", nil).Unwrap()
		},
		setCurrent,
	)
	if err != nil {
		s.logger.Error("failed to load profile", "error", err)
		return nil
	}
	return &u
}

// UpdateProfile changes the current user's email or username
func (s *Store) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) *domain.User {
	u, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.User]{
		Call: func(ctx context.Context) (domain.User, error) {
			return api.Put[domain.User](ctx, s.api, "/users/profile", upd).Unwrap()
		},
		Apply: setCurrent,
		Invalidate: func(u domain.User) {
			s.users.Invalidate(keyCurrent)
			s.users.Invalidate(userKey(u.ID))
		},
		Success: "Profile updated",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to update profile", "error", err)
		return nil
	}
	return &u
}

// NormalizeAvatarURL makes an uploaded file path usable as an avatar URL
func NormalizeAvatarURL(path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "/"):
		return path
	default:
		return "/" + path
	}
}

// UploadAvatar uploads an image and sets it as the current user's avatar
func (s *Store) UploadAvatar(ctx context.Context, filename string, data []byte) string {
	type uploaded struct {
		FilePath string `json:"filePath"`
	}

	res, err := state.Mutate(ctx, s.state, state.Mutation[State, uploaded]{
		Call: func(ctx context.Context) (uploaded, error) {
			return api.Upload[uploaded](ctx, s.api, "/users/avatar", "avatar", filename, data).Unwrap()
		},
		Apply: func(st State, res uploaded) State {
			if st.Current == nil {
				return st
			}
			u := *st.Current
			u.Avatar = NormalizeAvatarURL(res.FilePath)
			return setCurrent(st, u)
		},
		Invalidate: func(uploaded) { s.users.Invalidate(keyCurrent) },
		Success:    "Avatar uploaded successfully",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to upload avatar", "error", err, "file", filename)
		return ""
	}
	return NormalizeAvatarURL(res.FilePath)
}

// ChangePassword changes the current user's password
func (s *Store) ChangePassword(ctx context.Context, current, next string) bool {
	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			body := domain.PasswordChange{CurrentPassword: current, NewPassword: next}
			return struct{}{}, s.api.Exec(ctx, http.MethodPut, "/users/password", body)
		},
		Success: "Password changed successfully",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to change password", "error", err)
		return false
	}
	return true
}

// LoadUsers loads one page of the admin user listing
func (s *Store) LoadUsers(ctx context.Context, page, limit int) []domain.User {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}

	list, _, err := state.Fetch(ctx, s.state, s.listings, listKey(page, limit),
		func(ctx context.Context) (domain.UserList, error) {
			return api.Get[domain.UserList](ctx, s.api, "/admin/users", params).Unwrap()
		},
		func(st State, list domain.UserList) State { return withListing(st, list, page) },
	)
	if err != nil {
		s.logger.Error("failed to load users", "error", err, "page", page)
		return []domain.User{}
	}
	return list.Users
}

// User loads one account
func (s *Store) User(ctx context.Context, id int64) *domain.User {
	u, _, err := state.Fetch(ctx, s.state, s.users, userKey(id),
		func(ctx context.Context) (domain.User, error) {
			return api.Get[domain.User](ctx, s.api, api.Path("admin", "users", id), nil).Unwrap()
		},
		withUser,
	)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "id", id)
		return nil
	}
	return &u
}

// Search finds accounts by name or email. Results are not cached.
func (s *Store) Search(ctx context.Context, query string, page, limit int) []domain.User {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{"q": {query}, "page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}

	s.state.SetLoading(true)
	list, err := api.Get[domain.UserList](ctx, s.api, "/admin/users/search", params).Unwrap()
	if err != nil {
		s.state.SetError(err)
		s.logger.Error("user search failed", "error", err, "query", query)
		return []domain.User{}
	}
	s.state.Update(func(st State) State { return withListing(st, list, page) })
	s.state.SetLoading(false)
	return list.Users
}

func (s *Store) invalidateUser(id int64) {
	s.users.Invalidate(userKey(id))
	s.listings.InvalidatePrefix("users", "list")
}

// adminUpdate runs an admin write that returns the changed account
func (s *Store) adminUpdate(ctx context.Context, id int64, call func(context.Context) (domain.User, error), success string) *domain.User {
	u, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.User]{
		Call:       call,
		Apply:      withUser,
		Invalidate: func(domain.User) { s.invalidateUser(id) },
		Success:    success,
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("admin user update failed", "error", err, "id", id, "action", success)
		return nil
	}
	return &u
}

// UpdateRole sets an account's role
func (s *Store) UpdateRole(ctx context.Context, id int64, role string) *domain.User {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		s.state.SetError(fmt.Errorf("%w: role %q", domain.ErrUnsupported, role))
		return nil
	}
	return s.adminUpdate(ctx, id, func(ctx context.Context) (domain.User, error) {
		return api.Put[domain.User](ctx, s.api, api.Path("admin", "users", id, "role"), map[string]string{"role": role}).Unwrap()
	}, "User role updated")
}

// Activate enables an account
func (s *Store) Activate(ctx context.Context, id int64) *domain.User {
	return s.adminUpdate(ctx, id, func(ctx context.Context) (domain.User, error) {
		return api.Post[domain.User](ctx, s.api, api.Path("admin", "users", id, "activate"), nil).Unwrap()
	}, "User activated")
}

// Deactivate disables an account
func (s *Store) Deactivate(ctx context.Context, id int64) *domain.User {
	return s.adminUpdate(ctx, id, func(ctx context.Context) (domain.User, error) {
		return api.Post[domain.User](ctx, s.api, api.Path("admin", "users", id, "deactivate"), nil).Unwrap()
	}, "User deactivated")
}

// Delete removes an account
func (s *Store) Delete(ctx context.Context, id int64) bool {
	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("admin", "users", id)).Unwrap()
		},
		Apply:      func(st State, _ struct{}) State { return withoutUser(st, id) },
		Invalidate: func(struct{}) { s.invalidateUser(id) },
		Success:    "User deleted",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to delete user", "error", err, "id", id)
		return false
	}
	s.logger.Info("deleted user", "id", id)
	return true
}
