package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mmcdole/suasor/internal/api/apitest"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/kv"
	"github.com/mmcdole/suasor/internal/logging"
	"github.com/mmcdole/suasor/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, dismiss time.Duration) (*Store, *apitest.Server, *kv.Store) {
	t.Helper()
	srv := apitest.New(t)
	db, err := kv.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := New(srv.Client(), db, state.Options{Logger: logging.Discard(), SuccessDismiss: dismiss})
	t.Cleanup(s.State().Close)
	return s, srv, db
}

func TestSaveUserConfigMergesEdit(t *testing.T) {
	s, srv, _ := newStore(t, 20*time.Millisecond)
	srv.JSON(http.MethodGet, "/config/user", domain.UserConfig{Theme: "dark", Language: "en", MaxRecommendations: 10})
	srv.Handle(http.MethodPut, "/config/user", func(w http.ResponseWriter, r *http.Request) {
		var cfg domain.UserConfig
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&cfg))
		// untouched fields are sent along
		assert.Equal(t, "dark", cfg.Theme)
		assert.Equal(t, 25, cfg.MaxRecommendations)
		apitest.WriteData(w, http.StatusOK, cfg)
	})
	require.NotNil(t, s.LoadUserConfig(context.Background()))

	saved := s.SaveUserConfig(context.Background(), func(c *domain.UserConfig) { c.MaxRecommendations = 25 })
	require.NotNil(t, saved)
	assert.Equal(t, "User settings saved successfully", s.State().State().Success)
	assert.Equal(t, 25, s.State().Data().User.MaxRecommendations)

	assert.Eventually(t, func() bool { return s.State().State().Success == "" }, time.Second, 5*time.Millisecond)

	s.LoadUserConfig(context.Background())
	assert.Equal(t, 2, srv.Calls(http.MethodGet, "/config/user"))
}

func TestSaveUserConfigFailureKeepsGenres(t *testing.T) {
	s, srv, _ := newStore(t, 0)
	srv.JSON(http.MethodGet, "/config/user", domain.UserConfig{
		PreferredGenres: []string{"drama", "sci-fi"},
		ExcludedGenres:  []string{"horror"},
	})
	srv.Fail(http.MethodPut, "/config/user", http.StatusInternalServerError, "database unavailable")
	require.NotNil(t, s.LoadUserConfig(context.Background()))

	saved := s.SaveUserConfig(context.Background(), func(c *domain.UserConfig) {
		c.PreferredGenres[0] = "horror"
		c.ExcludedGenres[0] = "drama"
	})
	assert.Nil(t, saved)

	st := s.State().State()
	require.NotNil(t, st.Error)
	assert.Equal(t, []string{"drama", "sci-fi"}, st.Data.User.PreferredGenres)
	assert.Equal(t, []string{"horror"}, st.Data.User.ExcludedGenres)

	cached, ok := s.user.Get(keyUser)
	require.True(t, ok)
	assert.Equal(t, []string{"drama", "sci-fi"}, cached.PreferredGenres)
	assert.Equal(t, []string{"horror"}, cached.ExcludedGenres)
}

func TestSaveSystemConfigFailureKeepsConfig(t *testing.T) {
	s, srv, _ := newStore(t, 0)
	srv.JSON(http.MethodGet, "/admin/config", domain.SystemConfig{Port: 8080, LogLevel: "info"})
	srv.Fail(http.MethodPut, "/admin/config", http.StatusForbidden, "admin only")
	s.LoadSystemConfig(context.Background())

	assert.Nil(t, s.SaveSystemConfig(context.Background(), func(c *domain.SystemConfig) { c.LogLevel = "debug" }))
	st := s.State().State()
	assert.Equal(t, "info", st.Data.System.LogLevel)
	require.NotNil(t, st.Error)
	assert.Equal(t, "admin only", st.Error.Message)
}

func TestPreferencesPersist(t *testing.T) {
	s, _, db := newStore(t, 0)
	assert.Equal(t, domain.DefaultAppPreferences(), s.Preferences())

	require.NoError(t, s.UpdatePreferences(func(p *domain.AppPreferences) {
		p.Theme = "dark"
		p.SidebarCollapsed = true
	}))
	raw, ok := db.Get(KeyPreferences)
	require.True(t, ok)
	assert.Contains(t, raw, `"theme":"dark"`)

	// a new store over the same kv sees the saved preferences
	again := New(s.api, db, state.Options{Logger: logging.Discard()})
	assert.Equal(t, "dark", again.Preferences().Theme)
	assert.Equal(t, "en", again.Preferences().Language)

	require.NoError(t, s.ResetPreferences())
	assert.Equal(t, domain.DefaultAppPreferences(), s.Preferences())
}

func TestCorruptPreferencesFallBackToDefaults(t *testing.T) {
	_, srv, db := newStore(t, 0)
	require.NoError(t, db.Set(KeyPreferences, "{not json"))

	s := New(srv.Client(), db, state.Options{Logger: logging.Discard()})
	assert.Equal(t, domain.DefaultAppPreferences(), s.Preferences())
}
