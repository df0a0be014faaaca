package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/suasor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/v1"}, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetDecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/people", r.URL.Path)
		assert.Equal(t, "bob", r.URL.Query().Get("query"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{
			"data":         []item{{ID: 1, Name: "bob"}},
			"page":         2,
			"totalPages":   5,
			"totalResults": 42,
		})
	})

	res := Get[[]item](context.Background(), c, "/people", url.Values{"query": {"bob"}})
	require.True(t, res.OK)
	assert.Equal(t, []item{{ID: 1, Name: "bob"}}, res.Value)
	assert.Equal(t, Page{Page: 2, TotalPages: 5, TotalResults: 42}, res.Page)
}

func TestMissingDataIsValidationError(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":null}`, ``} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(body))
		})

		res := Get[item](context.Background(), c, "/clients", nil)
		require.False(t, res.OK, body)
		require.NotNil(t, res.Err)
		assert.Equal(t, KindValidation, res.Err.Kind)
		assert.ErrorIs(t, res.Err, domain.ErrMissingData)
		assert.Equal(t, domain.ErrorTypeValidation, res.Err.Info().Type)
	}
}

func TestNon2xxIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "not_found",
			"message": "playlist not found",
		})
	})

	res := Get[item](context.Background(), c, Path("playlists", 9), nil)
	require.False(t, res.OK)
	assert.Equal(t, KindNetwork, res.Err.Kind)
	assert.Equal(t, http.StatusNotFound, res.Err.Status)
	assert.Equal(t, "playlist not found", res.Err.Message)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
	assert.True(t, IsStatus(res.Err, http.StatusNotFound))

	info := res.Err.Info()
	assert.Equal(t, domain.ErrorTypeNetwork, info.Type)
	assert.Equal(t, http.StatusNotFound, info.Details["status"])
}

func TestNestedErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "name required", "type": "BAD_INPUT", "details": map[string]any{"field": "name"}},
		})
	})

	res := Post[item](context.Background(), c, "/people", item{})
	require.False(t, res.OK)
	assert.Equal(t, "name required", res.Err.Message)
	assert.Equal(t, "BAD_INPUT", res.Err.Info().Type)
	assert.Equal(t, "name", res.Err.Details["field"])
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Config{BaseURL: srv.URL})

	res := Get[item](context.Background(), c, "/clients", nil)
	require.False(t, res.OK)
	assert.Equal(t, KindNetwork, res.Err.Kind)
	assert.Zero(t, res.Err.Status)

	_, err := res.Unwrap()
	var apiErr *Error
	assert.True(t, errors.As(err, &apiErr))
}

func TestPostSendsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in item
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = 7
		writeJSON(w, http.StatusCreated, map[string]any{"data": in})
	})

	got, err := Post[item](context.Background(), c, "/people", item{Name: "ann"}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, item{ID: 7, Name: "ann"}, got)
}

func TestDeleteAllowsEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	res := Delete[struct{}](context.Background(), c, Path("admin", "client", "plex", 1))
	assert.True(t, res.OK)
}

func TestExecAllowsEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/1/activate", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.Exec(context.Background(), http.MethodPost, "/users/1/activate", nil))
}

type fakeAuth struct {
	token     atomic.Value
	refreshes atomic.Int32
}

func (a *fakeAuth) Token(context.Context) (string, error) {
	return a.token.Load().(string), nil
}

func (a *fakeAuth) Refresh(context.Context) error {
	a.refreshes.Add(1)
	a.token.Store("fresh")
	return nil
}

func TestRefreshOn401ResendsOnce(t *testing.T) {
	auth := &fakeAuth{}
	auth.token.Store("stale")
	var calls atomic.Int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": item{ID: 1}})
	}, WithAuthenticator(auth))

	got, err := Get[item](context.Background(), c, "/users/profile", nil).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), auth.refreshes.Load())
}

func TestPersistent401IsAuthFailure(t *testing.T) {
	auth := &fakeAuth{}
	auth.token.Store("stale")
	var calls atomic.Int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "nope"})
	}, WithAuthenticator(auth))

	res := Get[item](context.Background(), c, "/users/profile", nil)
	require.False(t, res.OK)
	assert.ErrorIs(t, res.Err, domain.ErrAuthFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPathEscapesSegments(t *testing.T) {
	assert.Equal(t, "/clients/media/3/movies/genre/Sci%20Fi", Path("clients", "media", 3, "movies", "genre", "Sci Fi"))
	assert.Equal(t, "/a%2Fb", Path("a/b"))
}

func TestUploadSendsMultipartFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("avatar")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "me.png", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"filePath": "/uploads/me.png"}})
	})

	res := Upload[map[string]string](context.Background(), c, "/users/avatar", "avatar", "me.png", []byte("png-bytes"))
	require.True(t, res.OK)
	assert.Equal(t, "/uploads/me.png", res.Value["filePath"])
}
