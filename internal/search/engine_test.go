package search

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
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

func newEngine(t *testing.T) (*Engine, *apitest.Server, *kv.Store) {
	t.Helper()
	srv := apitest.New(t)
	db, err := kv.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	e := New(srv.Client(), db, state.Options{Logger: logging.Discard()})
	t.Cleanup(e.Close)
	return e, srv, db
}

type hit map[string]any

func TestSearchIsolatesFailingSource(t *testing.T) {
	e, srv, _ := newEngine(t)
	srv.Fail(http.MethodGet, "/search", http.StatusInternalServerError, "database unavailable")
	srv.JSON(http.MethodGet, "/search/clients", []hit{{"id": "c1", "title": "Dune", "mediaType": "movie", "sourceName": "Plex"}})
	srv.JSON(http.MethodGet, "/search/metadata", []hit{{"id": "t1", "title": "Dune", "mediaType": "movie", "provider": "TMDB"}})

	e.SetQuery("dune")
	e.Search(context.Background())

	st := e.State().State()
	assert.False(t, st.Loading)
	assert.True(t, st.Data.Local.Done)
	assert.Equal(t, "database unavailable", st.Data.Local.Error)
	assert.Len(t, st.Data.Client.Items, 1)
	assert.Len(t, st.Data.Metadata.Items, 1)

	status := e.Status()
	assert.True(t, status.IsDone)
	assert.True(t, status.HasError)
	assert.False(t, status.IsLoading)
}

func TestSearchConvertsHits(t *testing.T) {
	e, srv, _ := newEngine(t)
	srv.Handle(http.MethodGet, "/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "arrival", q.Get("query"))
		assert.Equal(t, "local", q.Get("source"))
		assert.Equal(t, "movie", q.Get("mediaType"))
		assert.Equal(t, "2010", q.Get("yearMin"))
		assert.Equal(t, "drama,sci-fi", q.Get("genres"))
		apitest.WriteData(w, http.StatusOK, []hit{{
			"id": "l1", "title": "Arrival", "mediaType": "movie", "year": 2016,
			"overview": "A linguist works with the military to communicate with alien lifeforms.",
			"genres":   []string{"sci-fi"}, "rating": 7.9,
		}})
	})

	e.SetQuery("arrival")
	e.SetFilters(func(f *domain.SearchFilters) {
		f.MediaType = domain.MediaTypeMovie
		f.Year = &domain.Range[int]{Min: 2010}
		f.Genres = []string{"drama", "sci-fi"}
		f.Sources = []domain.SearchSource{domain.SourceLocal}
	})
	e.Search(context.Background())

	items := e.State().Data().Local.Items
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, domain.SourceLocal, it.Source)
	assert.Equal(t, domain.MediaTypeMovie, it.Type)
	assert.True(t, it.IsInLibrary())
	assert.Equal(t, "A linguist works with the military to communicate ", it.Subtitle)
	assert.Equal(t, "l1", it.Details["id"])

	// disabled sources are never called and do not hold up completion
	assert.Equal(t, 0, srv.Calls(http.MethodGet, "/search/metadata"))
	assert.True(t, e.Status().IsDone)
}

func TestSearchUsesCache(t *testing.T) {
	e, srv, _ := newEngine(t)
	srv.JSON(http.MethodGet, "/search", []hit{{"id": "l1", "title": "Heat"}})
	srv.JSON(http.MethodGet, "/search/clients", []hit{})
	srv.JSON(http.MethodGet, "/search/metadata", []hit{})

	e.SetQuery("heat")
	e.Search(context.Background())
	e.Search(context.Background())
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/search"))

	// different filters miss the cache
	e.SetFilters(func(f *domain.SearchFilters) { f.Limit = 5 })
	e.Search(context.Background())
	assert.Equal(t, 2, srv.Calls(http.MethodGet, "/search"))
}

func TestBlankQueryResetsBuckets(t *testing.T) {
	e, srv, _ := newEngine(t)
	srv.JSON(http.MethodGet, "/search", []hit{{"id": "l1", "title": "Heat"}})
	srv.JSON(http.MethodGet, "/search/clients", []hit{})
	srv.JSON(http.MethodGet, "/search/metadata", []hit{})
	e.SetQuery("heat")
	e.Search(context.Background())
	require.Len(t, e.AllResults(), 1)

	e.SetQuery("   ")
	e.Search(context.Background())
	assert.Empty(t, e.State().Data().Local.Items)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/search"))
}

func TestMetadataReconciledWhenLocalSettlesLater(t *testing.T) {
	e, srv, _ := newEngine(t)
	release := make(chan struct{})
	srv.Handle(http.MethodGet, "/search", func(w http.ResponseWriter, r *http.Request) {
		<-release
		apitest.WriteData(w, http.StatusOK, []hit{{"id": "shared", "title": "Alien"}})
	})
	srv.JSON(http.MethodGet, "/search/clients", []hit{})
	srv.JSON(http.MethodGet, "/search/metadata", []hit{
		{"id": "shared", "title": "Alien"},
		{"id": "other", "title": "Aliens"},
	})

	e.SetQuery("alien")
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Search(context.Background())
	}()

	require.Eventually(t, func() bool { return e.State().Data().Metadata.Done }, time.Second, 5*time.Millisecond)
	assert.False(t, e.State().Data().Metadata.Items[0].IsInLibrary())

	close(release)
	<-done

	meta := e.State().Data().Metadata.Items
	assert.True(t, meta[0].IsInLibrary())
	assert.False(t, meta[1].IsInLibrary())
}

func TestLateResultsOfSupersededRunAreDropped(t *testing.T) {
	e, srv, _ := newEngine(t)
	release := make(chan struct{})
	srv.Handle(http.MethodGet, "/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "slow" {
			<-release
		}
		apitest.WriteData(w, http.StatusOK, []hit{{"id": r.URL.Query().Get("query"), "title": "x"}})
	})
	e.SetFilters(func(f *domain.SearchFilters) { f.Sources = []domain.SearchSource{domain.SourceLocal} })

	e.SetQuery("slow")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Search(context.Background())
	}()
	require.Eventually(t, func() bool { return e.State().Data().Local.Loading }, time.Second, 5*time.Millisecond)

	e.SetQuery("fast")
	e.Search(context.Background())
	close(release)
	wg.Wait()

	items := e.State().Data().Local.Items
	require.Len(t, items, 1)
	assert.Equal(t, "fast", items[0].ID)
	assert.False(t, e.State().State().Loading)
}

func TestRerunSurvivesCancelOfEarlierRun(t *testing.T) {
	e, srv, _ := newEngine(t)
	release := make(chan struct{})
	srv.Handle(http.MethodGet, "/search", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		apitest.WriteData(w, http.StatusOK, []hit{{"id": "l1", "title": "Dune"}})
	})
	e.SetFilters(func(f *domain.SearchFilters) { f.Sources = []domain.SearchSource{domain.SourceLocal} })
	e.SetQuery("dune")

	ctx1, cancel1 := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Search(ctx1)
	}()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodGet, "/search") == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Search(context.Background())
	}()
	require.Eventually(t, func() bool { return e.generation.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancel1()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	st := e.State().Data()
	assert.True(t, st.Local.Done)
	assert.Empty(t, st.Local.Error)
	require.Len(t, st.Local.Items, 1)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/search"))
}

func TestCancelledSearchLeavesNoLoadingBucket(t *testing.T) {
	e, srv, _ := newEngine(t)
	srv.Handle(http.MethodGet, "/search", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	e.SetFilters(func(f *domain.SearchFilters) { f.Sources = []domain.SearchSource{domain.SourceLocal} })
	e.SetQuery("anything")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	e.Search(ctx)

	st := e.State().State()
	assert.False(t, st.Data.Local.Loading)
	assert.Empty(t, st.Data.Local.Error)
	assert.False(t, e.Status().IsLoading)
}

func TestSuggestions(t *testing.T) {
	e, srv, _ := newEngine(t)
	srv.JSON(http.MethodGet, "/search/suggestions", []string{"the matrix", "the matrix reloaded"})

	e.SetQuery("m")
	assert.Empty(t, e.Suggestions(context.Background()))
	assert.Equal(t, 0, srv.Calls(http.MethodGet, "/search/suggestions"))

	e.SetQuery("matr")
	assert.Equal(t, []string{"the matrix", "the matrix reloaded"}, e.Suggestions(context.Background()))
	assert.Equal(t, []string{"the matrix", "the matrix reloaded"}, e.State().Data().SuggestedSearches)

	srv.Fail(http.MethodGet, "/search/suggestions", http.StatusBadGateway, "down")
	assert.Empty(t, e.Suggestions(context.Background()))
}

func seed(e *Engine, items ...domain.SearchResultItem) {
	e.state.Update(func(st State) State {
		st.Query = "q"
		st.Local = Bucket{Items: items, Done: true}
		return st
	})
}

func TestSelectionWraps(t *testing.T) {
	e, _, _ := newEngine(t)
	seed(e, domain.SearchResultItem{ID: "a"}, domain.SearchResultItem{ID: "b"}, domain.SearchResultItem{ID: "c"})

	e.MoveSelection(Up)
	assert.Equal(t, "c", e.Selected().ID)
	e.MoveSelection(Down)
	assert.Equal(t, "a", e.Selected().ID)

	e.SetSelected(7)
	assert.Equal(t, "a", e.Selected().ID)
	e.SetSelected(-1)
	assert.Nil(t, e.Selected())
	e.MoveSelection(Down)
	assert.Equal(t, "a", e.Selected().ID)

	e.SetQuery("other")
	assert.Equal(t, -1, e.State().Data().SelectedIndex)
}

func TestClearSearchRestoresDefaults(t *testing.T) {
	e, _, _ := newEngine(t)
	seed(e, domain.SearchResultItem{ID: "a"})
	e.SetFilters(func(f *domain.SearchFilters) { f.MediaType = domain.MediaTypeAlbum })

	e.ClearSearch()
	st := e.State().Data()
	assert.Empty(t, st.Query)
	assert.Equal(t, domain.DefaultSearchFilters(), st.Filters)
	assert.Empty(t, st.Local.Items)
	assert.Equal(t, -1, st.SelectedIndex)
}

func TestConvertKeepsRawDetails(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id":"x1","title":"Dune","mediaType":"movie","provider":"tmdb","popularity":9.5}`),
		json.RawMessage(`null`),
	}

	items, err := convert(domain.SourceMetadata, raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "x1", items[0].Details["id"])
	assert.Equal(t, 9.5, items[0].Details["popularity"])
	assert.Nil(t, items[1].Details)

	_, err = convert(domain.SourceMetadata, []json.RawMessage{json.RawMessage(`[1]`)})
	assert.Error(t, err)
}
