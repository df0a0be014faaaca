package mediaitem

import (
	"fmt"

	"github.com/mmcdole/suasor/internal/domain"
)

// collection returns the path segments of the per-type endpoint tree
func collection(t domain.MediaType) ([]any, error) {
	switch t {
	case domain.MediaTypeMovie:
		return []any{"movies"}, nil
	case domain.MediaTypeSeries:
		return []any{"series"}, nil
	case domain.MediaTypeAlbum:
		return []any{"music", "albums"}, nil
	case domain.MediaTypeArtist:
		return []any{"music", "artists"}, nil
	case domain.MediaTypeTrack:
		return []any{"music", "tracks"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupported, t)
	}
}

func join(parts ...[]any) []any {
	var out []any
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// recentPath: /clients/media/{client}/{collection}/recent/{limit}
func recentPath(clientID int64, t domain.MediaType, limit int) ([]any, error) {
	coll, err := collection(t)
	if err != nil {
		return nil, err
	}
	return join([]any{"clients", "media", clientID}, coll, []any{"recent", limit}), nil
}

// genrePath: /{collection}/genre/{genre} for albums, artists, movies and series
func genrePath(t domain.MediaType, genre string) ([]any, error) {
	if t == domain.MediaTypeTrack {
		return nil, fmt.Errorf("%w: genre listing for %q", domain.ErrUnsupported, t)
	}
	coll, err := collection(t)
	if err != nil {
		return nil, err
	}
	return join(coll, []any{"genre", genre}), nil
}

// yearPath: /{collection}/year/{year} for albums and movies, /media/items otherwise
func yearPath(t domain.MediaType, year int) []any {
	switch t {
	case domain.MediaTypeAlbum, domain.MediaTypeMovie:
		coll, _ := collection(t)
		return join(coll, []any{"year", year})
	default:
		return []any{"media", "items"}
	}
}

// popularPath: /{collection}/popular/{limit}
func popularPath(t domain.MediaType, limit int) ([]any, error) {
	if t == domain.MediaTypeTrack {
		return nil, fmt.Errorf("%w: popular listing for %q", domain.ErrUnsupported, t)
	}
	coll, err := collection(t)
	if err != nil {
		return nil, err
	}
	return join(coll, []any{"popular", limit}), nil
}

// searchPath picks the type-specific search endpoint
func searchPath(t domain.MediaType) []any {
	switch {
	case t.IsMusic():
		return []any{"music", "search"}
	case t == domain.MediaTypeMovie:
		return []any{"movies", "search"}
	case t == domain.MediaTypeSeries:
		return []any{"series", "search"}
	default:
		return []any{"media", "search"}
	}
}

// detailsPath: /{collection}/{id}
func detailsPath(t domain.MediaType, id string) ([]any, error) {
	coll, err := collection(t)
	if err != nil {
		return nil, err
	}
	return join(coll, []any{id}), nil
}

// trendingPath: /clients/media/{client}/{collection}/trending/{limit}
func trendingPath(clientID int64, t domain.MediaType, limit int) ([]any, error) {
	coll, err := collection(t)
	if err != nil {
		return nil, err
	}
	return join([]any{"clients", "media", clientID}, coll, []any{"trending", limit}), nil
}

// recommendedPath: /ai/recommendations, scoped by query parameters
func recommendedPath() []any {
	return []any{"ai", "recommendations"}
}

// collectionsPath: /clients/media/{client}/collections
func collectionsPath(clientID int64) []any {
	return []any{"clients", "media", clientID, "collections"}
}

// watchlistPath: /clients/media/{client}/watchlist[/{id}]
func watchlistPath(clientID int64, id ...any) []any {
	return append([]any{"clients", "media", clientID, "watchlist"}, id...)
}
