package domain

// MediaType distinguishes content types served by media clients.
type MediaType string

const (
	MediaTypeMovie    MediaType = "movie"
	MediaTypeSeries   MediaType = "series"
	MediaTypeTrack    MediaType = "track"
	MediaTypeAlbum    MediaType = "album"
	MediaTypeArtist   MediaType = "artist"
	MediaTypePlaylist MediaType = "playlist"

	// MediaTypeAll disables media type filtering
	MediaTypeAll MediaType = "all"
)

// MediaTypes lists every concrete media type
var MediaTypes = []MediaType{
	MediaTypeMovie,
	MediaTypeSeries,
	MediaTypeTrack,
	MediaTypeAlbum,
	MediaTypeArtist,
	MediaTypePlaylist,
}

// Valid reports whether t is a known concrete media type
func (t MediaType) Valid() bool {
	for _, m := range MediaTypes {
		if m == t {
			return true
		}
	}
	return false
}

// IsMusic reports whether t lives under the music endpoints
func (t MediaType) IsMusic() bool {
	return t == MediaTypeTrack || t == MediaTypeAlbum || t == MediaTypeArtist
}

// MediaItem is a single piece of content known to the server or a media client
type MediaItem struct {
	ID          string            `json:"id"`
	Type        MediaType         `json:"type"`
	ClientID    int64             `json:"clientId,omitempty"`
	Title       string            `json:"title"`
	Overview    string            `json:"overview,omitempty"`
	Year        int               `json:"year,omitempty"`
	Rating      float64           `json:"rating,omitempty"`
	Genres      []string          `json:"genres,omitempty"`
	Poster      string            `json:"poster,omitempty"`
	ExternalIDs map[string]string `json:"externalIds,omitempty"`
	AddedAt     int64             `json:"addedAt,omitempty"`
}

// MediaItemRequest is the payload for creating or updating a media item
type MediaItemRequest struct {
	ClientID    int64             `json:"clientId"`
	Type        MediaType         `json:"type"`
	Title       string            `json:"title"`
	Overview    string            `json:"overview,omitempty"`
	Year        int               `json:"year,omitempty"`
	Genres      []string          `json:"genres,omitempty"`
	ExternalIDs map[string]string `json:"externalIds,omitempty"`
}

// MediaSearchQuery narrows a media item search
type MediaSearchQuery struct {
	Query     string    `json:"query"`
	Type      MediaType `json:"mediaType,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Year      int       `json:"year,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder string    `json:"sortOrder,omitempty"`
}

// MediaCollection is a named group of items curated on a media client
type MediaCollection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemIDs     []string  `json:"mediaIds"`
	Type        MediaType `json:"mediaType"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   string    `json:"createdAt,omitempty"`
	UpdatedAt   string    `json:"updatedAt,omitempty"`
}
