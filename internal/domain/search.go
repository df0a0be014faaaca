package domain

// SearchSource identifies where a search result came from
type SearchSource string

const (
	SourceLocal     SearchSource = "local"     // server database
	SourceClient    SearchSource = "client"    // media clients (Plex, Emby, ...)
	SourceMetadata  SearchSource = "metadata"  // metadata providers (TMDB, ...)
	SourceRecent    SearchSource = "recent"    // recent searches
	SourceSuggested SearchSource = "suggested" // suggested searches
)

// SearchSources are the sources queried by a search, in merge order
var SearchSources = []SearchSource{SourceLocal, SourceClient, SourceMetadata}

// SearchResultItem is one entry of a merged search result list
type SearchResultItem struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Type      MediaType      `json:"type"`
	Source    SearchSource   `json:"source"`
	Year      int            `json:"year,omitempty"`
	Poster    string         `json:"poster,omitempty"`
	Subtitle  string         `json:"subtitle,omitempty"`
	InLibrary *bool          `json:"inLibrary,omitempty"`
	Rating    float64        `json:"rating,omitempty"`
	Genres    []string       `json:"genre,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// IsInLibrary reports whether the item is flagged as present in the library
func (r SearchResultItem) IsInLibrary() bool {
	return r.InLibrary != nil && *r.InLibrary
}

// Range is an optional inclusive bound; zero values are unset
type Range[T int | float64] struct {
	Min T `json:"min,omitempty"`
	Max T `json:"max,omitempty"`
}

// SearchFilters narrows search results. Zero values mean "no filter".
type SearchFilters struct {
	MediaType MediaType       `json:"mediaType,omitempty"`
	Year      *Range[int]     `json:"year,omitempty"`
	Genres    []string        `json:"genres,omitempty"`
	Rating    *Range[float64] `json:"rating,omitempty"`
	InLibrary *bool           `json:"inLibrary,omitempty"`
	Sources   []SearchSource  `json:"sources,omitempty"`
	Limit     int             `json:"limit,omitempty"`
}

// DefaultSearchFilters returns filters that match everything from every source
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		MediaType: MediaTypeAll,
		Sources:   append([]SearchSource(nil), SearchSources...),
	}
}

// HasSource reports whether src is enabled. An empty source list enables all sources.
func (f SearchFilters) HasSource(src SearchSource) bool {
	if f.Sources == nil {
		return true
	}
	for _, s := range f.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// ResultTypeRecent is the Type of recent-search rows
const ResultTypeRecent MediaType = "recent"
