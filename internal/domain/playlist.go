package domain

// Playlist is a user-owned ordered collection of media items
type Playlist struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic"`
	OwnerID     int64  `json:"ownerId,omitempty"`
	ItemCount   int    `json:"itemCount"`
}

// PlaylistItem is one entry of a playlist
type PlaylistItem struct {
	ID          int64      `json:"id"`
	PlaylistID  int64      `json:"playlistId"`
	MediaItemID string     `json:"mediaItemId"`
	Position    int        `json:"order"`
	Item        *MediaItem `json:"item,omitempty"`
}

// PlaylistRequest is the payload for creating or updating a playlist
type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic"`
}

// PlaylistItemOrder assigns a position to one playlist item
type PlaylistItemOrder struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

// PlaylistItemRequest adds one media item to a playlist
type PlaylistItemRequest struct {
	MediaItemID string `json:"mediaItemId"`
	Order       int    `json:"order"`
}
