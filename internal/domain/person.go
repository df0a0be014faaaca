package domain

// Person is a cast or crew member
type Person struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Biography   string            `json:"biography,omitempty"`
	BirthDate   string            `json:"birthDate,omitempty"`
	DeathDate   string            `json:"deathDate,omitempty"`
	Photo       string            `json:"photo,omitempty"`
	KnownFor    string            `json:"knownForDepartment,omitempty"`
	ExternalIDs map[string]string `json:"externalIds,omitempty"`
}

// Credit links a person to a media item
type Credit struct {
	ID          int64  `json:"id"`
	PersonID    int64  `json:"personId"`
	MediaItemID string `json:"mediaItemId"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role"`
	Character   string `json:"character,omitempty"`
	Department  string `json:"department,omitempty"`
	Job         string `json:"job,omitempty"`
	Order       int    `json:"order,omitempty"`
}

// PersonSearchQuery narrows a people search
type PersonSearchQuery struct {
	Query      string `json:"query,omitempty"`
	Department string `json:"department,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// PersonImportRequest asks the server to import a person from a metadata provider
type PersonImportRequest struct {
	Source     string `json:"source"`
	ExternalID string `json:"externalId"`
}
