package domain

import "strings"

// ClientType identifies an external integration
type ClientType string

const (
	ClientTypePlex     ClientType = "plex"
	ClientTypeEmby     ClientType = "emby"
	ClientTypeJellyfin ClientType = "jellyfin"
	ClientTypeSubsonic ClientType = "subsonic"
	ClientTypeSonarr   ClientType = "sonarr"
	ClientTypeRadarr   ClientType = "radarr"
	ClientTypeLidarr   ClientType = "lidarr"
	ClientTypeOpenAI   ClientType = "openai"
	ClientTypeClaude   ClientType = "claude"
	ClientTypeOllama   ClientType = "ollama"
)

// ClientCategory groups client types by what they do
type ClientCategory string

const (
	ClientCategoryMedia      ClientCategory = "media"
	ClientCategoryAutomation ClientCategory = "automation"
	ClientCategoryAI         ClientCategory = "ai"
)

// CategoryFor derives the category of a client type. Unknown types are AI clients.
func CategoryFor(t ClientType) ClientCategory {
	s := strings.ToLower(string(t))
	switch {
	case strings.Contains(s, "emby"), strings.Contains(s, "jellyfin"),
		strings.Contains(s, "plex"), strings.Contains(s, "subsonic"):
		return ClientCategoryMedia
	case strings.Contains(s, "sonarr"), strings.Contains(s, "radarr"), strings.Contains(s, "lidarr"):
		return ClientCategoryAutomation
	default:
		return ClientCategoryAI
	}
}

// ClientConfig holds connection settings for an integration
type ClientConfig struct {
	ClientType ClientType     `json:"clientType"`
	Category   ClientCategory `json:"category"`
	BaseURL    string         `json:"baseURL"`
	APIKey     string         `json:"apiKey,omitempty"`
	Username   string         `json:"username,omitempty"`
	Password   string         `json:"password,omitempty"`
	Token      string         `json:"token,omitempty"`
}

// Client is a configured integration owned by the current user
type Client struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	ClientType ClientType     `json:"clientType"`
	Category   ClientCategory `json:"category,omitempty"`
	IsEnabled  bool           `json:"isEnabled"`
	Config     ClientConfig   `json:"client"`
}

// ClientRequest is the payload for creating or updating a client
type ClientRequest struct {
	Name       string       `json:"name"`
	IsEnabled  bool         `json:"isEnabled"`
	ClientType ClientType   `json:"clientType"`
	Client     ClientConfig `json:"client"`
}

// ConnectionResult reports the outcome of a client connection test
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}
