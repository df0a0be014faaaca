package domain

// UserConfig holds per-user server-side settings
type UserConfig struct {
	Theme                   string   `json:"theme,omitempty"`
	Language                string   `json:"language,omitempty"`
	RecommendationStrategy  string   `json:"recommendationStrategy,omitempty"`
	RecommendationFrequency string   `json:"recommendationFrequency,omitempty"`
	MaxRecommendations      int      `json:"maxRecommendations,omitempty"`
	PreferredGenres         []string `json:"preferredGenres,omitempty"`
	ExcludedGenres          []string `json:"excludedGenres,omitempty"`
	SyncFrequency           string   `json:"syncFrequency,omitempty"`
	NotificationsEnabled    bool     `json:"notificationsEnabled"`
	DefaultClientID         int64    `json:"defaultClientId,omitempty"`
}

// SystemConfig holds server-wide settings, editable by admins
type SystemConfig struct {
	AppURL            string `json:"appURL,omitempty"`
	Port              int    `json:"port,omitempty"`
	LogLevel          string `json:"logLevel,omitempty"`
	MaxUsers          int    `json:"maxUsers,omitempty"`
	RegistrationOpen  bool   `json:"registrationOpen"`
	DefaultUserRole   string `json:"defaultUserRole,omitempty"`
	SessionTimeoutMin int    `json:"sessionTimeoutMinutes,omitempty"`
	MetadataProvider  string `json:"metadataProvider,omitempty"`
}

// AppPreferences are local, per-device preferences
type AppPreferences struct {
	Theme            string `json:"theme"`
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
	ActiveTab        string `json:"activeTab"`
	Language         string `json:"language"`
	LastVisitedPage  string `json:"lastVisitedPage"`
}

// DefaultAppPreferences returns the preferences used before anything is saved
func DefaultAppPreferences() AppPreferences {
	return AppPreferences{
		Theme:            "system",
		SidebarCollapsed: false,
		ActiveTab:        "user",
		Language:         "en",
		LastVisitedPage:  "/",
	}
}
