package domain

// User is an account on the server
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar,omitempty"`
	IsActive bool   `json:"isActive"`
}

// ProfileUpdate is the payload for updating the current user's profile
type ProfileUpdate struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// PasswordChange is the payload for changing the current user's password
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthData is returned by login and token refresh
type AuthData struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// UserList is one page of the admin user listing
type UserList struct {
	Users      []User `json:"users"`
	TotalPages int    `json:"totalPages"`
	TotalUsers int    `json:"totalUsers"`
}

// Role values
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
