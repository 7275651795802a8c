package model

import "time"

// Role names accepted by the API.  The role travels in the JWT "role"
// claim and gates the crew overview and roster endpoints.
const (
	RoleAstronaut  = "astronaut"
	RoleSupervisor = "supervisor"
	RoleMedical    = "medical"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAstronaut, RoleSupervisor, RoleMedical:
		return true
	}
	return false
}

// User represents an account as returned by the auth endpoints.  The
// password hash never leaves the repository layer, so it has no field
// here.
//
// Fields:
//
//	ID          – opaque account identifier (uuid).
//	Email       – login identity, stored lower-cased.
//	FullName    – display name shown in the dashboard header.
//	Role        – astronaut, supervisor or medical.
//	AstronautID – the subject whose telemetry this account owns.
//	AvatarURL   – optional profile picture.
//	CreatedAt   – account creation time.
//	LastLogin   – time of the most recent successful login (nil if never).
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	AstronautID string     `json:"astronaut_id"`
	AvatarURL   *string    `json:"avatar_url"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	AstronautID string `json:"astronaut_id,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// ProfileUpdate carries the fields a user may change about themselves.
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
