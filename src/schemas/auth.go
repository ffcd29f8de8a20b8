package schemas

import "encoding/json"

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest keeps AvatarURL raw so an explicit null (clear) can be told
// apart from an absent field (keep).
type UpdateUserRequest struct {
	CurrentPassword string          `json:"currentPassword"`
	NewPassword     string          `json:"newPassword"`
	AvatarURL       json.RawMessage `json:"avatarUrl"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	AccessToken string   `json:"accessToken"`
	User        AuthUser `json:"user"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
}
