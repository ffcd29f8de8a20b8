package models

// Identity is the verified caller carried by a bearer token.
type Identity struct {
	UserID string
	Email  string
}
