package model

import "time"

// Roles recognized by the platform.
const (
	RoleUser      = "user"
	RoleNotary    = "notary"
	RoleSecretary = "secretary"
	RoleAdmin     = "admin"
)

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
