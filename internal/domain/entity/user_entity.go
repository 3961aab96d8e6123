package entity

import (
	"time"
)

// Roles a user can hold. There is no separate roles table; the role is a
// property of the account and travels inside issued tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the aggregate root for the credential store.
// Password holds a bcrypt hash, never plaintext.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
