package models

import (
	"time"
)

// User represents a user record in the database
type User struct {
	ID           int64     `json:"id" db:"id"`                 // Primary key, assigned by the store
	Email        string    `json:"email" db:"email"`           // Unique email, also the login
	Name         string    `json:"name" db:"name"`             // Display name
	PasswordHash string    `json:"-" db:"password_hash"`       // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}

// UserProfile is the public view of a user.
// swagger:model UserProfile
type UserProfile struct {
	// example: 1
	ID int64 `json:"id"`
	// example: Alice
	Name string `json:"name"`
	// example: alice@example.com
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile strips the credential fields from u.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
