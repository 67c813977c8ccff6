package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the user role for authorization.
type Role string

const (
	RoleHost    Role = "host"
	RoleStudent Role = "student"
)

// User represents a platform user.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Password     string     `json:"-"` // bcrypt hash
	FullName     string     `json:"full_name"`
	Role         Role       `json:"role"`
	AvatarURL    string     `json:"avatar_url"`
	Bio          string     `json:"bio"`
	ResetToken   string     `json:"-"`
	ResetExpires *time.Time `json:"-"`
	ResetUsed    bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserPublic is the user representation safe to return to clients.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic strips credential fields.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}
