package models

import "time"

// Role is the user's capability tier. Author and Admin are the privileged
// tiers whose project edits are versioned.
type Role string

const (
	RoleReader Role = "reader"
	RoleAuthor Role = "author"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the defined tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleAuthor, RoleAdmin:
		return true
	}
	return false
}

// Privileged reports whether edits by this role keep version history.
func (r Role) Privileged() bool {
	return r == RoleAuthor || r == RoleAdmin
}

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  string    `gorm:"type:varchar(64);not null" json:"display_name"`
	Role         Role      `gorm:"type:varchar(16);not null;default:reader" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
