package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the single role a user holds.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole converts s into a Role. The match is exact: roles travel in
// signed tokens and in the database, never in free text.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null;size:50"`
	HashedPassword string    `gorm:"not null"`
	Role           Role      `gorm:"type:varchar(16);not null;default:'User'"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}
