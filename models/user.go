package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:64;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:32;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	// Headline and Bio are optional and rendered as empty strings, never null.
	Headline  string    `gorm:"size:256" json:"headline"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// UserUpdate is a partial update: nil fields keep their current value.
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Headline *string `json:"headline,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Password *string `json:"password,omitempty"`
}
