package models

import (
	"time"
)

// User represents a local account, created either explicitly or implicitly
// when a social identity signs up for the first time
type User struct {
	ID          string `gorm:"primaryKey"`
	Username    string `gorm:"uniqueIndex;not null"`
	DisplayName string // Display name copied from the first connected profile
	ImageURL    string // Avatar URL from the first connected profile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by User to `users`
func (User) TableName() string {
	return "users"
}
