package models

import (
	"time"
)

// UserConnection represents one link between a local user and an external
// provider identity. The composite primary key makes a given provider
// identity connectable at most once per user.
type UserConnection struct {
	UserID         string `gorm:"primaryKey;index:idx_user_provider_rank,priority:1"`
	ProviderID     string `gorm:"primaryKey;index:idx_user_provider_rank,priority:2"`
	ProviderUserID string `gorm:"primaryKey"`

	// Rank orders a user's connections within one provider; 1 is primary
	Rank int `gorm:"column:rank;not null;index:idx_user_provider_rank,priority:3"`

	// Profile snapshot taken at connect time
	DisplayName string
	ProfileURL  string
	ImageURL    string

	// Credential material (stored encrypted when an encryptor is configured)
	AccessToken  string `gorm:"type:text;not null"`
	Secret       string `gorm:"type:text"` // OAuth1 token secret
	RefreshToken string `gorm:"type:text"` // OAuth2 refresh token
	ExpireTime   int64  // Epoch millis; 0 means the token does not expire

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by UserConnection to `user_connections`
func (UserConnection) TableName() string {
	return "user_connections"
}
