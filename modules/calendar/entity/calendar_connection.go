package entity

import (
	"time"

	"smartschedule/core/entity"

	"github.com/google/uuid"
)

const (
	ProviderGoogle = "google"
	ProviderICS    = "ics"
)

// CalendarConnection stores a user's calendar provider credentials.
type CalendarConnection struct {
	entity.BaseEntity
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Provider       string    `db:"provider" json:"provider"` // "google" | "ics"
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CalendarEmail  string    `db:"calendar_email" json:"calendar_email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

// Expired reports whether the stored access token is no longer usable at now.
func (c *CalendarConnection) Expired(now time.Time) bool {
	return !c.TokenExpiresAt.IsZero() && !now.Before(c.TokenExpiresAt)
}
