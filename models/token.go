package models

import (
	"time"
)

// Token categories.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Token statuses.
const (
	TokenStatusActive  = "active"
	TokenStatusRevoked = "revoked"
)

// Token is an issued access or refresh token. Both share the same shape and
// table, distinguished by Type. The Token string is opaque and unique; the
// scope set is always the intersection of what was requested and what the
// originating client, code, or credentials permit.
type Token struct {
	Token        string `gorm:"primaryKey;column:token"`
	Type         string `gorm:"not null;default:'access';index"`
	Status       string `gorm:"not null;default:'active';index"`
	ClientID     string `gorm:"not null;index"`
	UserID       string `gorm:"index"` // empty for client-credentials tokens
	Scopes       string `gorm:"not null;default:''"`
	ExpiresAt    time.Time
	RefreshToken string `gorm:"index"` // paired refresh token when Type=access
	CreatedAt    time.Time
}

func (t *Token) IsExpired() bool {
	return t.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the token is expired relative to now. Expiration
// is checked lazily at validation time against a request-time clock read.
func (t *Token) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *Token) IsActive() bool {
	return t.Status == TokenStatusActive
}

func (t *Token) IsAccessToken() bool {
	return t.Type == TokenTypeAccess
}

func (t *Token) IsRefreshToken() bool {
	return t.Type == TokenTypeRefresh
}

// ExpiresIn returns the whole seconds until expiry, never negative.
func (t *Token) ExpiresIn(now time.Time) int64 {
	d := t.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}
