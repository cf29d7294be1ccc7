package models

import "time"

// AuthorizationCode is a short-lived, single-use credential issued by the
// authorization step of the authorization-code grant (RFC 6749 §4.1). The
// redirect URI presented at exchange must exactly match the one recorded at
// issuance. UsedAt is set atomically on first exchange; a second exchange of
// the same code must fail.
type AuthorizationCode struct {
	Code        string `gorm:"primaryKey;column:code"`
	ClientID    string `gorm:"not null;index"`
	UserID      string `gorm:"index"` // resource owner, when known
	RedirectURI string `gorm:"not null"`
	Scopes      string `gorm:"not null;default:''"`
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

func (a *AuthorizationCode) IsExpired() bool {
	return time.Now().After(a.ExpiresAt)
}

func (a *AuthorizationCode) IsUsed() bool {
	return a.UsedAt != nil
}
