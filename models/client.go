package models

import (
	"database/sql/driver"
	"encoding/base32"
	"encoding/json"
	"errors"
	"time"

	"github.com/ash-rain/oauth2-server/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Base32 characters, but lowercased.
const lowerBase32Chars = "abcdefghijklmnopqrstuvwxyz234567"

// base32 encoder that uses lowered characters without padding.
var base32Lower = base32.NewEncoding(lowerBase32Chars).WithPadding(base32.NoPadding)

// Client is a registered OAuth 2.0 client application.
//
// Secret holds a bcrypt hash and is empty for public clients. A client using
// the authorization-code or implicit grants must register at least one
// redirect URI; the URI presented at authorization time must exactly match a
// registered entry.
type Client struct {
	ID           string      `gorm:"primaryKey;column:id"`
	Secret       string      `gorm:"column:secret"` // bcrypt hash; empty for public clients
	Name         string      `gorm:"not null"`
	RedirectURIs StringArray `gorm:"type:json"`
	GrantTypes   StringArray `gorm:"type:json"`
	Scopes       string      `gorm:"not null;default:''"` // space-separated
	IsActive     bool        `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPublic reports whether the client has no secret (user-agent-based client).
func (c *Client) IsPublic() bool {
	return c.Secret == ""
}

// AllowsGrantType reports whether the client is registered for the grant type.
func (c *Client) AllowsGrantType(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// HasRedirectURI reports whether uri exactly matches a registered redirect URI.
func (c *Client) HasRedirectURI(uri string) bool {
	if uri == "" {
		return false
	}
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// GenerateSecret mints a new client secret, stores its bcrypt hash on the
// client, and returns the plaintext. The plaintext is shown once at
// provisioning time and never recoverable afterwards.
func (c *Client) GenerateSecret() (string, error) {
	rBytes, err := util.CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	// Prefix makes the secret recognizable to code scanners.
	plainSecret := "oas_" + base32Lower.EncodeToString(rBytes)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	c.Secret = string(hashed)
	return plainSecret, nil
}

// ValidateSecret compares the presented secret against the stored bcrypt hash.
// Always false for public clients.
func (c *Client) ValidateSecret(secret string) bool {
	if c.Secret == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(secret)) == nil
}

// StringArray is a []string stored as JSON in the database.
type StringArray []string

// Scan implements sql.Scanner.
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSON value")
	}
	return json.Unmarshal(bytes, s)
}

// Value implements driver.Valuer.
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}
