// Package storage defines the persistence contract the protocol core depends
// on. The shipped relational backend lives in the store package; any backend
// satisfying these interfaces is valid. The backend is the sole
// synchronization point: it must enforce uniqueness on token and code
// identifiers and make authorization-code consumption indivisible.
package storage

import (
	"context"

	"github.com/ash-rain/oauth2-server/models"
)

// ClientStorage persists registered client applications.
type ClientStorage interface {
	// GetClient returns the client with the given public identifier, or
	// ErrNotFound.
	GetClient(ctx context.Context, clientID string) (*models.Client, error)

	// CreateClient stores a new client. Returns ErrDuplicateKey when the
	// identifier is already taken.
	CreateClient(ctx context.Context, client *models.Client) error

	// DeleteClient removes a client record. Cascading to its tokens and
	// codes is backend policy, not core logic.
	DeleteClient(ctx context.Context, clientID string) error
}

// TokenStorage persists issued access and refresh tokens.
type TokenStorage interface {
	// GetToken returns the token with the given opaque string, or
	// ErrNotFound. Expired and revoked tokens are still returned; callers
	// check state.
	GetToken(ctx context.Context, token string) (*models.Token, error)

	// GetTokenByRefreshToken returns the access token paired with the given
	// refresh token string, or ErrNotFound.
	GetTokenByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error)

	// CreateToken stores a new token. Creation of a token whose opaque
	// string collides with an existing one must fail with ErrDuplicateKey
	// rather than silently overwrite, so the caller can regenerate.
	CreateToken(ctx context.Context, token *models.Token) error

	// RevokeToken marks the token revoked. Revoked tokens fail validation
	// but remain readable for auditing until purged.
	RevokeToken(ctx context.Context, token string) error

	// RevokeTokensByRefreshToken marks every access token paired with the
	// given refresh token string revoked. Multiple access tokens can share
	// one refresh token when rotation is disabled; revocation must reach
	// all of them. Revoking against an unknown refresh token is a no-op.
	RevokeTokensByRefreshToken(ctx context.Context, refreshToken string) error

	// DeleteToken physically removes a token record.
	DeleteToken(ctx context.Context, token string) error

	// DeleteExpiredTokens purges tokens past their expiry. Optional hygiene;
	// correctness never depends on it, expiry is checked lazily.
	DeleteExpiredTokens(ctx context.Context) error
}

// AuthorizationCodeStorage persists single-use authorization codes.
type AuthorizationCodeStorage interface {
	// GetAuthorizationCode returns the code record, or ErrNotFound.
	GetAuthorizationCode(ctx context.Context, code string) (*models.AuthorizationCode, error)

	// CreateAuthorizationCode stores a new code. Identifier collisions fail
	// with ErrDuplicateKey.
	CreateAuthorizationCode(ctx context.Context, code *models.AuthorizationCode) error

	// ConsumeAuthorizationCode marks the code used. The read-and-invalidate
	// must be indivisible: of two concurrent consumers exactly one succeeds,
	// the other receives ErrCodeAlreadyUsed.
	ConsumeAuthorizationCode(ctx context.Context, code string) error

	// DeleteAuthorizationCode physically removes a code record.
	DeleteAuthorizationCode(ctx context.Context, code string) error

	// DeleteExpiredAuthorizationCodes purges codes past their expiry.
	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

// ScopeStorage persists the recognized scope catalogue.
type ScopeStorage interface {
	// GetScope returns the scope with the given name, or ErrNotFound.
	GetScope(ctx context.Context, id string) (*models.Scope, error)

	// CreateScope stores a new scope definition.
	CreateScope(ctx context.Context, scope *models.Scope) error

	// DeleteScope removes a scope definition.
	DeleteScope(ctx context.Context, id string) error
}

// Storage is the full persistence contract a backend supplies to the servers.
type Storage interface {
	ClientStorage
	TokenStorage
	AuthorizationCodeStorage
	ScopeStorage
}
