package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/internal/util"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// DefaultCodeTTL is the lifetime of an issued authorization code.
const DefaultCodeTTL = 10 * time.Minute

// AuthorizationCode implements the authorization-code grant (RFC 6749 §4.1)
// in two phases: AuthorizeCode validates the authorization request and mints
// a single-use code; ValidateRequest exchanges that code for tokens. An
// optional host callback decides whether the authorization is approved.
type AuthorizationCode struct {
	storage  storage.Storage
	approved ApprovedFunc
	codeTTL  time.Duration
}

func NewAuthorizationCode(s storage.Storage, approved ApprovedFunc) *AuthorizationCode {
	return &AuthorizationCode{
		storage:  s,
		approved: approved,
		codeTTL:  DefaultCodeTTL,
	}
}

// WithCodeTTL overrides the authorization code lifetime.
func (g *AuthorizationCode) WithCodeTTL(ttl time.Duration) *AuthorizationCode {
	g.codeTTL = ttl
	return g
}

func (g *AuthorizationCode) GrantType() string {
	return TypeAuthorizationCode
}

// AuthorizeCode runs the authorization step: it validates the client,
// redirect URI, and requested scopes, consults the approval callback when one
// is configured, and persists a new single-use code.
func (g *AuthorizationCode) AuthorizeCode(
	ctx context.Context,
	req *Request,
) (*models.AuthorizationCode, error) {
	client, err := authenticateClient(
		ctx, g.storage, req.ClientID, "", TypeAuthorizationCode, false)
	if err != nil {
		return nil, err
	}
	if err := validateRedirectURI(client, req.RedirectURI); err != nil {
		return nil, err
	}

	scopes, err := resolveScopes(
		ctx, g.storage, req.RequestedScopes(), models.SplitScopes(client.Scopes))
	if err != nil {
		return nil, err
	}

	if g.approved != nil {
		ok, err := g.approved(ctx, req.UserID, client, scopes)
		if err != nil {
			return nil, fmt.Errorf("authorization approval callback failed: %w", err)
		}
		if !ok {
			return nil, oauth2.ErrAccessDenied
		}
	}

	code, err := util.RandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate authorization code: %w", err)
	}

	record := &models.AuthorizationCode{
		Code:        code,
		ClientID:    client.ID,
		UserID:      req.UserID,
		RedirectURI: req.RedirectURI,
		Scopes:      models.JoinScopes(scopes),
		ExpiresAt:   time.Now().Add(g.codeTTL),
	}
	// Identifier collisions surface to the caller, which may regenerate.
	if err := g.storage.CreateAuthorizationCode(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store authorization code: %w", err)
	}
	return record, nil
}

// ValidateRequest runs the exchange step: the presented code must exist, be
// unexpired and unused, and match the requesting client and redirect URI.
// Consumption is atomic; of two concurrent exchanges only one succeeds.
func (g *AuthorizationCode) ValidateRequest(ctx context.Context, req *Request) (*Result, error) {
	if req.Code == "" {
		return nil, oauth2.ErrInvalidRequest.WithDescription("code is required")
	}
	if req.RedirectURI == "" {
		return nil, oauth2.ErrInvalidRequest.WithDescription("redirect_uri is required")
	}

	client, err := authenticateClient(
		ctx, g.storage, req.ClientID, req.ClientSecret, TypeAuthorizationCode, false)
	if err != nil {
		return nil, err
	}
	// Confidential clients must authenticate at the exchange step.
	if !client.IsPublic() && req.ClientSecret == "" {
		return nil, oauth2.ErrInvalidClient
	}

	record, err := g.storage.GetAuthorizationCode(ctx, req.Code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, oauth2.ErrInvalidAuthorizationCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization code: %w", err)
	}

	// Never reveal that the code belongs to another client.
	if record.ClientID != client.ID {
		return nil, oauth2.ErrInvalidAuthorizationCode
	}
	if record.RedirectURI != req.RedirectURI {
		return nil, oauth2.ErrInvalidAuthorizationCode.WithDescription(
			"redirect_uri does not match the one used at authorization")
	}
	if record.IsExpired() {
		return nil, oauth2.ErrInvalidAuthorizationCode.WithDescription(
			"authorization code has expired")
	}

	switch err := g.storage.ConsumeAuthorizationCode(ctx, record.Code); {
	case err == nil:
	case errors.Is(err, storage.ErrCodeAlreadyUsed), errors.Is(err, storage.ErrNotFound):
		return nil, oauth2.ErrInvalidAuthorizationCode.WithDescription(
			"authorization code has already been used")
	default:
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}

	return &Result{
		ClientID:          client.ID,
		UserID:            record.UserID,
		Scopes:            models.SplitScopes(record.Scopes),
		IssueRefreshToken: true,
	}, nil
}
