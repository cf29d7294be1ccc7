package grant

import (
	"context"
	"errors"
	"fmt"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// RefreshToken implements the refresh-token grant (RFC 6749 §6): a valid
// refresh token is exchanged for a new access token, with scopes never
// broader than the original grant. Whether the presented refresh token is
// rotated out is server policy, applied by the authorization server using
// Result.RefreshedFrom.
type RefreshToken struct {
	storage storage.Storage
}

func NewRefreshToken(s storage.Storage) *RefreshToken {
	return &RefreshToken{storage: s}
}

func (g *RefreshToken) GrantType() string {
	return TypeRefreshToken
}

func (g *RefreshToken) ValidateRequest(ctx context.Context, req *Request) (*Result, error) {
	if req.RefreshToken == "" {
		return nil, oauth2.ErrInvalidRequest.WithDescription("refresh_token is required")
	}

	client, err := authenticateClient(
		ctx, g.storage, req.ClientID, req.ClientSecret, TypeRefreshToken, false)
	if err != nil {
		return nil, err
	}

	token, err := g.storage.GetToken(ctx, req.RefreshToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, oauth2.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	if !token.IsRefreshToken() || !token.IsActive() {
		return nil, oauth2.ErrInvalidRefreshToken
	}
	if token.IsExpired() {
		return nil, oauth2.ErrInvalidRefreshToken.WithDescription("refresh token has expired")
	}
	// Never reveal that the token belongs to another client.
	if token.ClientID != client.ID {
		return nil, oauth2.ErrInvalidRefreshToken
	}

	// Requested scopes must stay within the original grant; an omitted scope
	// parameter inherits it unchanged.
	original := models.SplitScopes(token.Scopes)
	scopes := req.RequestedScopes()
	if len(scopes) == 0 {
		scopes = original
	} else if !models.ScopesContain(original, scopes) {
		return nil, oauth2.ErrInvalidScope.WithDescription(
			"requested scopes exceed the original grant")
	}

	return &Result{
		ClientID:          client.ID,
		UserID:            token.UserID,
		Scopes:            scopes,
		IssueRefreshToken: true,
		RefreshedFrom:     token,
	}, nil
}
