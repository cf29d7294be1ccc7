package grant

import (
	"context"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// Password implements the resource-owner password-credentials grant
// (RFC 6749 §4.3). Username/password verification is delegated to a
// host-supplied callback injected at registration time; the grant itself
// never sees a password store.
type Password struct {
	storage      storage.Storage
	authenticate AuthenticateFunc
}

func NewPassword(s storage.Storage, authenticate AuthenticateFunc) *Password {
	return &Password{storage: s, authenticate: authenticate}
}

func (g *Password) GrantType() string {
	return TypePassword
}

func (g *Password) ValidateRequest(ctx context.Context, req *Request) (*Result, error) {
	if req.Username == "" || req.Password == "" {
		return nil, oauth2.ErrInvalidRequest.WithDescription(
			"username and password are required")
	}

	client, err := authenticateClient(
		ctx, g.storage, req.ClientID, req.ClientSecret, TypePassword, true)
	if err != nil {
		return nil, err
	}

	if g.authenticate == nil {
		return nil, oauth2.ErrUnsupportedGrantType.WithDescription(
			"password grant has no authentication callback configured")
	}
	userID, err := g.authenticate(ctx, req.Username, req.Password)
	if err != nil || userID == "" {
		return nil, oauth2.ErrInvalidCredentials
	}

	scopes, err := resolveScopes(
		ctx, g.storage, req.RequestedScopes(), models.SplitScopes(client.Scopes))
	if err != nil {
		return nil, err
	}

	return &Result{
		ClientID:          client.ID,
		UserID:            userID,
		Scopes:            scopes,
		IssueRefreshToken: true,
	}, nil
}
