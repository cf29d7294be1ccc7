package grant

import (
	"context"

	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// ClientCredentials implements the client-credentials grant (RFC 6749 §4.4):
// the client authenticates with its own credentials and receives an access
// token with no user context and no refresh token.
type ClientCredentials struct {
	storage storage.Storage
}

func NewClientCredentials(s storage.Storage) *ClientCredentials {
	return &ClientCredentials{storage: s}
}

func (g *ClientCredentials) GrantType() string {
	return TypeClientCredentials
}

func (g *ClientCredentials) ValidateRequest(ctx context.Context, req *Request) (*Result, error) {
	client, err := authenticateClient(
		ctx, g.storage, req.ClientID, req.ClientSecret, TypeClientCredentials, true)
	if err != nil {
		return nil, err
	}

	scopes, err := resolveScopes(
		ctx, g.storage, req.RequestedScopes(), models.SplitScopes(client.Scopes))
	if err != nil {
		return nil, err
	}

	return &Result{
		ClientID:          client.ID,
		Scopes:            scopes,
		IssueRefreshToken: false,
	}, nil
}
