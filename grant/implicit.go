package grant

import (
	"context"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// Implicit implements the implicit grant (RFC 6749 §4.2): the access token is
// issued directly in the authorization response for user-agent-based clients.
// No code, no refresh token, no client secret.
type Implicit struct {
	storage  storage.Storage
	approved ApprovedFunc
}

func NewImplicit(s storage.Storage, approved ApprovedFunc) *Implicit {
	return &Implicit{storage: s, approved: approved}
}

func (g *Implicit) GrantType() string {
	return TypeImplicit
}

// AuthorizeToken validates the authorization request for response_type=token.
// The returned Result is minted into an access token by the server and placed
// in the redirect fragment.
func (g *Implicit) AuthorizeToken(ctx context.Context, req *Request) (*Result, error) {
	client, err := authenticateClient(ctx, g.storage, req.ClientID, "", TypeImplicit, false)
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
			return nil, err
		}
		if !ok {
			return nil, oauth2.ErrAccessDenied
		}
	}

	return &Result{
		ClientID:          client.ID,
		UserID:            req.UserID,
		Scopes:            scopes,
		IssueRefreshToken: false,
	}, nil
}

// ValidateRequest delegates to AuthorizeToken; the implicit grant has no
// separate token-endpoint step.
func (g *Implicit) ValidateRequest(ctx context.Context, req *Request) (*Result, error) {
	return g.AuthorizeToken(ctx, req)
}
