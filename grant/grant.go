// Package grant implements the five standard OAuth 2.0 grant strategies. Each
// strategy validates a token request against storage and hands back a Result;
// minting and persisting tokens is the authorization server's job.
package grant

import (
	"context"
	"errors"
	"fmt"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// Grant type names (RFC 6749). The original wrapper used shorthand names
// ("client", "authorization", "refresh"); these are the wire names clients
// actually send.
const (
	TypeClientCredentials = "client_credentials"
	TypePassword          = "password"
	TypeAuthorizationCode = "authorization_code"
	TypeImplicit          = "implicit"
	TypeRefreshToken      = "refresh_token"
)

// Request carries the parsed parameters of a token or authorization request.
// Hosts populate UserID for the authorization step from their own session
// handling; everything else maps one-to-one onto wire parameters.
type Request struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Code         string
	RedirectURI  string
	RefreshToken string
	ResponseType string
	State        string
	Scope        string // space-separated, as on the wire
	UserID       string // resource owner at the authorization step
}

// RequestedScopes returns the request's scope parameter as a set.
func (r *Request) RequestedScopes() []string {
	return models.SplitScopes(r.Scope)
}

// Result is what a strategy hands back to the authorization server on
// successful validation. Scopes are already the intersection of what was
// requested and what the client, code, or original grant permits.
type Result struct {
	ClientID          string
	UserID            string
	Scopes            []string
	IssueRefreshToken bool

	// RefreshedFrom is set by the refresh-token grant: the refresh token
	// record the request presented. The server revokes it when rotation is
	// enabled.
	RefreshedFrom *models.Token
}

// Grant is the capability every strategy implements. Only one strategy per
// grant type name may be registered on a server.
type Grant interface {
	// GrantType returns the grant type name the strategy is dispatched by.
	GrantType() string

	// ValidateRequest validates a token-endpoint request and returns the
	// grant result, or a protocol error from the oauth2 package.
	ValidateRequest(ctx context.Context, req *Request) (*Result, error)
}

// AuthenticateFunc verifies resource-owner credentials for the password
// grant. It returns the user identifier on success. A non-nil error or an
// empty identifier both count as rejection.
type AuthenticateFunc func(ctx context.Context, username, password string) (string, error)

// ApprovedFunc lets the host decide whether an authorization request is
// approved before a code or implicit token is issued.
type ApprovedFunc func(ctx context.Context, userID string, client *models.Client, scopes []string) (bool, error)

// authenticateClient loads and authenticates the client for a grant type.
// When requireSecret is true the client must be confidential and present a
// valid secret; otherwise confidential clients presenting a secret still have
// it verified, and public clients pass without one.
func authenticateClient(
	ctx context.Context,
	s storage.ClientStorage,
	clientID, clientSecret, grantType string,
	requireSecret bool,
) (*models.Client, error) {
	if clientID == "" {
		return nil, oauth2.ErrInvalidRequest.WithDescription("client_id is required")
	}

	client, err := s.GetClient(ctx, clientID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, oauth2.ErrInvalidClient
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if !client.IsActive {
		return nil, oauth2.ErrInvalidClient
	}
	if !client.AllowsGrantType(grantType) {
		return nil, oauth2.ErrUnauthorizedClient.WithDescription(
			"client is not registered for the %s grant", grantType)
	}

	switch {
	case requireSecret:
		if !client.ValidateSecret(clientSecret) {
			return nil, oauth2.ErrInvalidClient
		}
	case !client.IsPublic() && clientSecret != "":
		if !client.ValidateSecret(clientSecret) {
			return nil, oauth2.ErrInvalidClient
		}
	}

	return client, nil
}

// resolveScopes checks every requested scope against the scope catalogue and
// intersects the request with what the client permits. A non-empty request
// whose intersection is empty is rejected rather than silently emptied.
func resolveScopes(
	ctx context.Context,
	s storage.ScopeStorage,
	requested, allowed []string,
) ([]string, error) {
	if len(requested) == 0 {
		return []string{}, nil
	}

	for _, sc := range requested {
		if _, err := s.GetScope(ctx, sc); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, oauth2.ErrInvalidScope.WithDescription("unknown scope %q", sc)
			}
			return nil, fmt.Errorf("failed to load scope %q: %w", sc, err)
		}
	}

	granted := models.IntersectScopes(allowed, requested)
	if len(granted) == 0 {
		return nil, oauth2.ErrInvalidScope.WithDescription(
			"requested scopes exceed what the client permits")
	}
	return granted, nil
}

// validateRedirectURI enforces the exact-match rule against the client's
// registered redirect URIs.
func validateRedirectURI(client *models.Client, uri string) error {
	if uri == "" {
		return oauth2.ErrInvalidRequest.WithDescription("redirect_uri is required")
	}
	if !client.HasRedirectURI(uri) {
		return oauth2.ErrInvalidRequest.WithDescription(
			"redirect_uri does not match a registered redirect URI")
	}
	return nil
}
