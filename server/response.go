package server

import (
	"fmt"
	"net/url"
)

// TokenTypeBearer is the token_type value on every issued token.
const TokenTypeBearer = "bearer"

// TokenResponse is the structured success response of the token endpoint
// (RFC 6749 §5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// AuthorizationResponse is the outcome of the authorization step: either a
// code (response_type=code) or an access token (response_type=token), plus
// the fully built redirect URI the host should send the user agent to.
type AuthorizationResponse struct {
	RedirectURI string
	Code        string
	Token       *TokenResponse
	State       string
}

// buildQueryRedirect appends params to the query component of base.
func buildQueryRedirect(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// buildFragmentRedirect places params in the fragment component of base, as
// the implicit grant requires (RFC 6749 §4.2.2).
func buildFragmentRedirect(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI: %w", err)
	}
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	u.Fragment = v.Encode()
	return u.String(), nil
}
