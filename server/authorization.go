// Package server hosts the two protocol entry points: the Authorization
// server issues and revokes tokens through registered grant strategies; the
// Resource server validates bearer tokens on protected requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/config"
	"github.com/ash-rain/oauth2-server/grant"
	"github.com/ash-rain/oauth2-server/internal/util"
	"github.com/ash-rain/oauth2-server/metrics"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// CodeAuthorizer is implemented by grants that serve the authorization step
// for response_type=code.
type CodeAuthorizer interface {
	AuthorizeCode(ctx context.Context, req *grant.Request) (*models.AuthorizationCode, error)
}

// TokenAuthorizer is implemented by grants that serve the authorization step
// for response_type=token.
type TokenAuthorizer interface {
	AuthorizeToken(ctx context.Context, req *grant.Request) (*grant.Result, error)
}

// Authorization orchestrates grant execution and token issuance. Grants are
// registered at boot; the configuration is immutable for the life of the
// process. All durable state lives in storage, so a single instance is safe
// for concurrent requests.
type Authorization struct {
	storage       storage.Storage
	grants        map[string]grant.Grant
	accessTTL     time.Duration
	refreshTTL    time.Duration
	codeTTL       time.Duration
	defaultScopes []string
	rotateRefresh bool
	metrics       metrics.Recorder
}

// NewAuthorization creates an authorization server. A nil recorder falls back
// to the no-op implementation.
func NewAuthorization(s storage.Storage, cfg *config.Config, m metrics.Recorder) *Authorization {
	if m == nil {
		m = metrics.NewNoopRecorder()
	}
	codeTTL := cfg.AuthCodeExpiration
	if codeTTL <= 0 {
		codeTTL = grant.DefaultCodeTTL
	}
	return &Authorization{
		storage:       s,
		grants:        make(map[string]grant.Grant),
		accessTTL:     cfg.AccessTokenExpiration,
		refreshTTL:    cfg.RefreshTokenExpiration,
		codeTTL:       codeTTL,
		defaultScopes: cfg.DefaultScopes,
		rotateRefresh: cfg.RotateRefreshTokens,
		metrics:       m,
	}
}

// RegisterGrant registers a strategy under its grant type name. Registering a
// second strategy for the same name overwrites the first with a warning.
// Call during boot only; the registry is not guarded for concurrent mutation.
func (a *Authorization) RegisterGrant(g grant.Grant) *Authorization {
	name := g.GrantType()
	if _, exists := a.grants[name]; exists {
		log.Printf("[Server] warning: overwriting registered grant %q", name)
	}
	a.grants[name] = g
	return a
}

// RegisterDefaultGrants registers all five standard strategies against the
// server's storage, applying the configured authorization-code lifetime.
// A nil authenticate callback leaves the password grant unconfigured, failing
// every request; a nil approved callback grants every authorization.
func (a *Authorization) RegisterDefaultGrants(
	authenticate grant.AuthenticateFunc,
	approved grant.ApprovedFunc,
) *Authorization {
	return a.
		RegisterGrant(grant.NewClientCredentials(a.storage)).
		RegisterGrant(grant.NewPassword(a.storage, authenticate)).
		RegisterGrant(grant.NewAuthorizationCode(a.storage, approved).WithCodeTTL(a.codeTTL)).
		RegisterGrant(grant.NewImplicit(a.storage, approved)).
		RegisterGrant(grant.NewRefreshToken(a.storage))
}

// IssueToken executes the token endpoint: it dispatches to the strategy
// registered for the request's grant type, mints the resulting tokens, and
// persists them. Identifier collisions surface as storage errors for the
// caller to retry; nothing is retried internally.
func (a *Authorization) IssueToken(ctx context.Context, req *grant.Request) (*TokenResponse, error) {
	start := time.Now()

	if req.GrantType == "" {
		return nil, oauth2.ErrInvalidRequest.WithDescription("grant_type is required")
	}
	g, ok := a.grants[req.GrantType]
	if !ok {
		return nil, oauth2.ErrUnsupportedGrantType.WithDescription(
			"grant type %q is not registered", req.GrantType)
	}

	if req.Scope == "" {
		req.Scope = models.JoinScopes(a.defaultScopes)
	}

	result, err := g.ValidateRequest(ctx, req)
	if err != nil {
		if req.GrantType == grant.TypeRefreshToken {
			a.metrics.RecordTokenRefresh(false)
		}
		return nil, err
	}

	resp, err := a.mintTokens(ctx, result, req.GrantType, start)
	if err != nil {
		if req.GrantType == grant.TypeRefreshToken {
			a.metrics.RecordTokenRefresh(false)
		}
		return nil, err
	}
	if req.GrantType == grant.TypeRefreshToken {
		a.metrics.RecordTokenRefresh(true)
	}
	return resp, nil
}

// Authorize executes the authorization endpoint for the code and implicit
// grants, producing the artifact to embed in the redirect back to the client.
func (a *Authorization) Authorize(ctx context.Context, req *grant.Request) (*AuthorizationResponse, error) {
	if req.Scope == "" {
		req.Scope = models.JoinScopes(a.defaultScopes)
	}

	switch req.ResponseType {
	case "code":
		g, ok := a.grants[grant.TypeAuthorizationCode]
		if !ok {
			return nil, oauth2.ErrUnauthorizedClient.WithDescription(
				"authorization_code grant is not registered")
		}
		ca, ok := g.(CodeAuthorizer)
		if !ok {
			return nil, oauth2.ErrUnauthorizedClient.WithDescription(
				"registered authorization_code grant cannot authorize codes")
		}

		record, err := ca.AuthorizeCode(ctx, req)
		if err != nil {
			a.metrics.RecordAuthorizationCodeIssued(false)
			return nil, err
		}
		a.metrics.RecordAuthorizationCodeIssued(true)

		redirect, err := buildQueryRedirect(req.RedirectURI, map[string]string{
			"code":  record.Code,
			"state": req.State,
		})
		if err != nil {
			return nil, err
		}
		return &AuthorizationResponse{
			RedirectURI: redirect,
			Code:        record.Code,
			State:       req.State,
		}, nil

	case "token":
		g, ok := a.grants[grant.TypeImplicit]
		if !ok {
			return nil, oauth2.ErrUnauthorizedClient.WithDescription(
				"implicit grant is not registered")
		}
		ta, ok := g.(TokenAuthorizer)
		if !ok {
			return nil, oauth2.ErrUnauthorizedClient.WithDescription(
				"registered implicit grant cannot authorize tokens")
		}

		result, err := ta.AuthorizeToken(ctx, req)
		if err != nil {
			return nil, err
		}
		token, err := a.mintTokens(ctx, result, grant.TypeImplicit, time.Now())
		if err != nil {
			return nil, err
		}

		redirect, err := buildFragmentRedirect(req.RedirectURI, map[string]string{
			"access_token": token.AccessToken,
			"token_type":   token.TokenType,
			"expires_in":   strconv.FormatInt(token.ExpiresIn, 10),
			"scope":        token.Scope,
			"state":        req.State,
		})
		if err != nil {
			return nil, err
		}
		return &AuthorizationResponse{
			RedirectURI: redirect,
			Token:       token,
			State:       req.State,
		}, nil

	default:
		return nil, oauth2.ErrInvalidRequest.WithDescription(
			"unsupported response_type %q", req.ResponseType)
	}
}

// RevokeToken revokes the given token. Revoking an access token also revokes
// its paired refresh token; revoking a refresh token also revokes the access
// tokens issued against it.
func (a *Authorization) RevokeToken(ctx context.Context, token string) error {
	t, err := a.storage.GetToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return oauth2.ErrInvalidToken.WithDescription("token not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if err := a.storage.RevokeToken(ctx, t.Token); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	a.metrics.RecordTokenRevoked(t.Type)

	switch {
	case t.IsAccessToken() && t.RefreshToken != "":
		if err := a.storage.RevokeToken(ctx, t.RefreshToken); err == nil {
			a.metrics.RecordTokenRevoked(models.TokenTypeRefresh)
		}
	case t.IsRefreshToken():
		// When rotation is disabled, several access tokens can share this
		// refresh token; all of them must die with it.
		if err := a.storage.RevokeTokensByRefreshToken(ctx, t.Token); err != nil {
			log.Printf("[Server] failed to revoke access tokens for refresh token: %v", err)
		} else {
			a.metrics.RecordTokenRevoked(models.TokenTypeAccess)
		}
	}
	return nil
}

// mintTokens turns a grant result into persisted token records and the wire
// response. The refresh token is minted first so the access token can carry
// the pairing; a failed access-token write cleans the refresh row up again.
func (a *Authorization) mintTokens(
	ctx context.Context,
	result *grant.Result,
	grantType string,
	start time.Time,
) (*TokenResponse, error) {
	now := time.Now()
	scopes := models.JoinScopes(result.Scopes)

	var refreshString string
	if result.IssueRefreshToken {
		if result.RefreshedFrom != nil && !a.rotateRefresh {
			// Rotation disabled: the presented refresh token stays valid.
			refreshString = result.RefreshedFrom.Token
		} else {
			value, err := util.RandomToken()
			if err != nil {
				return nil, fmt.Errorf("failed to generate refresh token: %w", err)
			}
			refresh := &models.Token{
				Token:     value,
				Type:      models.TokenTypeRefresh,
				Status:    models.TokenStatusActive,
				ClientID:  result.ClientID,
				UserID:    result.UserID,
				Scopes:    scopes,
				ExpiresAt: now.Add(a.refreshTTL),
			}
			if err := a.storage.CreateToken(ctx, refresh); err != nil {
				return nil, fmt.Errorf("failed to store refresh token: %w", err)
			}
			refreshString = refresh.Token
			a.metrics.RecordTokenIssued(models.TokenTypeRefresh, grantType, time.Since(start))
		}
	}

	value, err := util.RandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	access := &models.Token{
		Token:        value,
		Type:         models.TokenTypeAccess,
		Status:       models.TokenStatusActive,
		ClientID:     result.ClientID,
		UserID:       result.UserID,
		Scopes:       scopes,
		ExpiresAt:    now.Add(a.accessTTL),
		RefreshToken: refreshString,
	}
	if err := a.storage.CreateToken(ctx, access); err != nil {
		if refreshString != "" && (result.RefreshedFrom == nil || a.rotateRefresh) {
			_ = a.storage.DeleteToken(ctx, refreshString)
		}
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}
	a.metrics.RecordTokenIssued(models.TokenTypeAccess, grantType, time.Since(start))

	// Rotate-and-invalidate: the presented refresh token dies once its
	// successor is safely persisted.
	if result.RefreshedFrom != nil && a.rotateRefresh {
		if err := a.storage.RevokeToken(ctx, result.RefreshedFrom.Token); err != nil {
			log.Printf("[Server] failed to revoke rotated refresh token: %v", err)
		} else {
			a.metrics.RecordTokenRevoked(models.TokenTypeRefresh)
		}
	}

	resp := &TokenResponse{
		AccessToken: access.Token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   access.ExpiresIn(now),
		Scope:       scopes,
	}
	if result.IssueRefreshToken {
		resp.RefreshToken = refreshString
	}
	return resp, nil
}
