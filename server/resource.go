package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/cache"
	"github.com/ash-rain/oauth2-server/config"
	"github.com/ash-rain/oauth2-server/metrics"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/storage"
)

// AuthenticatedContext identifies the principal behind a validated bearer
// token, for downstream use by the protected resource.
type AuthenticatedContext struct {
	Token    string
	ClientID string
	UserID   string
	Scopes   []string
}

// Resource validates bearer tokens against required scopes for protected
// requests. Validation is read-only and safe for many concurrent requests;
// expiration is checked lazily against a request-time clock read.
type Resource struct {
	storage       storage.Storage
	defaultScopes []string
	metrics       metrics.Recorder
	cache         cache.Cache[models.Token]
	cacheTTL      time.Duration
}

// NewResource creates a resource server. A nil recorder falls back to the
// no-op implementation.
func NewResource(s storage.Storage, cfg *config.Config, m metrics.Recorder) *Resource {
	if m == nil {
		m = metrics.NewNoopRecorder()
	}
	return &Resource{
		storage:       s,
		defaultScopes: cfg.DefaultScopes,
		metrics:       m,
		cacheTTL:      cfg.CacheTTL,
	}
}

// WithCache attaches a token-lookup cache, typically built by NewTokenCache.
// The TTL bounds how long a revoked token can still pass validation, so keep
// it short; zero keeps the configured CacheTTL. Hosts that revoke through the
// same process can also Delete the key eagerly.
func (r *Resource) WithCache(c cache.Cache[models.Token], ttl time.Duration) *Resource {
	r.cache = c
	if ttl > 0 {
		r.cacheTTL = ttl
	}
	return r
}

// NewTokenCache builds the token-lookup cache described by cfg: the
// redis-backed cache when CacheAddr is set, nil (no caching) otherwise.
func NewTokenCache(cfg *config.Config) (cache.Cache[models.Token], error) {
	if cfg.CacheAddr == "" {
		return nil, nil
	}
	return cache.NewRueidisCache[models.Token](
		cfg.CacheAddr, cfg.CachePassword, cfg.CacheDB, cfg.CacheKeyPrefix, cfg.CacheTTL)
}

// ValidateRequest extracts the bearer token from req and validates it against
// the required scopes.
func (r *Resource) ValidateRequest(
	ctx context.Context,
	req *http.Request,
	requiredScopes ...string,
) (*AuthenticatedContext, error) {
	return r.ValidateToken(ctx, BearerToken(req), requiredScopes...)
}

// ValidateToken validates an already-extracted bearer token. It fails with
// oauth2.ErrInvalidToken when the token is absent, unknown, revoked, or
// expired, and with oauth2.ErrInsufficientScope when its scope set does not
// fully contain requiredScopes. When requiredScopes is empty the server-wide
// default scopes apply.
func (r *Resource) ValidateToken(
	ctx context.Context,
	token string,
	requiredScopes ...string,
) (*AuthenticatedContext, error) {
	start := time.Now()

	if token == "" {
		r.metrics.RecordTokenValidation("invalid", time.Since(start))
		return nil, oauth2.ErrInvalidToken.WithDescription("no access token provided")
	}

	t, err := r.lookupToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		r.metrics.RecordTokenValidation("invalid", time.Since(start))
		return nil, oauth2.ErrInvalidToken
	}
	if err != nil {
		r.metrics.RecordTokenValidation("error", time.Since(start))
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if !t.IsAccessToken() || !t.IsActive() {
		r.metrics.RecordTokenValidation("invalid", time.Since(start))
		return nil, oauth2.ErrInvalidToken
	}
	if t.ExpiredAt(start) {
		r.metrics.RecordTokenValidation("expired", time.Since(start))
		return nil, oauth2.ErrInvalidToken.WithDescription("access token has expired")
	}

	required := requiredScopes
	if len(required) == 0 {
		required = r.defaultScopes
	}
	granted := models.SplitScopes(t.Scopes)
	if !models.ScopesContain(granted, required) {
		r.metrics.RecordTokenValidation("insufficient_scope", time.Since(start))
		return nil, oauth2.ErrInsufficientScope.WithDescription(
			"token scope does not cover the required scopes")
	}

	r.metrics.RecordTokenValidation("success", time.Since(start))
	return &AuthenticatedContext{
		Token:    t.Token,
		ClientID: t.ClientID,
		UserID:   t.UserID,
		Scopes:   granted,
	}, nil
}

func (r *Resource) lookupToken(ctx context.Context, token string) (models.Token, error) {
	fetch := func(ctx context.Context, key string) (models.Token, error) {
		t, err := r.storage.GetToken(ctx, key)
		if err != nil {
			return models.Token{}, err
		}
		return *t, nil
	}
	if r.cache == nil {
		return fetch(ctx, token)
	}
	return cache.GetWithFetch(ctx, r.cache, token, r.cacheTTL, fetch)
}

// BearerToken extracts the bearer token from the Authorization header, then
// falls back to the access_token form or query parameter (RFC 6750 §2).
func BearerToken(req *http.Request) string {
	const prefix = "bearer "
	if h := req.Header.Get("Authorization"); len(h) > len(prefix) &&
		strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return req.FormValue("access_token")
}
