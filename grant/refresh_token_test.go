package grant_test

import (
	"context"
	"testing"
	"time"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/grant"
	"github.com/ash-rain/oauth2-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenValidateRequest(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypeRefreshToken)
	refresh := createRefreshToken(t, s, client.ID, "user-1", "read write", time.Now().Add(24*time.Hour))
	g := grant.NewRefreshToken(s)

	result, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		RefreshToken: refresh.Token,
	})
	require.NoError(t, err)
	assert.Equal(t, client.ID, result.ClientID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, []string{"read", "write"}, result.Scopes, "omitted scope inherits the original grant")
	assert.True(t, result.IssueRefreshToken)
	require.NotNil(t, result.RefreshedFrom)
	assert.Equal(t, refresh.Token, result.RefreshedFrom.Token)
}

func TestRefreshTokenScopeNarrowing(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypeRefreshToken)
	refresh := createRefreshToken(t, s, client.ID, "user-1", "read write", time.Now().Add(24*time.Hour))
	g := grant.NewRefreshToken(s)
	ctx := context.Background()

	result, err := g.ValidateRequest(ctx, &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		RefreshToken: refresh.Token,
		Scope:        "read",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, result.Scopes)
}

func TestRefreshTokenNeverBroadensScopes(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypeRefreshToken)
	refresh := createRefreshToken(t, s, client.ID, "user-1", "read", time.Now().Add(24*time.Hour))
	g := grant.NewRefreshToken(s)

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		RefreshToken: refresh.Token,
		Scope:        "read write",
	})
	assert.ErrorIs(t, err, oauth2.ErrInvalidScope)
}

func TestRefreshTokenRejections(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypeRefreshToken)
	other, otherSecret := createTestClient(t, s, grant.TypeRefreshToken)
	g := grant.NewRefreshToken(s)
	ctx := context.Background()

	expired := createRefreshToken(t, s, client.ID, "user-1", "read", time.Now().Add(-time.Minute))

	revoked := createRefreshToken(t, s, client.ID, "user-1", "read", time.Now().Add(time.Hour))
	require.NoError(t, s.RevokeToken(ctx, revoked.Token))

	// An access token is not exchangeable as a refresh token.
	access := &models.Token{
		Token:     "access-as-refresh",
		Type:      models.TokenTypeAccess,
		Status:    models.TokenStatusActive,
		ClientID:  client.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateToken(ctx, access))

	foreign := createRefreshToken(t, s, client.ID, "user-1", "read", time.Now().Add(time.Hour))

	tests := []struct {
		name string
		req  *grant.Request
	}{
		{"unknown token", &grant.Request{ClientID: client.ID, ClientSecret: secret, RefreshToken: "missing"}},
		{"expired token", &grant.Request{ClientID: client.ID, ClientSecret: secret, RefreshToken: expired.Token}},
		{"revoked token", &grant.Request{ClientID: client.ID, ClientSecret: secret, RefreshToken: revoked.Token}},
		{"access token presented", &grant.Request{ClientID: client.ID, ClientSecret: secret, RefreshToken: access.Token}},
		{"another client's token", &grant.Request{ClientID: other.ID, ClientSecret: otherSecret, RefreshToken: foreign.Token}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.ValidateRequest(ctx, tt.req)
			assert.ErrorIs(t, err, oauth2.ErrInvalidRefreshToken)
		})
	}
}

func TestRefreshTokenMissingParam(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypeRefreshToken)
	g := grant.NewRefreshToken(s)

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	assert.ErrorIs(t, err, oauth2.ErrInvalidRequest)
}
