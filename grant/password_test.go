package grant_test

import (
	"context"
	"errors"
	"testing"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/grant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticAuthenticator(username, password, userID string) grant.AuthenticateFunc {
	return func(_ context.Context, u, p string) (string, error) {
		if u == username && p == password {
			return userID, nil
		}
		return "", errors.New("bad credentials")
	}
}

func TestPasswordValidateRequest(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypePassword)
	g := grant.NewPassword(s, staticAuthenticator("alice", "hunter2", "user-42"))

	result, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		Username:     "alice",
		Password:     "hunter2",
		Scope:        "read write",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-42", result.UserID)
	assert.Equal(t, []string{"read", "write"}, result.Scopes)
	assert.True(t, result.IssueRefreshToken)
}

func TestPasswordBadCredentials(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypePassword)
	g := grant.NewPassword(s, staticAuthenticator("alice", "hunter2", "user-42"))

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		Username:     "alice",
		Password:     "wrong",
	})
	assert.ErrorIs(t, err, oauth2.ErrInvalidCredentials)
}

func TestPasswordEmptyUserIDIsRejection(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypePassword)
	g := grant.NewPassword(s, func(context.Context, string, string) (string, error) {
		return "", nil
	})

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		Username:     "alice",
		Password:     "hunter2",
	})
	assert.ErrorIs(t, err, oauth2.ErrInvalidCredentials)
}

func TestPasswordMissingCredentialParams(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypePassword)
	g := grant.NewPassword(s, staticAuthenticator("alice", "hunter2", "user-42"))

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		Username:     "alice",
	})
	assert.ErrorIs(t, err, oauth2.ErrInvalidRequest)
}

func TestPasswordClientAuthenticatesBeforeUser(t *testing.T) {
	s := setupTestStorage(t)
	client, _ := createTestClient(t, s, grant.TypePassword)

	called := false
	g := grant.NewPassword(s, func(context.Context, string, string) (string, error) {
		called = true
		return "user-42", nil
	})

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: "wrong",
		Username:     "alice",
		Password:     "hunter2",
	})
	assert.ErrorIs(t, err, oauth2.ErrInvalidClient)
	assert.False(t, called, "user credentials must not be checked for an unauthenticated client")
}

func TestPasswordNoCallbackConfigured(t *testing.T) {
	s := setupTestStorage(t)
	client, secret := createTestClient(t, s, grant.TypePassword)
	g := grant.NewPassword(s, nil)

	_, err := g.ValidateRequest(context.Background(), &grant.Request{
		ClientID:     client.ID,
		ClientSecret: secret,
		Username:     "alice",
		Password:     "hunter2",
	})
	assert.ErrorIs(t, err, oauth2.ErrUnsupportedGrantType)
}
