package grant_test

import (
	"context"
	"testing"
	"time"

	"github.com/ash-rain/oauth2-server/grant"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testRedirectURI = "https://app.example.com/callback"

func setupTestStorage(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("sqlite", ":memory:", store.Tables{})
	require.NoError(t, err)

	ctx := context.Background()
	for id, desc := range map[string]string{
		"read":  "Read access",
		"write": "Write access",
		"admin": "Administrative access",
	} {
		require.NoError(t, s.CreateScope(ctx, &models.Scope{ID: id, Description: desc}))
	}
	return s
}

// createTestClient registers a confidential client permitted "read write" and
// returns it together with its plaintext secret.
func createTestClient(t *testing.T, s *store.Store, grantTypes ...string) (*models.Client, string) {
	t.Helper()
	client := &models.Client{
		ID:           uuid.New().String(),
		Name:         "Test Client",
		GrantTypes:   models.StringArray(grantTypes),
		RedirectURIs: models.StringArray{testRedirectURI},
		Scopes:       "read write",
		IsActive:     true,
	}
	secret, err := client.GenerateSecret()
	require.NoError(t, err)
	require.NoError(t, s.CreateClient(context.Background(), client))
	return client, secret
}

func createPublicClient(t *testing.T, s *store.Store, grantTypes ...string) *models.Client {
	t.Helper()
	client := &models.Client{
		ID:           uuid.New().String(),
		Name:         "Public Client",
		GrantTypes:   models.StringArray(grantTypes),
		RedirectURIs: models.StringArray{testRedirectURI},
		Scopes:       "read write",
		IsActive:     true,
	}
	require.NoError(t, s.CreateClient(context.Background(), client))
	return client
}

func createRefreshToken(t *testing.T, s *store.Store, clientID, userID, scopes string, expiresAt time.Time) *models.Token {
	t.Helper()
	token := &models.Token{
		Token:     uuid.New().String(),
		Type:      models.TokenTypeRefresh,
		Status:    models.TokenStatusActive,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, s.CreateToken(context.Background(), token))
	return token
}

func approveAll(context.Context, string, *models.Client, []string) (bool, error) {
	return true, nil
}

func denyAll(context.Context, string, *models.Client, []string) (bool, error) {
	return false, nil
}

var _ grant.ApprovedFunc = approveAll
