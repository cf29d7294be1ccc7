package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ash-rain/oauth2-server/config"
	"github.com/ash-rain/oauth2-server/grant"
	"github.com/ash-rain/oauth2-server/handlers"
	"github.com/ash-rain/oauth2-server/models"
	"github.com/ash-rain/oauth2-server/server"
	"github.com/ash-rain/oauth2-server/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testRedirectURI = "https://app.example.com/callback"

type testEnv struct {
	store  *store.Store
	auth   *server.Authorization
	router *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.New("sqlite", ":memory:", store.Tables{})
	require.NoError(t, err)

	ctx := context.Background()
	for _, id := range []string{"read", "write"} {
		require.NoError(t, s.CreateScope(ctx, &models.Scope{ID: id}))
	}

	cfg := &config.Config{
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 720 * time.Hour,
		RotateRefreshTokens:    true,
	}
	auth := server.NewAuthorization(s, cfg, nil).
		RegisterGrant(grant.NewClientCredentials(s)).
		RegisterGrant(grant.NewAuthorizationCode(s, nil)).
		RegisterGrant(grant.NewRefreshToken(s))

	tokenHandler := handlers.NewTokenHandler(auth)
	authorizeHandler := handlers.NewAuthorizeHandler(auth)

	router := gin.New()
	router.POST("/oauth/token", tokenHandler.Token)
	router.POST("/oauth/revoke", tokenHandler.Revoke)
	router.GET("/oauth/authorize", func(c *gin.Context) {
		// Stand-in for the host's session layer.
		c.Set(handlers.UserIDKey, "user-1")
		authorizeHandler.Authorize(c)
	})

	return &testEnv{store: s, auth: auth, router: router}
}

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

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTokenEndpointClientCredentials(t *testing.T) {
	env := setupTestEnv(t)
	client, secret := createTestClient(t, env.store, grant.TypeClientCredentials)

	w := postForm(env.router, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {client.ID},
		"client_secret": {secret},
		"scope":         {"read"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.EqualValues(t, 3600, body["expires_in"])
	assert.Equal(t, "read", body["scope"])
	assert.NotContains(t, body, "refresh_token")
}

func TestTokenEndpointInvalidClient(t *testing.T) {
	env := setupTestEnv(t)
	client, _ := createTestClient(t, env.store, grant.TypeClientCredentials)

	w := postForm(env.router, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {client.ID},
		"client_secret": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_client", body["error"])
}

func TestTokenEndpointUnsupportedGrant(t *testing.T) {
	env := setupTestEnv(t)

	w := postForm(env.router, "/oauth/token", url.Values{
		"grant_type": {"device_code"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unsupported_grant_type", body["error"])
}

func TestAuthorizeEndpointAndCodeExchange(t *testing.T) {
	env := setupTestEnv(t)
	client, secret := createTestClient(t, env.store, grant.TypeAuthorizationCode)

	q := url.Values{
		"response_type": {"code"},
		"client_id":     {client.ID},
		"redirect_uri":  {testRedirectURI},
		"scope":         {"read"},
		"state":         {"xyz"},
	}
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)
	assert.Equal(t, "xyz", location.Query().Get("state"))

	exchange := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {client.ID},
		"client_secret": {secret},
		"code":          {code},
		"redirect_uri":  {testRedirectURI},
	}
	w2 := postForm(env.router, "/oauth/token", exchange)
	require.Equal(t, http.StatusOK, w2.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	// The code is single-use; a replayed exchange is invalid_grant.
	w3 := postForm(env.router, "/oauth/token", exchange)
	assert.Equal(t, http.StatusBadRequest, w3.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(w3.Body.Bytes(), &errBody))
	assert.Equal(t, "invalid_grant", errBody["error"])
}

func TestRevokeEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	client, secret := createTestClient(t, env.store, grant.TypeClientCredentials)

	w := postForm(env.router, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {client.ID},
		"client_secret": {secret},
		"scope":         {"read"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	accessToken := body["access_token"].(string)

	w2 := postForm(env.router, "/oauth/revoke", url.Values{"token": {accessToken}})
	assert.Equal(t, http.StatusOK, w2.Code)

	got, err := env.store.GetToken(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusRevoked, got.Status)

	// Unknown tokens still answer 200.
	w3 := postForm(env.router, "/oauth/revoke", url.Values{"token": {"missing"}})
	assert.Equal(t, http.StatusOK, w3.Code)

	// A missing token parameter is a protocol error.
	w4 := postForm(env.router, "/oauth/revoke", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w4.Code)
}
