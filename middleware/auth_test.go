package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ash-rain/oauth2-server/config"
	"github.com/ash-rain/oauth2-server/middleware"
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

func setupProtectedRouter(t *testing.T, scopes ...string) (*store.Store, *gin.Engine) {
	t.Helper()
	s, err := store.New("sqlite", ":memory:", store.Tables{})
	require.NoError(t, err)

	resource := server.NewResource(s, &config.Config{}, nil)

	router := gin.New()
	router.GET("/protected", middleware.RequireScopes(resource, scopes...), func(c *gin.Context) {
		auth, ok := middleware.Authenticated(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"client_id": auth.ClientID,
			"user_id":   auth.UserID,
			"scopes":    auth.Scopes,
		})
	})
	return s, router
}

func createAccessToken(t *testing.T, s *store.Store, scopes string) *models.Token {
	t.Helper()
	token := &models.Token{
		Token:     uuid.New().String(),
		Type:      models.TokenTypeAccess,
		Status:    models.TokenStatusActive,
		ClientID:  "client-1",
		UserID:    "user-1",
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateToken(context.Background(), token))
	return token
}

func get(router *gin.Engine, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireScopesAdmitsValidToken(t *testing.T) {
	s, router := setupProtectedRouter(t, "read")
	token := createAccessToken(t, s, "read write")

	w := get(router, token.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "client-1", body["client_id"])
	assert.Equal(t, "user-1", body["user_id"])
}

func TestRequireScopesRejectsMissingToken(t *testing.T) {
	_, router := setupProtectedRouter(t, "read")

	w := get(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "invalid_token")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_token", body["error"])
}

func TestRequireScopesRejectsUnknownToken(t *testing.T) {
	_, router := setupProtectedRouter(t, "read")

	w := get(router, "nonexistent")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireScopesRejectsInsufficientScope(t *testing.T) {
	s, router := setupProtectedRouter(t, "read", "write")
	token := createAccessToken(t, s, "read")

	w := get(router, token.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "insufficient_scope")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_scope", body["error"])
}

func TestAuthenticatedWithoutValidation(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := middleware.Authenticated(c)
	assert.False(t, ok)
}
