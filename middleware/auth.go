// Package middleware provides the protected-resource hook for gin hosts.
package middleware

import (
	"fmt"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/server"

	"github.com/gin-gonic/gin"
)

// Context keys populated on successful validation.
const (
	ContextClientID = "oauth_client_id"
	ContextUserID   = "oauth_user_id"
	ContextScopes   = "oauth_scopes"
	ContextToken    = "oauth_token"
)

// RequireScopes is a middleware that admits only requests whose bearer token
// is valid and carries every listed scope. On success the authenticated
// principal is placed on the gin context under the Context* keys.
func RequireScopes(resource *server.Resource, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := resource.ValidateRequest(c.Request.Context(), c.Request, scopes...)
		if err != nil {
			status, body := oauth2.ErrorBody(err)
			if oe, ok := oauth2.AsError(err); ok {
				c.Header("WWW-Authenticate",
					fmt.Sprintf("Bearer error=%q, error_description=%q", oe.Code, oe.Description))
			}
			c.AbortWithStatusJSON(status, body)
			return
		}

		c.Set(ContextClientID, auth.ClientID)
		c.Set(ContextUserID, auth.UserID)
		c.Set(ContextScopes, auth.Scopes)
		c.Set(ContextToken, auth.Token)
		c.Next()
	}
}

// Authenticated returns the validated principal RequireScopes stored on the
// context, or ok=false when the request was not validated.
func Authenticated(c *gin.Context) (*server.AuthenticatedContext, bool) {
	clientID, exists := c.Get(ContextClientID)
	if !exists {
		return nil, false
	}
	scopes, _ := c.Get(ContextScopes)
	scopeList, _ := scopes.([]string)
	return &server.AuthenticatedContext{
		Token:    c.GetString(ContextToken),
		ClientID: clientID.(string),
		UserID:   c.GetString(ContextUserID),
		Scopes:   scopeList,
	}, true
}
