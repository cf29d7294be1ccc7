// Package handlers contains thin gin glue between HTTP forms and the server
// entry points. Routing stays with the host application.
package handlers

import (
	"net/http"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/grant"
	"github.com/ash-rain/oauth2-server/server"

	"github.com/gin-gonic/gin"
)

// TokenHandler serves the token endpoint (RFC 6749 §3.2) and token
// revocation.
type TokenHandler struct {
	auth *server.Authorization
}

func NewTokenHandler(auth *server.Authorization) *TokenHandler {
	return &TokenHandler{auth: auth}
}

// Token handles POST /oauth/token. Grant-specific parameters are read from
// the form body and dispatched by grant_type.
func (h *TokenHandler) Token(c *gin.Context) {
	req := &grant.Request{
		GrantType:    c.PostForm("grant_type"),
		ClientID:     c.PostForm("client_id"),
		ClientSecret: c.PostForm("client_secret"),
		Username:     c.PostForm("username"),
		Password:     c.PostForm("password"),
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		RefreshToken: c.PostForm("refresh_token"),
		Scope:        c.PostForm("scope"),
	}

	resp, err := h.auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		status, body := oauth2.ErrorBody(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Revoke handles POST /oauth/revoke (RFC 7009). Revoking an unknown token
// still answers 200 so callers cannot probe for valid token strings.
func (h *TokenHandler) Revoke(c *gin.Context) {
	token := c.PostForm("token")
	if token == "" {
		status, body := oauth2.ErrorBody(
			oauth2.ErrInvalidRequest.WithDescription("token is required"))
		c.JSON(status, body)
		return
	}

	if err := h.auth.RevokeToken(c.Request.Context(), token); err != nil {
		if _, ok := oauth2.AsError(err); !ok {
			status, body := oauth2.ErrorBody(err)
			c.JSON(status, body)
			return
		}
	}
	c.Status(http.StatusOK)
}
