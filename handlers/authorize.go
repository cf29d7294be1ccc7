package handlers

import (
	"net/http"

	oauth2 "github.com/ash-rain/oauth2-server"
	"github.com/ash-rain/oauth2-server/grant"
	"github.com/ash-rain/oauth2-server/server"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key the host's session layer stores the
// authenticated resource owner under before routing to Authorize.
const UserIDKey = "user_id"

// AuthorizeHandler serves the authorization endpoint for the code and
// implicit grants.
type AuthorizeHandler struct {
	auth *server.Authorization
}

func NewAuthorizeHandler(auth *server.Authorization) *AuthorizeHandler {
	return &AuthorizeHandler{auth: auth}
}

// Authorize handles GET /oauth/authorize. The host authenticates the resource
// owner first and stores their identifier on the context; consent decisions
// run through the grant's approval callback.
func (h *AuthorizeHandler) Authorize(c *gin.Context) {
	req := &grant.Request{
		ResponseType: c.Query("response_type"),
		ClientID:     c.Query("client_id"),
		RedirectURI:  c.Query("redirect_uri"),
		Scope:        c.Query("scope"),
		State:        c.Query("state"),
		UserID:       c.GetString(UserIDKey),
	}

	resp, err := h.auth.Authorize(c.Request.Context(), req)
	if err != nil {
		status, body := oauth2.ErrorBody(err)
		c.JSON(status, body)
		return
	}
	c.Redirect(http.StatusFound, resp.RedirectURI)
}
