package oauth2

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuth error codes (RFC 6749 §5.2, RFC 6750 §3.1)
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeInsufficientScope    = "insufficient_scope"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeServerError          = "server_error"
)

// Error is a protocol-level OAuth 2.0 error. Code and Description map directly
// onto the wire-format error object; Status is the HTTP status the error
// should be surfaced with.
//
// Several distinct failure kinds share the same wire code (invalid_grant
// covers bad resource-owner credentials, bad authorization codes, and bad
// refresh tokens), so identity for errors.Is is the kind, not the code.
type Error struct {
	kind        string
	Code        string
	Description string
	Status      int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is reports whether target is an *Error of the same kind, regardless of
// description. This lets callers match against the package-level sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// WithDescription returns a copy of e carrying a formatted description.
// The copy compares equal to e under errors.Is.
func (e *Error) WithDescription(format string, args ...any) *Error {
	clone := *e
	clone.Description = fmt.Sprintf(format, args...)
	return &clone
}

// Sentinel protocol errors. Use WithDescription for request-specific detail;
// errors.Is against these matches any derived copy.
var (
	// ErrInvalidRequest indicates a malformed request (missing or repeated parameters).
	ErrInvalidRequest = &Error{
		kind:        "invalid_request",
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is missing a required parameter or is otherwise malformed",
		Status:      http.StatusBadRequest,
	}

	// ErrInvalidClient indicates an unknown client or a failed secret check.
	ErrInvalidClient = &Error{
		kind:        "invalid_client",
		Code:        ErrorCodeInvalidClient,
		Description: "client authentication failed",
		Status:      http.StatusUnauthorized,
	}

	// ErrInvalidCredentials indicates the resource-owner authentication callback rejected the credentials.
	ErrInvalidCredentials = &Error{
		kind:        "invalid_credentials",
		Code:        ErrorCodeInvalidGrant,
		Description: "resource owner credentials are invalid",
		Status:      http.StatusBadRequest,
	}

	// ErrInvalidAuthorizationCode indicates a missing, expired, reused, or mismatched authorization code.
	ErrInvalidAuthorizationCode = &Error{
		kind:        "invalid_authorization_code",
		Code:        ErrorCodeInvalidGrant,
		Description: "authorization code is invalid, expired, or already used",
		Status:      http.StatusBadRequest,
	}

	// ErrInvalidRefreshToken indicates a missing, expired, or mismatched refresh token.
	ErrInvalidRefreshToken = &Error{
		kind:        "invalid_refresh_token",
		Code:        ErrorCodeInvalidGrant,
		Description: "refresh token is invalid or expired",
		Status:      http.StatusBadRequest,
	}

	// ErrInvalidToken indicates a missing, unknown, or expired access token on a protected resource.
	ErrInvalidToken = &Error{
		kind:        "invalid_token",
		Code:        ErrorCodeInvalidToken,
		Description: "access token is invalid or expired",
		Status:      http.StatusUnauthorized,
	}

	// ErrInsufficientScope indicates a valid token that does not cover every
	// required scope. It shares the invalid_token kind: errors.Is matches it
	// against ErrInvalidToken, while the wire code and status follow
	// RFC 6750 §3.1.
	ErrInsufficientScope = &Error{
		kind:        "invalid_token",
		Code:        ErrorCodeInsufficientScope,
		Description: "access token does not carry the required scopes",
		Status:      http.StatusForbidden,
	}

	// ErrUnsupportedGrantType indicates a grant type with no registered strategy.
	ErrUnsupportedGrantType = &Error{
		kind:        "unsupported_grant_type",
		Code:        ErrorCodeUnsupportedGrantType,
		Description: "grant type is not supported by this server",
		Status:      http.StatusBadRequest,
	}

	// ErrInvalidScope indicates an unrecognized scope or one exceeding what the client may request.
	ErrInvalidScope = &Error{
		kind:        "invalid_scope",
		Code:        ErrorCodeInvalidScope,
		Description: "requested scope is invalid or exceeds the granted scope",
		Status:      http.StatusBadRequest,
	}

	// ErrUnauthorizedClient indicates the client may not use the requested grant or response type.
	ErrUnauthorizedClient = &Error{
		kind:        "unauthorized_client",
		Code:        ErrorCodeUnauthorizedClient,
		Description: "client is not authorized to use this grant type",
		Status:      http.StatusBadRequest,
	}

	// ErrAccessDenied indicates the resource owner or the authorization callback denied the request.
	ErrAccessDenied = &Error{
		kind:        "access_denied",
		Code:        ErrorCodeAccessDenied,
		Description: "the authorization request was denied",
		Status:      http.StatusForbidden,
	}
)

// AsError unwraps err into a protocol *Error. Infrastructure failures
// (storage connectivity, constraint violations) are not protocol errors and
// return ok=false so hosts can distinguish bad requests from backend faults.
func AsError(err error) (*Error, bool) {
	var oe *Error
	ok := errors.As(err, &oe)
	return oe, ok
}

// ErrorBody maps err onto the HTTP status and JSON error object of the wire
// format (RFC 6749 §5.2). Non-protocol errors surface as server_error with
// status 500 and no internal detail.
func ErrorBody(err error) (int, map[string]string) {
	if oe, ok := AsError(err); ok {
		return oe.Status, map[string]string{
			"error":             oe.Code,
			"error_description": oe.Description,
		}
	}
	return http.StatusInternalServerError, map[string]string{
		"error":             ErrorCodeServerError,
		"error_description": "an internal error occurred",
	}
}
