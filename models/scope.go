package models

import (
	"strings"
	"time"
)

// Scope is a named unit of permission. It is both the unit of permission
// request at token issuance and the unit of permission check at validation.
type Scope struct {
	ID          string `gorm:"primaryKey;column:id"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

// Scope sets persist as space-separated strings on their owning row. The
// helpers below are the single place scope-string handling lives.

// SplitScopes splits a space-separated scope string into a slice.
func SplitScopes(scopes string) []string {
	return strings.Fields(scopes)
}

// JoinScopes joins a scope slice back into its wire form.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// IntersectScopes returns the members of requested that also appear in
// allowed, preserving the order of requested. An issued token's scope set is
// always such an intersection, never a superset of either side.
func IntersectScopes(allowed, requested []string) []string {
	allowedSet := make(map[string]bool, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = true
	}
	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if allowedSet[s] {
			out = append(out, s)
		}
	}
	return out
}

// ScopesContain reports whether every member of required appears in granted.
func ScopesContain(granted, required []string) bool {
	grantedSet := make(map[string]bool, len(granted))
	for _, s := range granted {
		grantedSet[s] = true
	}
	for _, s := range required {
		if !grantedSet[s] {
			return false
		}
	}
	return true
}
