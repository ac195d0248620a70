package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// tokenBytes is the entropy of a session token. Hex encoding doubles it, so
// tokens are 64 characters long.
const tokenBytes = 32

// GenerateToken returns a fresh opaque session token.
//
// Tokens carry no claims. Everything about a session lives in its logins row,
// so logging out is a DELETE and takes effect on the next request.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively. It returns ""
// when the header is missing or uses another scheme.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
