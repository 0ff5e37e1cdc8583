package apiclient

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// subjectFromToken decodes the access token without verifying it and
// returns its subject. Verification is the backend's job; the client only
// needs the claim to derive the user-id header.
func subjectFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}

	// Older tokens carry the id as a private claim
	if userID, ok := claims["user_id"].(string); ok {
		return userID, nil
	}

	return "", nil
}
