// Package auth parses the credentials presented to the layout service.
package auth

import (
	"errors"
	"strings"
)

var (
	ErrNoAuthorization = errors.New("authorization header is empty")
	ErrNotBearer       = errors.New("expected 'Authorization: Bearer <token>'")
)

// ExtractBearerToken returns the API token of a "Bearer <token>" header. The scheme is case-insensitive.
func ExtractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", ErrNoAuthorization
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrNotBearer
	}
	return token, nil
}
