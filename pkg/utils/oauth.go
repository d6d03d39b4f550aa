package utils

import (
	"context"
	"errors"

	"cloud.google.com/go/auth/credentials/idtoken"
)

var ErrOAuthNotConfigured = errors.New("oauth client id not configured")

// ValidateGoogleIDToken verifies a Google ID token for audience and returns its email claim.
func ValidateGoogleIDToken(ctx context.Context, idToken, audience string) (string, error) {
	if audience == "" {
		return "", ErrOAuthNotConfigured
	}

	tok, err := idtoken.Validate(ctx, idToken, audience)
	if err != nil {
		return "", err
	}

	email, ok := tok.Claims["email"].(string)
	if !ok || email == "" {
		return "", errors.New("google token does not contain email")
	}
	if verified, ok := tok.Claims["email_verified"].(bool); ok && !verified {
		return "", errors.New("google email not verified")
	}
	return email, nil
}
