package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSettings holds the signing configuration for access tokens.
type TokenSettings struct {
	Secret         string
	SupabaseSecret string
	AccessTTL      time.Duration
}

var tokens TokenSettings

// ConfigureTokens installs the signing configuration. Call once at startup.
func ConfigureTokens(s TokenSettings) { tokens = s }

var (
	ErrMissingBearer = errors.New("missing or invalid Authorization header")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrSecretNotSet  = errors.New("JWT secret not set")
)

// GenerateAccessToken signs an HS256 token carrying user_id and email.
func GenerateAccessToken(userID uuid.UUID, email string) (string, int, error) {
	if tokens.Secret == "" {
		return "", 0, ErrSecretNotSet
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"email":   email,
		"iat":     now.Unix(),
	}
	expiresIn := 0
	if tokens.AccessTTL > 0 {
		claims["exp"] = now.Add(tokens.AccessTTL).Unix()
		expiresIn = int(tokens.AccessTTL.Seconds())
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokens.Secret))
	if err != nil {
		return "", 0, err
	}
	return signed, expiresIn, nil
}

// ParseUserID verifies tokenString against the app secret, then the Supabase
// secret, and returns the user id from the user_id or sub claim.
func ParseUserID(tokenString string) (uuid.UUID, error) {
	if tokens.Secret == "" && tokens.SupabaseSecret == "" {
		return uuid.Nil, ErrSecretNotSet
	}

	var lastErr error = ErrInvalidToken
	for _, secret := range []string{tokens.Secret, tokens.SupabaseSecret} {
		if secret == "" {
			continue
		}
		id, err := parseWithSecret(tokenString, secret)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return uuid.Nil, lastErr
}

func parseWithSecret(tokenString, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid token claims")
	}

	idStr, _ := claims["user_id"].(string)
	if idStr == "" {
		idStr, _ = claims["sub"].(string)
	}
	if idStr == "" {
		return uuid.Nil, errors.New("invalid token payload")
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid user id in token")
	}
	return userID, nil
}

// ExtractUserIDFromHeader parses Authorization header (Bearer <token>) and returns user_id UUID from JWT claims.
func ExtractUserIDFromHeader(authHeader string) (uuid.UUID, error) {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return uuid.Nil, ErrMissingBearer
	}
	return ParseUserID(token)
}

// GenerateRandomToken returns n random bytes hex encoded.
func GenerateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
