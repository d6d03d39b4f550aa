package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTokens(t *testing.T, s TokenSettings) {
	t.Helper()
	prev := tokens
	ConfigureTokens(s)
	t.Cleanup(func() { ConfigureTokens(prev) })
}

func TestGenerateAndExtract(t *testing.T) {
	withTokens(t, TokenSettings{Secret: "app-secret", AccessTTL: time.Hour})
	id := uuid.New()

	tok, expiresIn, err := GenerateAccessToken(id, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	got, err := ExtractUserIDFromHeader("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestExtractRejectsBadHeaders(t *testing.T) {
	withTokens(t, TokenSettings{Secret: "app-secret"})

	_, err := ExtractUserIDFromHeader("")
	assert.ErrorIs(t, err, ErrMissingBearer)

	_, err = ExtractUserIDFromHeader("Token abc")
	assert.ErrorIs(t, err, ErrMissingBearer)

	_, err = ExtractUserIDFromHeader("Bearer ")
	assert.ErrorIs(t, err, ErrMissingBearer)

	_, err = ExtractUserIDFromHeader("Bearer not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractRejectsWrongSecretAndExpired(t *testing.T) {
	withTokens(t, TokenSettings{Secret: "app-secret"})
	id := uuid.New()

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": id.String()}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = ParseUserID(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.String(),
		"exp":     time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("app-secret"))
	require.NoError(t, err)
	_, err = ParseUserID(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAcceptsSupabaseSubClaim(t *testing.T) {
	withTokens(t, TokenSettings{Secret: "app-secret", SupabaseSecret: "supabase-secret"})
	id := uuid.New()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id.String(),
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("supabase-secret"))
	require.NoError(t, err)

	got, err := ParseUserID(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseWithoutSecret(t *testing.T) {
	withTokens(t, TokenSettings{})
	_, err := ParseUserID("x")
	assert.ErrorIs(t, err, ErrSecretNotSet)

	_, _, err = GenerateAccessToken(uuid.New(), "")
	assert.ErrorIs(t, err, ErrSecretNotSet)
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP(4)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{4}$`, otp)
	}
}

func TestGenerateOTPRejectsBadLength(t *testing.T) {
	_, err := GenerateOTP(0)
	assert.ErrorIs(t, err, ErrOTPLength)
	_, err = GenerateOTP(10)
	assert.ErrorIs(t, err, ErrOTPLength)
}
