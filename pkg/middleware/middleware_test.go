package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapin-app/tapin-backend/pkg/ratelimit"
	"github.com/tapin-app/tapin-backend/pkg/utils"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append(handlers, func(c *fiber.Ctx) error {
		id, _ := CurrentUserID(c)
		return c.SendString(id.String())
	})
	app.Get("/", chain...)
	return app
}

func TestJWTProtected(t *testing.T) {
	utils.ConfigureTokens(utils.TokenSettings{Secret: "test-secret", AccessTTL: time.Hour})
	app := newApp(JWTProtected())
	id := uuid.New()
	tok, _, err := utils.GenerateAccessToken(id, "a@example.com")
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("empty bearer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer ")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Missing Authorization bearer token")
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, id.String(), string(body))
	})
}

func TestJWTProtectedWithoutSecret(t *testing.T) {
	utils.ConfigureTokens(utils.TokenSettings{})
	t.Cleanup(func() { utils.ConfigureTokens(utils.TokenSettings{Secret: "test-secret", AccessTTL: time.Hour}) })
	app := newApp(JWTProtected())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	utils.ConfigureTokens(utils.TokenSettings{Secret: "test-secret"})
	l := ratelimit.New(2, time.Minute)
	app := newApp(JWTProtected(), RateLimit("test", l))

	tokA, _, _ := utils.GenerateAccessToken(uuid.New(), "")
	tokB, _, _ := utils.GenerateAccessToken(uuid.New(), "")

	do := func(tok string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		if resp.StatusCode == fiber.StatusTooManyRequests {
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		}
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, do(tokA))
	assert.Equal(t, fiber.StatusOK, do(tokA))
	assert.Equal(t, fiber.StatusTooManyRequests, do(tokA))
	assert.Equal(t, fiber.StatusOK, do(tokB))
}
