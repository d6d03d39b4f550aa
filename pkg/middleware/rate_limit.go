package middleware

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/pkg/ratelimit"
)

// RateLimit throttles per authenticated user, falling back to the client IP.
// It must run after JWTProtected to key by user.
func RateLimit(name string, l *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if id, ok := CurrentUserID(c); ok {
			key = id.String()
		}

		if !l.Allow(key) {
			wait := l.RetryAfter(key)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			log.Warn().Str("event", "rate_limited").Str("limiter", name).Str("key", key).Str("path", c.Path()).Msg("")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, slow down"})
		}
		return c.Next()
	}
}
