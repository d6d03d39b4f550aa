package controllers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tapin-app/tapin-backend/pkg/config"
	"github.com/tapin-app/tapin-backend/pkg/middleware"
)

var validate = validator.New()

// Settings are the tunables controllers read at request time.
type Settings struct {
	RoomRadiusMeters   float64
	RoomDedupMeters    float64
	RoomSearchRadius   float64
	RoomTTL            time.Duration
	TapinTTL           time.Duration
	RefreshTokenTTL    time.Duration
	OAuthClientID      string
	MaxSearchRadius    float64
	MessagePageDefault int
	MessagePageMax     int
}

var settings = DefaultSettings()

func DefaultSettings() Settings {
	return Settings{
		RoomRadiusMeters:   1000,
		RoomDedupMeters:    150,
		RoomSearchRadius:   5000,
		RoomTTL:            24 * time.Hour,
		TapinTTL:           24 * time.Hour,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		MaxSearchRadius:    50000,
		MessagePageDefault: 50,
		MessagePageMax:     100,
	}
}

// Configure installs settings derived from cfg. Call once at startup.
func Configure(cfg *config.Config) {
	s := DefaultSettings()
	s.RoomRadiusMeters = cfg.Rooms.RadiusMeters
	s.RoomDedupMeters = cfg.Rooms.DedupMeters
	s.RoomSearchRadius = cfg.Rooms.SearchRadiusMeters
	s.RoomTTL = cfg.Rooms.TTL
	s.TapinTTL = cfg.TapinTTL
	s.RefreshTokenTTL = time.Duration(cfg.RefreshTokenHours) * time.Hour
	s.OAuthClientID = cfg.OAuthClientID
	settings = s
}

func SetSettings(s Settings) { settings = s }

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Missing or invalid Authorization header")
	}
	return id, nil
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// ErrorHandler renders errors that escape handlers in the same {error} shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
		msg = fe.Message
	}
	return fail(c, code, msg)
}
