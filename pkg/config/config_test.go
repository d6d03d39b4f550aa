package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 1000.0, cfg.Rooms.RadiusMeters)
	assert.Equal(t, 150.0, cfg.Rooms.DedupMeters)
	assert.Equal(t, 24*time.Hour, cfg.Rooms.TTL)
	assert.Equal(t, 24*time.Hour, cfg.TapinTTL)
	assert.Equal(t, 10, cfg.RateLimit.MessageLimit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.MessageWindow)
	assert.Equal(t, "smtp.resend.com", cfg.SMTP.Host)
	assert.Equal(t, 5*time.Minute, cfg.ReaperInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ROOM_RADIUS_METERS", "250")
	t.Setenv("MESSAGE_RATE_WINDOW", "1m")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250.0, cfg.Rooms.RadiusMeters)
	assert.Equal(t, time.Minute, cfg.RateLimit.MessageWindow)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsRoomBounds(t *testing.T) {
	cases := map[string]string{
		"ROOM_SEARCH_RADIUS_METERS": "60000",
		"ROOM_TTL":                  "0s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadAcceptsSearchRadiusAtCap(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ROOM_SEARCH_RADIUS_METERS", "50000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50000.0, cfg.Rooms.SearchRadiusMeters)
}

func TestDSN(t *testing.T) {
	d := Database{URL: "postgres://u:p@h/db"}
	assert.Equal(t, "postgres://u:p@h/db", d.DSN())

	d = Database{Host: "h", Port: "5432", User: "u", Password: "p", Name: "db", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable", d.DSN())
}

func TestAllowedOrigins(t *testing.T) {
	c := &Config{CORSOrigins: " https://a.app , ,https://b.app"}
	assert.Equal(t, "https://a.app, https://b.app", c.AllowedOrigins())
	c.CORSOrigins = ""
	assert.Equal(t, "*", c.AllowedOrigins())
}
