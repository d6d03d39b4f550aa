package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the process configuration, decoded from the environment.
type Config struct {
	Port        string `env:"PORT,default=8000"`
	Environment string `env:"APP_ENV,default=development" validate:"oneof=development staging production test"`
	CORSOrigins string `env:"CORS_ORIGINS,default=*"`

	LogLevel  string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT,default=json" validate:"oneof=json console"`

	Database Database

	JWTSecret          string `env:"JWT_SECRET" validate:"required"`
	SupabaseJWTSecret  string `env:"SUPABASE_JWT_SECRET"`
	AccessTokenMinutes int    `env:"ACCESS_TOKEN_MINUTES,default=60" validate:"gte=0"`
	RefreshTokenHours  int    `env:"REFRESH_TOKEN_HOURS,default=720" validate:"gte=0"`
	OAuthClientID      string `env:"OAUTH_CLIENT_ID"`

	SMTP SMTP

	GiphyAPIKey     string `env:"GIPHY_API_KEY"`
	ExpoAccessToken string `env:"EXPO_ACCESS_TOKEN"`

	Rooms     Rooms
	RateLimit RateLimit
	TapinTTL  time.Duration `env:"TAPIN_TTL,default=24h"`

	ReaperInterval time.Duration `env:"REAPER_INTERVAL,default=5m"`
}

type Database struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST,default=localhost"`
	Port     string `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER,default=postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,default=postgres"`
	SSLMode  string `env:"DB_SSLMODE,default=disable"`
	MaxConns int    `env:"DB_MAX_CONNS,default=20" validate:"gt=0"`
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the DB_* variables.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type SMTP struct {
	Host     string `env:"SMTP_HOST,default=smtp.resend.com"`
	Port     int    `env:"SMTP_PORT,default=587"`
	User     string `env:"SMTP_USER,default=resend"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

type Rooms struct {
	RadiusMeters       float64       `env:"ROOM_RADIUS_METERS,default=1000" validate:"gt=0"`
	DedupMeters        float64       `env:"ROOM_DEDUP_METERS,default=150" validate:"gte=0"`
	SearchRadiusMeters float64       `env:"ROOM_SEARCH_RADIUS_METERS,default=5000" validate:"gt=0,lte=50000"`
	TTL                time.Duration `env:"ROOM_TTL,default=24h" validate:"gt=0"`
}

type RateLimit struct {
	MessageLimit  int           `env:"MESSAGE_RATE_LIMIT,default=10" validate:"gt=0"`
	MessageWindow time.Duration `env:"MESSAGE_RATE_WINDOW,default=10s"`
	JoinLimit     int           `env:"JOIN_RATE_LIMIT,default=5" validate:"gt=0"`
	JoinWindow    time.Duration `env:"JOIN_RATE_WINDOW,default=1m"`
	IdleAfter     time.Duration `env:"RATE_LIMIT_IDLE_AFTER,default=10m"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// AllowedOrigins returns the CORS origins in the comma-separated form Fiber expects.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ", ")
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
