package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/pkg/config"
)

var DB *sqlx.DB

func InitDB(cfg config.Database) (*sqlx.DB, error) {
	var err error
	DB, err = sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error open connecting: %w", err)
	}

	DB.SetMaxOpenConns(cfg.MaxConns)
	DB.SetMaxIdleConns(cfg.MaxConns / 2)
	DB.SetConnMaxLifetime(30 * time.Minute)

	if err = DB.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	log.Info().Str("event", "db_connected").Str("host", cfg.Host).Str("db", cfg.Name).Msg("Successfully connected to the database")
	return DB, nil
}

func CloseDB() error {
	if DB != nil {
		err := DB.Close()
		if err != nil {
			return fmt.Errorf("error closing database connection: %w", err)
		}
		log.Info().Str("event", "db_closed").Msg("Database connection closed")
	}
	return nil
}
