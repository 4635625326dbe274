package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

const pingTimeout = 5 * time.Second

// NewPostgresDB opens the pool described by cfg and checks it with a ping
func NewPostgresDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// WaitForDB retries NewPostgresDB up to maxRetries times. The delay starts at retryDelay
// and doubles after every failure, capped at eight times retryDelay.
func WaitForDB(cfg *config.Config, log *logger.Logger, maxRetries int, retryDelay time.Duration) (*sqlx.DB, error) {
	var err error
	delay := retryDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var db *sqlx.DB
		if db, err = NewPostgresDB(cfg); err == nil {
			return db, nil
		}

		if attempt == maxRetries {
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempt,
			"host":    cfg.Database.Host,
			"db":      cfg.Database.Name,
			"retry":   delay.String(),
		}).Warnf("Database not ready: %v", err)

		time.Sleep(delay)
		if delay < 8*retryDelay {
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}
