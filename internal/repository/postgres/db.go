package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// NewDB creates the process-wide connection pool from configuration.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		connStr := cfg.URL
		if connStr == "" {
			connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		}

		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", connStr)
		if err != nil {
			return
		}
		dbInstance = Wrap(db)
	})

	return dbInstance, err
}

// Wrap configures pool limits on an existing connection.
func Wrap(db *sqlx.DB) *DB {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(10), // Limit to 10 concurrent transactions
	}
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id               BIGSERIAL PRIMARY KEY,
	product_id       BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	predicted_demand DOUBLE PRECISION NOT NULL,
	prediction_date  DATE NOT NULL,
	confidence       DOUBLE PRECISION,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (product_id, prediction_date)
);

CREATE TABLE IF NOT EXISTS forecast_runs (
	id                 BIGSERIAL PRIMARY KEY,
	status             TEXT NOT NULL,
	days_ahead         INT NOT NULL,
	total_products     INT NOT NULL DEFAULT 0,
	processed_products INT NOT NULL DEFAULT 0,
	failed_products    INT NOT NULL DEFAULT 0,
	started_at         TIMESTAMPTZ NOT NULL,
	completed_at       TIMESTAMPTZ,
	error_message      TEXT
);
`

// EnsureSchema creates the tables owned by the forecasting subsystem.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
