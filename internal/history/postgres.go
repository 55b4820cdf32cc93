package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// db is the slice of the pgx pool the recorder needs; pgxmock implements it
// for tests.
type db interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresRecorder journals scrape outcomes into the scrape_history table.
// Expected schema:
//
//	CREATE TABLE scrape_history (
//	    id BIGSERIAL PRIMARY KEY,
//	    domain TEXT NOT NULL,
//	    terminal TEXT NOT NULL,
//	    success BOOLEAN NOT NULL,
//	    duration_ms BIGINT NOT NULL,
//	    error TEXT,
//	    scraped_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRecorder struct {
	pool db
}

const insertScrapeSQL = `
INSERT INTO scrape_history (domain, terminal, success, duration_ms, error, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// NewPostgresRecorder connects to the DSN and verifies the connection.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

// NewPostgresRecorderWithPool wires an existing pool (or a pgxmock pool).
func NewPostgresRecorderWithPool(pool db) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Record inserts one scrape outcome.
func (r *PostgresRecorder) Record(ctx context.Context, rec ScrapeRecord) error {
	_, err := r.pool.Exec(ctx, insertScrapeSQL,
		rec.Domain,
		rec.Terminal,
		rec.Success,
		rec.Duration.Milliseconds(),
		rec.Error,
		rec.At,
	)
	if err != nil {
		return fmt.Errorf("insert scrape record: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
