// Package postgres provides durable storage for decoded events and polling
// cursors on top of a PostgreSQL pool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type client struct {
	pool *pgxpool.Pool
}

func (c *client) Close() {
	c.pool.Close()
}

func NewClient(ctx context.Context, dsn string) (*client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &client{
		pool: pool,
	}, nil
}

// EnsureSchema creates the event and cursor tables when they do not exist
// yet. Intended to run once at startup; production deployments with managed
// migrations can skip it.
func (c *client) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS program_events (
			account     TEXT        NOT NULL,
			signature   TEXT        NOT NULL,
			event_index INTEGER     NOT NULL,
			kind        TEXT        NOT NULL,
			slot        BIGINT      NOT NULL,
			block_time  TIMESTAMPTZ,
			payload     JSONB       NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (account, signature, event_index)
		);

		CREATE INDEX IF NOT EXISTS program_events_kind_idx
			ON program_events (kind);

		CREATE TABLE IF NOT EXISTS account_cursors (
			account        TEXT        NOT NULL PRIMARY KEY,
			last_signature TEXT        NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	_, err := c.pool.Exec(ctx, ddl)
	return err
}
