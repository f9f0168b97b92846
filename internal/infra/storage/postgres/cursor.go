package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/eventwatch/internal/accountwatch"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
)

// LoadCursor returns the stored cursor for an account, or
// accountwatch.ErrNoCursorFound when the account has never advanced.
func (c *client) LoadCursor(ctx context.Context, account string) (accountwatch.Cursor, error) {
	var (
		lastSignature string
		updatedAt     time.Time
	)

	row := c.pool.QueryRow(ctx, `
		SELECT last_signature, updated_at
		FROM account_cursors
		WHERE account = $1
	`, account)
	if err := row.Scan(&lastSignature, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accountwatch.Cursor{}, accountwatch.ErrNoCursorFound
		}
		return accountwatch.Cursor{}, err
	}

	signature, err := solana.SignatureFromBase58(lastSignature)
	if err != nil {
		return accountwatch.Cursor{}, fmt.Errorf("corrupted cursor for %s: %w", account, err)
	}

	return accountwatch.Cursor{
		Account:       account,
		LastSignature: signature,
		UpdatedAt:     updatedAt,
	}, nil
}

// AdvanceCursor performs the compare-and-set advance. A zero `from` means
// the account has no cursor yet, so the row must not exist; otherwise the
// stored value must still equal `from`. Either mismatch reports
// accountwatch.ErrCursorConflict without touching the row.
func (c *client) AdvanceCursor(ctx context.Context, account string, from, to solana.Signature) error {
	if from.IsZero() {
		tag, err := c.pool.Exec(ctx, `
			INSERT INTO account_cursors (account, last_signature, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (account) DO NOTHING
		`, account, to.String())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return accountwatch.ErrCursorConflict
		}

		return nil
	}

	tag, err := c.pool.Exec(ctx, `
		UPDATE account_cursors
		SET last_signature = $3, updated_at = now()
		WHERE account = $1 AND last_signature = $2
	`, account, from.String(), to.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return accountwatch.ErrCursorConflict
	}

	return nil
}

// Ensure the client satisfies the CursorStorage interface at compile time.
var _ accountwatch.CursorStorage = new(client)
