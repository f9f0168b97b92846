package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/eventwatch/internal/accountwatch"

	"github.com/jackc/pgx/v5"
)

// PersistEvents stores every record keyed by (account, signature,
// event_index). Already-stored records are left untouched, which makes
// signature replay after a crash or a withheld cursor a no-op.
//
// The batch stops at the first failing insert so the caller sees the error
// and withholds the cursor; everything written before it simply gets
// re-submitted on the retry.
func (c *client) PersistEvents(ctx context.Context, records []accountwatch.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		payload, err := json.Marshal(record.Payload)
		if err != nil {
			return fmt.Errorf("encoding payload for %s[%d]: %w", record.Signature, record.EventIndex, err)
		}

		batch.Queue(`
			INSERT INTO program_events (
				account, signature, event_index, kind, slot, block_time, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (account, signature, event_index) DO NOTHING
		`,
			record.Account,
			record.Signature,
			record.EventIndex,
			record.Kind,
			int64(record.Slot),
			record.BlockTime,
			payload,
		)
	}

	br := c.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// Ensure the client satisfies the EventStorage interface at compile time.
var _ accountwatch.EventStorage = new(client)
