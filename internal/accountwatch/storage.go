package accountwatch

import (
	"context"
	"time"
)

// EventRecord is the stored form of a decoded event. The triple (Account,
// Signature, EventIndex) is the dedupe key: persisting the same record twice
// must be a no-op, which is what makes signature replay after a crash safe.
type EventRecord struct {
	Account    string         // base58 address of the watched account
	Signature  string         // base58 transaction signature
	EventIndex int            // position of the event among the transaction's extracted payloads
	Kind       string         // event schema name
	Slot       uint64         // slot of the containing transaction
	BlockTime  *time.Time     // block timestamp, when available
	Payload    map[string]any // decoded field values
}

// EventStorage is the durable store collaborator. It must expose idempotent
// upsert-by-dedupe-key semantics and tolerate concurrent writers.
type EventStorage interface {
	// PersistEvents upserts every record by its dedupe key. Re-submission of
	// an already-stored record is a no-op, not an error or a duplicate.
	//
	// A partial failure (some records written, then an error) must be
	// reported as an error so the caller withholds the cursor: reprocessing
	// a signature is safe, silently losing events is not.
	PersistEvents(ctx context.Context, records []EventRecord) error
}
