package accountwatch

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNoCursorFound is returned by LoadCursor when the account has never
	// been processed. Where to start in that case (from the beginning or a
	// configured point) is an explicit caller decision, never inferred.
	ErrNoCursorFound = errors.New("no cursor found for account")

	// ErrCursorConflict is returned by AdvanceCursor when the stored cursor
	// does not match the expected previous value. Under the one-task-per-
	// account model this should never happen; the orchestrator treats it as
	// a consistency bug and refuses to advance.
	ErrCursorConflict = errors.New("cursor advance conflict")
)

// Cursor is the last fully-processed signature for one watched account.
type Cursor struct {
	Account       string           // base58 account address
	LastSignature solana.Signature // last signature whose events are durably persisted
	UpdatedAt     time.Time
}

// CursorStorage tracks per-account progress through an account's signature
// history. Implementations must tolerate concurrent access from all account
// tasks.
type CursorStorage interface {
	// LoadCursor returns the cursor for the given account, or
	// ErrNoCursorFound if the account has never advanced.
	LoadCursor(ctx context.Context, account string) (Cursor, error)

	// AdvanceCursor moves the account's cursor from `from` to `to` as one
	// atomic compare-and-set: the write must only happen while the stored
	// value still equals `from` (the zero value meaning "no cursor yet").
	// A mismatch returns ErrCursorConflict and leaves the cursor untouched.
	//
	// The cursor must only ever move forward in chain order; callers uphold
	// that by advancing one processed signature at a time, after that
	// signature's events are durably persisted.
	AdvanceCursor(ctx context.Context, account string, from, to solana.Signature) error
}
