package accountwatch

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStillInProgress indicates that the signature is currently being
	// processed by another instance.
	ErrStillInProgress = errors.New("processing still in progress")

	// ErrAlreadyFinished indicates that the signature has already been
	// processed successfully.
	ErrAlreadyFinished = errors.New("processing already finished")
)

// IdempotencyGuard coordinates signature processing across instances so each
// (account, signature) pair is worked on by at most one poller at a time.
//
// Event persistence and cursor advancement are idempotent on their own, so
// the guard is an optimization against duplicate RPC work rather than a
// correctness requirement. Implementations typically sit on distributed
// storage such as Redis.
type IdempotencyGuard interface {
	// ClaimSignature attempts to claim exclusive rights to process the given
	// signature for the given account.
	//
	// Sentinel errors are expected control flow, not failures:
	//   - ErrStillInProgress: another process holds a live claim.
	//   - ErrAlreadyFinished: the signature was fully processed before.
	//
	// The claim is time-bound via ttl so a crashed holder does not deadlock
	// the account.
	ClaimSignature(ctx context.Context, account, signature string, ttl time.Duration) error

	// MarkSignatureComplete records that the signature's events are persisted
	// and its cursor advanced, making future claims unnecessary.
	MarkSignatureComplete(ctx context.Context, account, signature string) error
}

// nopIdempotencyGuard treats every signature as unclaimed. Safe because the
// storage layer is idempotent; intended for single-instance deployments.
type nopIdempotencyGuard struct{}

var _ IdempotencyGuard = (*nopIdempotencyGuard)(nil)

func (nopIdempotencyGuard) ClaimSignature(ctx context.Context, account, signature string, ttl time.Duration) error {
	return nil
}

func (nopIdempotencyGuard) MarkSignatureComplete(ctx context.Context, account, signature string) error {
	return nil
}
