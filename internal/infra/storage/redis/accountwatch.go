package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/eventwatch/internal/accountwatch"

	"github.com/redis/go-redis/v9"
)

const (
	// accountwatchKeyPrefix is the Redis key namespace for signature
	// idempotency entries.
	accountwatchKeyPrefix = "accountwatch"

	// accountwatchIdempotencyDone is the terminal value stored to indicate
	// that a signature has been fully processed.
	accountwatchIdempotencyDone = "done"
)

// accountwatchIdempotencyKey builds the Redis key tracking idempotency for a
// given signature under a watched account.
func accountwatchIdempotencyKey(account, signature string) string {
	return fmt.Sprintf("%s:idempotency:%s:%s", accountwatchKeyPrefix, account, signature)
}

// ClaimSignature attempts to claim exclusive rights to process a signature.
//
// Behavior:
//   - If the key is already marked as "done", it returns ErrAlreadyFinished.
//   - If the key exists but is not "done", it returns ErrStillInProgress.
//   - Otherwise, it sets an empty value with TTL to reserve the claim.
func (c *client) ClaimSignature(ctx context.Context, account, signature string, ttl time.Duration) error {
	key := accountwatchIdempotencyKey(account, signature)

	val, err := c.conn.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	if val == accountwatchIdempotencyDone {
		return accountwatch.ErrAlreadyFinished
	}

	ok, err := c.conn.SetNX(ctx, key, "", ttl).Result()
	if err != nil {
		return err
	}

	if !ok {
		return accountwatch.ErrStillInProgress
	}

	return nil
}

// MarkSignatureComplete marks the signature as processed by setting the key
// to "done" with no expiration, preventing any future reprocessing claims.
func (c *client) MarkSignatureComplete(ctx context.Context, account, signature string) error {
	key := accountwatchIdempotencyKey(account, signature)
	return c.conn.Set(ctx, key, accountwatchIdempotencyDone, 0).Err()
}

// Ensure the client satisfies the IdempotencyGuard interface at compile time.
var _ accountwatch.IdempotencyGuard = new(client)
