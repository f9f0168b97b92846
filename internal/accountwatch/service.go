// Package accountwatch runs the polling loop that keeps watched accounts'
// event history flowing into durable storage.
//
// Each watched account gets its own polling task. A task repeatedly loads the
// account's cursor, lists signatures confirmed after it, and processes each
// signature in chain order: fetch the transaction logs, extract and decode
// the event payloads, persist the decoded events, then advance the cursor.
// Persistence always happens before cursor advancement, so a crash at any
// point replays at most one signature, and the storage layer's idempotent
// upsert makes that replay harmless.
package accountwatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabapcia/eventwatch/internal/decode"
	"github.com/gabapcia/eventwatch/internal/pkg/resilience/retry"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrServiceAlreadyStarted = errors.New("service already started")
	ErrNoAccountsToWatch     = errors.New("no accounts to watch")
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxBackoff   = time.Minute
	defaultFetchLimit   = 100
	defaultClaimTTL     = 30 * time.Second
)

// Service is the polling orchestrator. Start launches one polling task per
// watched account and returns immediately; Close stops the tasks, letting any
// in-flight signature finish its persist-then-advance step first.
type Service interface {
	Start(ctx context.Context) error
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	programID solana.PublicKey
	accounts  []solana.PublicKey

	decoder          *decode.Decoder
	blockchain       Blockchain
	cursorStorage    CursorStorage
	eventStorage     EventStorage
	idempotencyGuard IdempotencyGuard

	retry        retry.Retry
	pollInterval time.Duration
	maxBackoff   time.Duration
	fetchLimit   int
	claimTTL     time.Duration

	metrics *metrics
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}
	if len(s.accounts) == 0 {
		return ErrNoAccountsToWatch
	}

	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	for _, account := range s.accounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watchAccount(ctx, account)
		}()
	}

	s.closeFunc = func() {
		cancel()
		wg.Wait()
	}
	s.isStarted = true

	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

type config struct {
	retry            retry.Retry
	idempotencyGuard IdempotencyGuard
	pollInterval     time.Duration
	maxBackoff       time.Duration
	fetchLimit       int
	claimTTL         time.Duration
}

type Option func(*config)

// New builds the orchestrator for the given program and accounts. Events are
// decoded with decoder and stored through eventStorage; cursorStorage tracks
// per-account progress.
func New(
	blockchain Blockchain,
	cursorStorage CursorStorage,
	eventStorage EventStorage,
	decoder *decode.Decoder,
	programID solana.PublicKey,
	accounts []solana.PublicKey,
	opts ...Option,
) *service {
	cfg := config{
		retry:            nil,
		idempotencyGuard: nopIdempotencyGuard{},
		pollInterval:     defaultPollInterval,
		maxBackoff:       defaultMaxBackoff,
		fetchLimit:       defaultFetchLimit,
		claimTTL:         defaultClaimTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		programID:        programID,
		accounts:         accounts,
		decoder:          decoder,
		blockchain:       blockchain,
		cursorStorage:    cursorStorage,
		eventStorage:     eventStorage,
		idempotencyGuard: cfg.idempotencyGuard,
		retry:            cfg.retry,
		pollInterval:     cfg.pollInterval,
		maxBackoff:       cfg.maxBackoff,
		fetchLimit:       cfg.fetchLimit,
		claimTTL:         cfg.claimTTL,
		metrics:          newMetrics(),
	}
}

// WithRetry wraps RPC calls (signature listing and transaction fetches) with
// the given retry policy.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithIdempotencyGuard installs a cross-instance signature claim mechanism.
func WithIdempotencyGuard(g IdempotencyGuard) Option {
	return func(c *config) {
		c.idempotencyGuard = g
	}
}

// WithPollInterval sets the delay between polling ticks for each account.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithMaxBackoff caps the exponential backoff applied after failed ticks.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *config) {
		c.maxBackoff = d
	}
}

// WithFetchLimit caps how many signatures a single tick lists per account.
func WithFetchLimit(n int) Option {
	return func(c *config) {
		c.fetchLimit = n
	}
}

// WithClaimTTL sets how long an idempotency claim stays live before another
// instance may retry the signature.
func WithClaimTTL(d time.Duration) Option {
	return func(c *config) {
		c.claimTTL = d
	}
}
