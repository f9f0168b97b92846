// Package indexer coordinates the event indexing pipeline: it resolves the
// set of accounts to watch from the registry, builds the polling watcher for
// them, and manages the combined lifecycle.
package indexer

import (
	"context"
	"errors"
	"sync"

	"github.com/gabapcia/eventwatch/internal/accountregistry"
	"github.com/gabapcia/eventwatch/internal/accountwatch"
	"github.com/gabapcia/eventwatch/internal/pkg/logger"
	"github.com/gabapcia/eventwatch/internal/pkg/types"

	"github.com/gagliardetto/solana-go"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// WatcherFactory builds the polling watcher for the resolved account set.
// Injected so wiring (storage, RPC, decoder, options) stays in main.
type WatcherFactory func(accounts []solana.PublicKey) accountwatch.Service

// Service is the indexing pipeline entrypoint.
type Service interface {
	// Start resolves the watched account set and launches the polling
	// watcher. Returns ErrServiceAlreadyStarted if called more than once.
	Start(ctx context.Context) error

	// Close shuts the watcher down, letting in-flight signatures finish.
	// Safe to call even if the service was never started.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	registry       accountregistry.Service
	staticAccounts []solana.PublicKey
	newWatcher     WatcherFactory
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	accounts, err := s.resolveAccounts(ctx)
	if err != nil {
		return err
	}

	logger.Info(ctx, "starting indexer", "accounts", len(accounts))

	watcher := s.newWatcher(accounts)
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	s.closeFunc = watcher.Close
	s.isStarted = true
	return nil
}

// resolveAccounts merges the registry's watched set with the statically
// configured accounts, deduplicated.
func (s *service) resolveAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	registered, err := s.registry.ListWatched(ctx)
	if err != nil {
		return nil, err
	}

	merged := types.NewSet(registered...)
	for _, account := range s.staticAccounts {
		merged.Add(account)
	}

	return merged.ToSlice(), nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}

	s.closeFunc = nil
	s.isStarted = false
}

type config struct {
	staticAccounts []solana.PublicKey
}

type Option func(*config)

// New creates the indexer service. The factory is called once per Start with
// the resolved account set.
func New(registry accountregistry.Service, newWatcher WatcherFactory, opts ...Option) *service {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		registry:       registry,
		staticAccounts: cfg.staticAccounts,
		newWatcher:     newWatcher,
	}
}

// WithStaticAccounts adds accounts that are always watched, regardless of
// what the registry holds.
func WithStaticAccounts(accounts []solana.PublicKey) Option {
	return func(c *config) {
		c.staticAccounts = accounts
	}
}
