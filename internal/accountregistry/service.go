// Package accountregistry manages the set of accounts whose event history
// should be indexed. It validates addresses and delegates persistence to the
// configured AccountStorage.
package accountregistry

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Service registers and unregisters accounts for event indexing and exposes
// the current watched set for the polling orchestrator to consume at boot.
type Service interface {
	// StartWatching registers an account for event indexing. The address
	// must be a valid base58 public key.
	StartWatching(ctx context.Context, address string) error

	// StopWatching unregisters an account from event indexing.
	StopWatching(ctx context.Context, address string) error

	// ListWatched returns the public keys of every watched account.
	ListWatched(ctx context.Context) ([]solana.PublicKey, error)
}

type service struct {
	accountStorage AccountStorage
}

var _ Service = (*service)(nil)

// New creates the accountregistry service on top of the given storage.
func New(as AccountStorage) *service {
	return &service{
		accountStorage: as,
	}
}

func (s *service) StartWatching(ctx context.Context, address string) error {
	account, err := buildWatchedAccount(address)
	if err != nil {
		return err
	}

	return s.accountStorage.RegisterAccount(ctx, account)
}

func (s *service) StopWatching(ctx context.Context, address string) error {
	account, err := buildWatchedAccount(address)
	if err != nil {
		return err
	}

	return s.accountStorage.UnregisterAccount(ctx, account)
}

func (s *service) ListWatched(ctx context.Context) ([]solana.PublicKey, error) {
	accounts, err := s.accountStorage.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]solana.PublicKey, 0, len(accounts))
	for _, account := range accounts {
		pk, err := account.PublicKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, pk)
	}

	return keys, nil
}
