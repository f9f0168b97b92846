package accountregistry

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/eventwatch/internal/pkg/validator"

	"github.com/gagliardetto/solana-go"
)

// ErrInvalidAddress indicates that the provided account address is not a
// valid base58-encoded public key.
var ErrInvalidAddress = errors.New("invalid account address")

// WatchedAccount identifies one account that has opted into event indexing.
type WatchedAccount struct {
	Address string `validate:"required"` // base58 account address
}

// PublicKey returns the parsed form of the address. Addresses are validated
// at registration time, so failures here indicate corrupted storage.
func (a WatchedAccount) PublicKey() (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(a.Address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return pk, nil
}

// AccountStorage is the persistence interface for the set of watched
// accounts.
type AccountStorage interface {
	// RegisterAccount adds the account to the watched set. Must be
	// idempotent: registering an already-watched account is a no-op.
	RegisterAccount(ctx context.Context, account WatchedAccount) error

	// UnregisterAccount removes the account from the watched set.
	UnregisterAccount(ctx context.Context, account WatchedAccount) error

	// ListAccounts returns every watched account, in no particular order.
	ListAccounts(ctx context.Context) ([]WatchedAccount, error)
}

// buildWatchedAccount constructs and validates a WatchedAccount, rejecting
// addresses that do not parse as public keys before they reach storage.
func buildWatchedAccount(address string) (WatchedAccount, error) {
	account := WatchedAccount{
		Address: address,
	}

	if err := validator.Validate(account); err != nil {
		return account, err
	}

	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return account, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return account, nil
}
