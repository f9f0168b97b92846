package accountwatch

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ErrRateLimited indicates the RPC provider rejected a request for throttling
// reasons. Implementations of Blockchain must wrap throttle responses with
// this sentinel so the orchestrator can route into backoff instead of
// treating the failure as permanent.
var ErrRateLimited = errors.New("rpc provider rate limited")

// SignatureInfo is one entry from an account's signature history.
type SignatureInfo struct {
	Signature solana.Signature // transaction signature
	Slot      uint64           // slot the transaction was confirmed in
	BlockTime *time.Time       // block timestamp, when the provider reports one
	Failed    bool             // whether the transaction itself errored on chain
}

// TransactionLogs is the log output of a single confirmed transaction,
// together with the account keys it touched.
type TransactionLogs struct {
	Signature   solana.Signature
	Slot        uint64
	BlockTime   *time.Time
	AccountKeys []solana.PublicKey // static account keys of the transaction message
	LogLines    []string           // raw program log lines, in execution order
	Failed      bool               // whether the transaction's metadata reports an on-chain error
}

// Blockchain is the RPC collaborator the orchestrator polls for new on-chain
// activity. Connection handling, authentication, and HTTP-level retries
// belong to the implementation.
type Blockchain interface {
	// ListSignatures returns the signatures for account confirmed after
	// `until`, oldest first and capped at limit. Chain order must be
	// preserved: providers that report newest-first must be reversed before
	// returning, because cursor advancement assumes monotonic progress.
	//
	// A zero-value `until` means no cursor exists yet and history should be
	// listed from the configured starting point.
	ListSignatures(ctx context.Context, account solana.PublicKey, until solana.Signature, limit int) ([]SignatureInfo, error)

	// FetchTransactionLogs retrieves the log output of the transaction
	// identified by signature.
	FetchTransactionLogs(ctx context.Context, signature solana.Signature) (TransactionLogs, error)
}
