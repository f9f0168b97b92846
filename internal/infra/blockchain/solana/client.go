// Package solana implements the accountwatch.Blockchain interface on top of
// a Solana JSON-RPC node.
package solana

import (
	"errors"
	"fmt"

	"github.com/gabapcia/eventwatch/internal/accountwatch"
	"github.com/gabapcia/eventwatch/internal/pkg/transport/jsonrpc"
)

// commitment level used for all queries. Confirmed keeps latency low while
// still excluding unvoted forks; processed would risk indexing rolled-back
// transactions.
const commitmentConfirmed = "confirmed"

// Provider error codes that indicate throttling or a temporarily unusable
// node rather than a malformed request.
var transientRPCCodes = map[int]struct{}{
	429:    {}, // some providers surface HTTP 429 as a JSON-RPC code
	-32004: {}, // block not available yet
	-32005: {}, // node is behind
	-32016: {}, // rate limit exceeded
}

// client implements the accountwatch.Blockchain interface for Solana nodes.
type client struct {
	conn jsonrpc.Client
}

var _ accountwatch.Blockchain = (*client)(nil)

// NewClient creates a Solana blockchain client using the provided JSON-RPC
// connection.
func NewClient(conn jsonrpc.Client) *client {
	return &client{
		conn: conn,
	}
}

// classifyRPCError maps throttle-class provider errors to
// accountwatch.ErrRateLimited so the orchestrator backs off instead of
// treating the tick failure as a plain fault.
func classifyRPCError(err error) error {
	var providerErr *jsonrpc.ProviderError
	if errors.As(err, &providerErr) {
		if _, ok := transientRPCCodes[providerErr.Code]; ok {
			return fmt.Errorf("%w: %v", accountwatch.ErrRateLimited, err)
		}
	}

	return err
}
