package redis

import (
	"context"

	"github.com/gabapcia/eventwatch/internal/accountregistry"
)

// accountregistryWatchedSetKey is the Redis set holding every account address
// registered for event indexing.
const accountregistryWatchedSetKey = "accountregistry:watched"

// RegisterAccount adds the account address to the watched set. Set semantics
// make repeated registration a no-op.
func (c *client) RegisterAccount(ctx context.Context, account accountregistry.WatchedAccount) error {
	return c.conn.SAdd(ctx, accountregistryWatchedSetKey, account.Address).Err()
}

// UnregisterAccount removes the account address from the watched set.
func (c *client) UnregisterAccount(ctx context.Context, account accountregistry.WatchedAccount) error {
	return c.conn.SRem(ctx, accountregistryWatchedSetKey, account.Address).Err()
}

// ListAccounts returns every registered account address.
func (c *client) ListAccounts(ctx context.Context) ([]accountregistry.WatchedAccount, error) {
	addresses, err := c.conn.SMembers(ctx, accountregistryWatchedSetKey).Result()
	if err != nil {
		return nil, err
	}

	accounts := make([]accountregistry.WatchedAccount, len(addresses))
	for i, address := range addresses {
		accounts[i] = accountregistry.WatchedAccount{Address: address}
	}

	return accounts, nil
}

// Ensure the client satisfies the AccountStorage interface at compile time.
var _ accountregistry.AccountStorage = new(client)
