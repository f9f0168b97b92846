package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryServiceFake struct {
	started []string
	stopped []string
	watched []solana.PublicKey

	startErr error
	listErr  error
}

func (f *registryServiceFake) StartWatching(ctx context.Context, address string) error {
	f.started = append(f.started, address)
	return f.startErr
}

func (f *registryServiceFake) StopWatching(ctx context.Context, address string) error {
	f.stopped = append(f.stopped, address)
	return nil
}

func (f *registryServiceFake) ListWatched(ctx context.Context) ([]solana.PublicKey, error) {
	return f.watched, f.listErr
}

func TestStartWatchingAccountCommand(t *testing.T) {
	t.Run("registers the given address", func(t *testing.T) {
		registry := &registryServiceFake{}
		cmd := startWatchingAccountCommand(registry)

		err := cmd.Run(t.Context(), []string{"watch", "--address", "11111111111111111111111111111111"})
		require.NoError(t, err)
		assert.Equal(t, []string{"11111111111111111111111111111111"}, registry.started)
	})

	t.Run("requires the address flag", func(t *testing.T) {
		registry := &registryServiceFake{}
		cmd := startWatchingAccountCommand(registry)

		require.Error(t, cmd.Run(t.Context(), []string{"watch"}))
		assert.Empty(t, registry.started)
	})

	t.Run("propagates service errors", func(t *testing.T) {
		svcErr := errors.New("invalid account address")
		registry := &registryServiceFake{startErr: svcErr}
		cmd := startWatchingAccountCommand(registry)

		err := cmd.Run(t.Context(), []string{"watch", "--address", "bogus"})
		require.ErrorIs(t, err, svcErr)
	})
}

func TestStopWatchingAccountCommand(t *testing.T) {
	t.Run("unregisters the given address", func(t *testing.T) {
		registry := &registryServiceFake{}
		cmd := stopWatchingAccountCommand(registry)

		err := cmd.Run(t.Context(), []string{"unwatch", "--address", "11111111111111111111111111111111"})
		require.NoError(t, err)
		assert.Equal(t, []string{"11111111111111111111111111111111"}, registry.stopped)
	})
}

func TestListWatchedAccountsCommand(t *testing.T) {
	t.Run("propagates listing errors", func(t *testing.T) {
		listErr := errors.New("registry unavailable")
		registry := &registryServiceFake{listErr: listErr}
		cmd := listWatchedAccountsCommand(registry)

		require.ErrorIs(t, cmd.Run(t.Context(), []string{"watched"}), listErr)
	})

	t.Run("lists without error", func(t *testing.T) {
		registry := &registryServiceFake{
			watched: []solana.PublicKey{solana.MustPublicKeyFromBase58("11111111111111111111111111111111")},
		}
		cmd := listWatchedAccountsCommand(registry)

		require.NoError(t, cmd.Run(t.Context(), []string{"watched"}))
	})
}
