package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/gabapcia/eventwatch/internal/accountwatch"
	"github.com/gabapcia/eventwatch/internal/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

func testKey(b byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[0] = b
	return pk
}

type registryFake struct {
	watched []solana.PublicKey
	listErr error
}

func (f *registryFake) StartWatching(ctx context.Context, address string) error { return nil }
func (f *registryFake) StopWatching(ctx context.Context, address string) error  { return nil }

func (f *registryFake) ListWatched(ctx context.Context) ([]solana.PublicKey, error) {
	return f.watched, f.listErr
}

type watcherFake struct {
	startErr error
	started  bool
	closed   bool
}

func (f *watcherFake) Start(ctx context.Context) error {
	f.started = true
	return f.startErr
}

func (f *watcherFake) Close() {
	f.closed = true
}

func TestService_Start(t *testing.T) {
	t.Run("merges registry and static accounts without duplicates", func(t *testing.T) {
		registry := &registryFake{watched: []solana.PublicKey{testKey(1), testKey(2)}}
		watcher := &watcherFake{}

		var resolved []solana.PublicKey
		factory := func(accounts []solana.PublicKey) accountwatch.Service {
			resolved = accounts
			return watcher
		}

		svc := New(registry, factory, WithStaticAccounts([]solana.PublicKey{testKey(2), testKey(3)}))
		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		assert.Len(t, resolved, 3)
		assert.True(t, watcher.started)
	})

	t.Run("registry failure aborts startup", func(t *testing.T) {
		listErr := errors.New("registry unavailable")
		registry := &registryFake{listErr: listErr}

		svc := New(registry, func(accounts []solana.PublicKey) accountwatch.Service {
			t.Fatal("factory must not run when the registry fails")
			return nil
		})

		require.ErrorIs(t, svc.Start(t.Context()), listErr)
	})

	t.Run("watcher start failure surfaces", func(t *testing.T) {
		startErr := errors.New("no accounts to watch")
		registry := &registryFake{}
		watcher := &watcherFake{startErr: startErr}

		svc := New(registry, func(accounts []solana.PublicKey) accountwatch.Service {
			return watcher
		})

		require.ErrorIs(t, svc.Start(t.Context()), startErr)
		assert.False(t, svc.isStarted)
	})

	t.Run("starting twice fails", func(t *testing.T) {
		registry := &registryFake{watched: []solana.PublicKey{testKey(1)}}
		watcher := &watcherFake{}

		svc := New(registry, func(accounts []solana.PublicKey) accountwatch.Service {
			return watcher
		})

		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		require.ErrorIs(t, svc.Start(t.Context()), ErrServiceAlreadyStarted)
	})
}

func TestService_Close(t *testing.T) {
	t.Run("close stops the watcher", func(t *testing.T) {
		registry := &registryFake{watched: []solana.PublicKey{testKey(1)}}
		watcher := &watcherFake{}

		svc := New(registry, func(accounts []solana.PublicKey) accountwatch.Service {
			return watcher
		})

		require.NoError(t, svc.Start(t.Context()))
		svc.Close()

		assert.True(t, watcher.closed)
	})

	t.Run("close before start is safe", func(t *testing.T) {
		svc := New(&registryFake{}, func(accounts []solana.PublicKey) accountwatch.Service {
			return &watcherFake{}
		})

		svc.Close()
	})
}
