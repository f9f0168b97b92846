package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrier_Execute(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		r := New(WithDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		var calls int
		err := r.Execute(context.Background(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		r := New(WithAttempts(5), WithDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		var calls int
		err := r.Execute(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error after exhausting attempts", func(t *testing.T) {
		r := New(WithAttempts(3), WithDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		lastErr := errors.New("attempt 3")
		var calls int
		err := r.Execute(context.Background(), func() error {
			calls++
			if calls == 3 {
				return lastErr
			}
			return errors.New("earlier attempt")
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, lastErr)
	})

	t.Run("combines errors when last error only is disabled", func(t *testing.T) {
		r := New(
			WithAttempts(2),
			WithDelay(time.Millisecond),
			WithMaxDelay(time.Millisecond),
			WithLastErrorOnly(false),
		)

		first := errors.New("first")
		second := errors.New("second")
		var calls int
		err := r.Execute(context.Background(), func() error {
			calls++
			if calls == 1 {
				return first
			}
			return second
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		r := New(WithAttempts(10), WithDelay(50*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())

		var calls int
		errCh := make(chan error, 1)
		go func() {
			errCh <- r.Execute(ctx, func() error {
				calls++
				return errors.New("always fails")
			})
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		err := <-errCh
		require.Error(t, err)
		assert.Less(t, calls, 10)
	})
}
