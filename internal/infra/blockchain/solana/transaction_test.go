package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gabapcia/eventwatch/internal/accountwatch"
	"github.com/gabapcia/eventwatch/internal/pkg/transport/jsonrpc"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonrpcFake struct {
	lastMethod string
	lastParams []any

	fetchFn func(method string, params ...any) (json.RawMessage, error)
}

func (f *jsonrpcFake) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	f.lastMethod = method
	f.lastParams = params
	return f.fetchFn(method, params...)
}

func testSig(b byte) solana.Signature {
	var s solana.Signature
	s[0] = b
	return s
}

func testAccount() solana.PublicKey {
	var pk solana.PublicKey
	pk[0] = 0xaa
	return pk
}

func TestClient_ListSignatures(t *testing.T) {
	account := testAccount()

	t.Run("reverses the node's newest-first order", func(t *testing.T) {
		s4, s5 := testSig(4), testSig(5)

		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				payload := fmt.Sprintf(`[
					{"signature": %q, "slot": 105, "err": {"InstructionError": [0, "Custom"]}, "blockTime": 1700000500},
					{"signature": %q, "slot": 104, "err": null, "blockTime": 1700000400}
				]`, s5, s4)
				return json.RawMessage(payload), nil
			},
		}

		infos, err := NewClient(conn).ListSignatures(t.Context(), account, testSig(3), 100)
		require.NoError(t, err)

		assert.Equal(t, "getSignaturesForAddress", conn.lastMethod)
		require.Len(t, infos, 2)

		assert.Equal(t, s4, infos[0].Signature)
		assert.Equal(t, uint64(104), infos[0].Slot)
		assert.False(t, infos[0].Failed)
		require.NotNil(t, infos[0].BlockTime)
		assert.Equal(t, int64(1700000400), infos[0].BlockTime.Unix())

		assert.Equal(t, s5, infos[1].Signature)
		assert.True(t, infos[1].Failed)
	})

	t.Run("omits the until parameter without a cursor", func(t *testing.T) {
		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return json.RawMessage(`[]`), nil
			},
		}

		_, err := NewClient(conn).ListSignatures(t.Context(), account, solana.Signature{}, 50)
		require.NoError(t, err)

		require.Len(t, conn.lastParams, 2)
		opts, ok := conn.lastParams[1].(map[string]any)
		require.True(t, ok)
		assert.NotContains(t, opts, "until")
		assert.Equal(t, 50, opts["limit"])
	})

	t.Run("passes the cursor as until", func(t *testing.T) {
		until := testSig(3)

		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return json.RawMessage(`[]`), nil
			},
		}

		_, err := NewClient(conn).ListSignatures(t.Context(), account, until, 50)
		require.NoError(t, err)

		opts := conn.lastParams[1].(map[string]any)
		assert.Equal(t, until.String(), opts["until"])
	})

	t.Run("classifies throttle errors as rate limited", func(t *testing.T) {
		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return nil, &jsonrpc.ProviderError{Code: -32005, Message: "node is behind"}
			},
		}

		_, err := NewClient(conn).ListSignatures(t.Context(), account, solana.Signature{}, 50)
		require.ErrorIs(t, err, accountwatch.ErrRateLimited)
	})

	t.Run("passes other provider errors through", func(t *testing.T) {
		providerErr := &jsonrpc.ProviderError{Code: -32602, Message: "invalid params"}

		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return nil, providerErr
			},
		}

		_, err := NewClient(conn).ListSignatures(t.Context(), account, solana.Signature{}, 50)
		require.ErrorContains(t, err, "invalid params")
		assert.NotErrorIs(t, err, accountwatch.ErrRateLimited)
	})
}

func TestClient_FetchTransactionLogs(t *testing.T) {
	signature := testSig(7)

	t.Run("maps the transaction response", func(t *testing.T) {
		program := testAccount()

		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				payload := fmt.Sprintf(`{
					"slot": 107,
					"blockTime": 1700000700,
					"transaction": {
						"signatures": [%q],
						"message": {"accountKeys": [%q]}
					},
					"meta": {
						"err": null,
						"logMessages": [
							"Program log: Instruction: Fill",
							"Program data: AQID"
						]
					}
				}`, signature, program)
				return json.RawMessage(payload), nil
			},
		}

		txLogs, err := NewClient(conn).FetchTransactionLogs(t.Context(), signature)
		require.NoError(t, err)

		assert.Equal(t, "getTransaction", conn.lastMethod)
		assert.Equal(t, signature, txLogs.Signature)
		assert.Equal(t, uint64(107), txLogs.Slot)
		require.NotNil(t, txLogs.BlockTime)
		assert.Equal(t, int64(1700000700), txLogs.BlockTime.Unix())
		assert.Equal(t, []solana.PublicKey{program}, txLogs.AccountKeys)
		require.Len(t, txLogs.LogLines, 2)
		assert.False(t, txLogs.Failed)
	})

	t.Run("flags transactions whose metadata reports an error", func(t *testing.T) {
		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return json.RawMessage(`{
					"slot": 107,
					"transaction": {"message": {"accountKeys": []}},
					"meta": {
						"err": {"InstructionError": [0, "Custom"]},
						"logMessages": ["Program data: AQID"]
					}
				}`), nil
			},
		}

		txLogs, err := NewClient(conn).FetchTransactionLogs(t.Context(), signature)
		require.NoError(t, err)
		assert.True(t, txLogs.Failed)
	})

	t.Run("missing transaction is reported", func(t *testing.T) {
		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return json.RawMessage(`null`), nil
			},
		}

		_, err := NewClient(conn).FetchTransactionLogs(t.Context(), signature)
		require.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("classifies throttle errors as rate limited", func(t *testing.T) {
		conn := &jsonrpcFake{
			fetchFn: func(method string, params ...any) (json.RawMessage, error) {
				return nil, &jsonrpc.ProviderError{Code: 429, Message: "too many requests"}
			},
		}

		_, err := NewClient(conn).FetchTransactionLogs(t.Context(), signature)
		require.ErrorIs(t, err, accountwatch.ErrRateLimited)
	})
}
