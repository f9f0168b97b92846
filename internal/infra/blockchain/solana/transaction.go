package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/eventwatch/internal/accountwatch"

	"github.com/gagliardetto/solana-go"
)

// ErrTransactionNotFound indicates the node has no record of the requested
// signature at the queried commitment level.
var ErrTransactionNotFound = errors.New("transaction not found")

type (
	// signatureResponse is one entry returned by getSignaturesForAddress.
	signatureResponse struct {
		Signature solana.Signature `json:"signature"`
		Slot      uint64           `json:"slot"`
		Err       json.RawMessage  `json:"err"`
		BlockTime *int64           `json:"blockTime"`
	}

	// transactionResponse is the subset of getTransaction's json-encoded
	// response the indexer needs: slot, timestamp, account keys, and logs.
	transactionResponse struct {
		Slot        uint64 `json:"slot"`
		BlockTime   *int64 `json:"blockTime"`
		Transaction struct {
			Signatures []solana.Signature `json:"signatures"`
			Message    struct {
				AccountKeys []solana.PublicKey `json:"accountKeys"`
			} `json:"message"`
		} `json:"transaction"`
		Meta struct {
			Err         json.RawMessage `json:"err"`
			LogMessages []string        `json:"logMessages"`
		} `json:"meta"`
	}
)

func (r signatureResponse) toSignatureInfo() accountwatch.SignatureInfo {
	return accountwatch.SignatureInfo{
		Signature: r.Signature,
		Slot:      r.Slot,
		BlockTime: unixTime(r.BlockTime),
		Failed:    !isNullJSON(r.Err),
	}
}

func (r transactionResponse) toTransactionLogs() accountwatch.TransactionLogs {
	var signature solana.Signature
	if len(r.Transaction.Signatures) > 0 {
		signature = r.Transaction.Signatures[0]
	}

	return accountwatch.TransactionLogs{
		Signature:   signature,
		Slot:        r.Slot,
		BlockTime:   unixTime(r.BlockTime),
		AccountKeys: r.Transaction.Message.AccountKeys,
		LogLines:    r.Meta.LogMessages,
		Failed:      !isNullJSON(r.Meta.Err),
	}
}

func unixTime(ts *int64) *time.Time {
	if ts == nil {
		return nil
	}

	t := time.Unix(*ts, 0).UTC()
	return &t
}

func isNullJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// ListSignatures implements the accountwatch.Blockchain interface. The node
// reports signatures newest-first; they are reversed here so callers receive
// chain order.
func (c *client) ListSignatures(ctx context.Context, account solana.PublicKey, until solana.Signature, limit int) ([]accountwatch.SignatureInfo, error) {
	params := map[string]any{
		"commitment": commitmentConfirmed,
		"limit":      limit,
	}
	if !until.IsZero() {
		params["until"] = until.String()
	}

	data, err := c.conn.Fetch(ctx, "getSignaturesForAddress", account.String(), params)
	if err != nil {
		return nil, classifyRPCError(err)
	}

	var entries []signatureResponse
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding signature list: %w", err)
	}

	infos := make([]accountwatch.SignatureInfo, len(entries))
	for i, entry := range entries {
		infos[len(entries)-1-i] = entry.toSignatureInfo()
	}

	return infos, nil
}

// FetchTransactionLogs implements the accountwatch.Blockchain interface.
func (c *client) FetchTransactionLogs(ctx context.Context, signature solana.Signature) (accountwatch.TransactionLogs, error) {
	params := map[string]any{
		"commitment":                     commitmentConfirmed,
		"encoding":                       "json",
		"maxSupportedTransactionVersion": 0,
	}

	data, err := c.conn.Fetch(ctx, "getTransaction", signature.String(), params)
	if err != nil {
		return accountwatch.TransactionLogs{}, classifyRPCError(err)
	}
	if isNullJSON(data) {
		return accountwatch.TransactionLogs{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, signature)
	}

	var response transactionResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return accountwatch.TransactionLogs{}, fmt.Errorf("decoding transaction: %w", err)
	}

	txLogs := response.toTransactionLogs()
	if txLogs.Signature.IsZero() {
		txLogs.Signature = signature
	}

	return txLogs, nil
}
