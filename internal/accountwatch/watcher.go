package accountwatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gabapcia/eventwatch/internal/decode"
	"github.com/gabapcia/eventwatch/internal/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// backoff produces exponentially growing delays, starting at initial and
// capped at max. Not safe for concurrent use; each polling task owns one.
type backoff struct {
	initial, max time.Duration
	current      time.Duration
}

func (b *backoff) next() time.Duration {
	if b.current == 0 {
		b.current = b.initial
	}

	d := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	return d
}

func (b *backoff) reset() {
	b.current = 0
}

// watchAccount is the polling task for a single account. It runs until ctx is
// canceled, executing one tick per interval and entering backoff after a
// failed tick so a degraded provider is not hammered.
func (s *service) watchAccount(ctx context.Context, account solana.PublicKey) {
	addr := account.String()
	logger.Info(ctx, "watching account", "account", addr)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	delay := backoff{initial: s.pollInterval, max: s.maxBackoff}

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "stopping account watcher", "account", addr)
			return
		case <-ticker.C:
		}

		err := s.tick(ctx, account)
		if err == nil {
			delay.reset()
			continue
		}
		if ctx.Err() != nil {
			logger.Info(ctx, "stopping account watcher", "account", addr)
			return
		}

		wait := delay.next()
		s.metrics.backoffs.Add(ctx, 1, metric.WithAttributes(attribute.String("account", addr)))
		logger.Warn(ctx, "tick failed, backing off",
			"account", addr,
			"backoff", wait.String(),
			"rate_limited", errors.Is(err, ErrRateLimited),
			"error", err,
		)

		select {
		case <-ctx.Done():
			logger.Info(ctx, "stopping account watcher", "account", addr)
			return
		case <-time.After(wait):
		}
	}
}

// tick advances one account as far as the current signature batch allows.
// Signatures are processed strictly in chain order; the first failure aborts
// the tick with the cursor already reflecting every fully-processed signature
// before it, so the next tick re-fetches only what is still pending.
func (s *service) tick(ctx context.Context, account solana.PublicKey) error {
	addr := account.String()
	s.metrics.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("account", addr)))

	var last solana.Signature
	cursor, err := s.cursorStorage.LoadCursor(ctx, addr)
	switch {
	case err == nil:
		last = cursor.LastSignature
	case errors.Is(err, ErrNoCursorFound):
		// first tick for this account: list from the provider's default
		// starting point and build the cursor from scratch
	default:
		return fmt.Errorf("loading cursor: %w", err)
	}

	sigs, err := s.listSignatures(ctx, account, last)
	if err != nil {
		return fmt.Errorf("listing signatures: %w", err)
	}

	for _, info := range sigs {
		if err := ctx.Err(); err != nil {
			return err
		}

		// providers may echo the `until` boundary itself; reprocessing it
		// would be harmless but advancing from it to itself is not progress
		if info.Signature == last {
			continue
		}

		advanced, err := s.processSignature(ctx, account, last, info)
		if err != nil {
			return fmt.Errorf("processing signature %s: %w", info.Signature, err)
		}
		if !advanced {
			break
		}

		last = info.Signature
	}

	return nil
}

// processSignature runs the full pipeline for one signature: claim, fetch,
// decode, persist, advance. It reports whether the cursor moved so the tick
// loop knows the expected previous value for the next signature.
func (s *service) processSignature(ctx context.Context, account solana.PublicKey, from solana.Signature, info SignatureInfo) (bool, error) {
	addr, sig := account.String(), info.Signature.String()

	err := s.idempotencyGuard.ClaimSignature(ctx, addr, sig, s.claimTTL)
	switch {
	case errors.Is(err, ErrAlreadyFinished):
		// another instance persisted and advanced; the reloaded cursor will
		// reflect that next tick
		logger.Info(ctx, "signature already processed", "account", addr, "signature", sig)
		return false, nil
	case errors.Is(err, ErrStillInProgress):
		logger.Debug(ctx, "signature claimed by another instance", "account", addr, "signature", sig)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("claiming signature: %w", err)
	}

	txLogs, err := s.fetchTransactionLogs(ctx, info.Signature)
	if err != nil {
		return false, fmt.Errorf("fetching transaction logs: %w", err)
	}

	records := s.decodeRecords(ctx, addr, info, txLogs)

	// Shield persistence and cursor advancement from cancellation: shutdown
	// finishes the in-flight signature instead of leaving events stored
	// without their cursor.
	storeCtx := context.WithoutCancel(ctx)

	if len(records) > 0 {
		if err := s.eventStorage.PersistEvents(storeCtx, records); err != nil {
			s.metrics.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("account", addr)))
			return false, fmt.Errorf("persisting events: %w", err)
		}
		s.metrics.eventsPersisted.Add(ctx, int64(len(records)), metric.WithAttributes(attribute.String("account", addr)))
	}

	if err := s.cursorStorage.AdvanceCursor(storeCtx, addr, from, info.Signature); err != nil {
		return false, fmt.Errorf("advancing cursor: %w", err)
	}

	if err := s.idempotencyGuard.MarkSignatureComplete(storeCtx, addr, sig); err != nil {
		logger.Error(ctx, "failed to mark signature complete", "account", addr, "signature", sig, "error", err)
	}

	return true, nil
}

// decodeRecords turns a transaction's log output into storable event records.
// Decode failures never abort the signature: unknown and truncated events are
// counted and skipped, trailing bytes are logged and the event kept.
func (s *service) decodeRecords(ctx context.Context, addr string, info SignatureInfo, txLogs TransactionLogs) []EventRecord {
	sig := info.Signature.String()

	// reverted transactions keep their logs but their events never happened;
	// the signature listing and the transaction metadata each carry the error
	// independently, and either one disqualifies the events
	if info.Failed || txLogs.Failed {
		logger.Debug(ctx, "skipping failed transaction", "account", addr, "signature", sig)
		return nil
	}
	if !s.transactionTouchesProgram(txLogs) {
		return nil
	}

	buffers, lineErrs := decode.ExtractEventData(txLogs.LogLines)
	for _, lineErr := range lineErrs {
		s.metrics.malformedLogLines.Add(ctx, 1, metric.WithAttributes(attribute.String("account", addr)))
		logger.Warn(ctx, "malformed event log line",
			"account", addr,
			"signature", sig,
			"line", lineErr.Line,
			"error", lineErr.Err,
		)
	}

	slot := txLogs.Slot
	if slot == 0 {
		slot = info.Slot
	}
	blockTime := txLogs.BlockTime
	if blockTime == nil {
		blockTime = info.BlockTime
	}

	records := make([]EventRecord, 0, len(buffers))
	for i, buf := range buffers {
		event, err := s.decoder.Decode(buf)
		switch {
		case errors.Is(err, decode.ErrUnknownEventKind):
			s.metrics.unknownEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("account", addr)))
			logger.Debug(ctx, "unknown event kind", "account", addr, "signature", sig, "event_index", i, "error", err)
			continue
		case errors.Is(err, decode.ErrTruncatedData):
			s.metrics.truncatedEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("account", addr)))
			logger.Error(ctx, "truncated event data", "account", addr, "signature", sig, "event_index", i, "error", err)
			continue
		case errors.Is(err, decode.ErrTrailingData):
			logger.Warn(ctx, "trailing bytes after event", "account", addr, "signature", sig, "event_index", i, "error", err)
		case err != nil:
			logger.Error(ctx, "event decode failure", "account", addr, "signature", sig, "event_index", i, "error", err)
			continue
		}

		records = append(records, EventRecord{
			Account:    addr,
			Signature:  sig,
			EventIndex: i,
			Kind:       event.Kind,
			Slot:       slot,
			BlockTime:  blockTime,
			Payload:    event.Payload,
		})
	}

	return records
}

// transactionTouchesProgram filters out transactions that merely transferred
// into the watched account without invoking the watched program. An unset
// program ID or a provider that omits account keys disables the filter.
func (s *service) transactionTouchesProgram(txLogs TransactionLogs) bool {
	if s.programID.IsZero() || len(txLogs.AccountKeys) == 0 {
		return true
	}

	return slices.Contains(txLogs.AccountKeys, s.programID)
}

func (s *service) listSignatures(ctx context.Context, account solana.PublicKey, until solana.Signature) ([]SignatureInfo, error) {
	if s.retry == nil {
		return s.blockchain.ListSignatures(ctx, account, until, s.fetchLimit)
	}

	var sigs []SignatureInfo
	err := s.retry.Execute(ctx, func() error {
		var err error
		sigs, err = s.blockchain.ListSignatures(ctx, account, until, s.fetchLimit)
		return err
	})

	return sigs, err
}

func (s *service) fetchTransactionLogs(ctx context.Context, signature solana.Signature) (TransactionLogs, error) {
	if s.retry == nil {
		return s.blockchain.FetchTransactionLogs(ctx, signature)
	}

	var txLogs TransactionLogs
	err := s.retry.Execute(ctx, func() error {
		var err error
		txLogs, err = s.blockchain.FetchTransactionLogs(ctx, signature)
		return err
	})

	return txLogs, err
}
