package decode

import (
	"errors"
	"fmt"

	"github.com/gabapcia/eventwatch/internal/schema"
)

var (
	// ErrUnknownEventKind indicates the buffer's discriminant is not present
	// in the registry. The registry is never exhaustive over time, so callers
	// must skip and count these rather than abort the batch.
	ErrUnknownEventKind = errors.New("unknown event kind")

	// ErrTruncatedData indicates the buffer ended before every schema field
	// was consumed. Usually a sign of schema drift; skip, count, and log
	// prominently.
	ErrTruncatedData = errors.New("truncated event data")

	// ErrTrailingData indicates bytes remained after all schema fields were
	// consumed. The decoded event is still returned; schemas may simply have
	// grown new fields this registry does not know about yet.
	ErrTrailingData = errors.New("trailing bytes after event data")

	// ErrTransportDecode indicates a candidate line's payload failed
	// base64 decoding. Contained to that single line, never the batch.
	ErrTransportDecode = errors.New("transport decode failed")
)

// UnknownEventKindError carries the raw discriminant and buffer length of an
// event kind the registry does not know. It unwraps to ErrUnknownEventKind.
type UnknownEventKindError struct {
	Discriminant schema.Discriminant
	Length       int
}

func (e *UnknownEventKindError) Error() string {
	return fmt.Sprintf("unknown event kind: discriminant %x (%d bytes)", e.Discriminant, e.Length)
}

func (e *UnknownEventKindError) Unwrap() error {
	return ErrUnknownEventKind
}

// TruncatedDataError reports where decoding ran out of bytes. It unwraps to
// ErrTruncatedData.
type TruncatedDataError struct {
	Kind   string // event kind being decoded, if the discriminant was read
	Field  string // field under decode when the buffer ran out
	Offset int    // byte offset reached
}

func (e *TruncatedDataError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("truncated event data: buffer shorter than discriminant (offset %d)", e.Offset)
	}
	return fmt.Sprintf("truncated event data: %s.%s at offset %d", e.Kind, e.Field, e.Offset)
}

func (e *TruncatedDataError) Unwrap() error {
	return ErrTruncatedData
}

// TrailingDataError reports unconsumed bytes after a successful decode. It
// unwraps to ErrTrailingData; the accompanying Event is valid.
type TrailingDataError struct {
	Kind      string
	Remaining int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("trailing bytes after event data: %s left %d bytes unconsumed", e.Kind, e.Remaining)
}

func (e *TrailingDataError) Unwrap() error {
	return ErrTrailingData
}
