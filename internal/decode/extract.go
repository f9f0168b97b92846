package decode

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Program-log markers emitted by the runtime around event payloads. Events
// are published either through the log syscall ("Program log: ") or the data
// syscall ("Program data: "); both carry a base64 payload.
const (
	programLogPrefix  = "Program log: "
	programDataPrefix = "Program data: "
)

// LineError records a single log line that looked like an event payload but
// failed transport decoding. One malformed line never discards the rest of
// the transaction's events.
type LineError struct {
	Line int   // index of the offending line within the transaction's logs
	Err  error // wraps ErrTransportDecode
}

func (e LineError) Error() string {
	return fmt.Sprintf("log line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// ExtractEventData scans a transaction's log lines and returns the raw event
// buffers found, in log order, alongside per-line errors for candidate lines
// whose payload failed base64 decoding.
//
// Only lines bearing one of the program-log markers are candidates; all other
// lines (invocation traces, compute budget output, plain-text logging) are
// silently ignored.
func ExtractEventData(logLines []string) ([][]byte, []LineError) {
	var (
		buffers  [][]byte
		lineErrs []LineError
	)

	for i, line := range logLines {
		payload, ok := eventPayload(line)
		if !ok {
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			lineErrs = append(lineErrs, LineError{
				Line: i,
				Err:  fmt.Errorf("%w: %v", ErrTransportDecode, err),
			})
			continue
		}

		buffers = append(buffers, raw)
	}

	return buffers, lineErrs
}

// eventPayload strips the program-log marker from a line, reporting whether
// the line is an event candidate at all.
func eventPayload(line string) (string, bool) {
	if payload, ok := strings.CutPrefix(line, programLogPrefix); ok {
		return payload, true
	}
	if payload, ok := strings.CutPrefix(line, programDataPrefix); ok {
		return payload, true
	}

	return "", false
}
