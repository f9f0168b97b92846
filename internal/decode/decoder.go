// Package decode turns raw program-log payloads into typed events using a
// schema registry. It contains the binary event decoder (Borsh layout:
// little-endian, length-prefixed, unpadded) and the log extractor that
// isolates event-bearing lines from a transaction's log output.
//
// Decoding is pure computation: nothing in this package blocks or performs
// I/O, so it is safe to call from any number of concurrent pollers sharing
// one read-only registry.
package decode

import (
	"encoding/binary"
	"errors"
	"math"
	"math/big"

	"github.com/gabapcia/eventwatch/internal/schema"

	"github.com/gagliardetto/solana-go"
)

// Event is a decoded program event: its schema name and the decoded field
// values keyed by field name. Events are immutable once returned.
type Event struct {
	Kind    string
	Payload map[string]any
}

// Decoder decodes raw event buffers against an immutable schema registry.
type Decoder struct {
	registry *schema.Registry
}

// NewDecoder creates a Decoder backed by the given registry.
func NewDecoder(registry *schema.Registry) *Decoder {
	return &Decoder{registry: registry}
}

// Decode reads the discriminant prefix from buf, looks up its schema, and
// sequentially consumes the remaining bytes according to the schema's field
// list.
//
// Error contract:
//   - ErrUnknownEventKind (as *UnknownEventKindError) when the discriminant
//     is not registered; the zero Event is returned.
//   - ErrTruncatedData (as *TruncatedDataError) when buf ends early; the zero
//     Event is returned.
//   - ErrTrailingData (as *TrailingDataError) when bytes remain after all
//     fields were read; the decoded Event IS returned and callers should
//     treat the error as a warning only.
func (d *Decoder) Decode(buf []byte) (Event, error) {
	if len(buf) < schema.DiscriminantSize {
		return Event{}, &TruncatedDataError{Offset: len(buf)}
	}

	var disc schema.Discriminant
	copy(disc[:], buf[:schema.DiscriminantSize])

	es, ok := d.registry.Lookup(disc)
	if !ok {
		return Event{}, &UnknownEventKindError{Discriminant: disc, Length: len(buf)}
	}

	r := &reader{buf: buf, off: schema.DiscriminantSize}

	payload, err := d.readFields(r, es.Name, es.Fields)
	if err != nil {
		return Event{}, err
	}

	event := Event{Kind: es.Name, Payload: payload}
	if remaining := len(buf) - r.off; remaining > 0 {
		return event, &TrailingDataError{Kind: es.Name, Remaining: remaining}
	}

	return event, nil
}

// reader is a byte cursor over an event buffer. take is the single point
// where bytes are consumed, so truncation is detected in exactly one place.
type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, bool) {
	if r.off+n > len(r.buf) {
		return nil, false
	}

	data := r.buf[r.off : r.off+n]
	r.off += n
	return data, true
}

func (d *Decoder) readFields(r *reader, kind string, fields []schema.Field) (map[string]any, error) {
	payload := make(map[string]any, len(fields))
	for _, f := range fields {
		value, err := d.readValue(r, kind, f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		payload[f.Name] = value
	}

	return payload, nil
}

func (d *Decoder) readValue(r *reader, kind, field string, t schema.Type) (any, error) {
	truncated := func() error {
		return &TruncatedDataError{Kind: kind, Field: field, Offset: r.off}
	}

	switch t.Kind {
	case schema.KindBool:
		b, ok := r.take(1)
		if !ok {
			return nil, truncated()
		}
		return b[0] != 0, nil

	case schema.KindU8:
		b, ok := r.take(1)
		if !ok {
			return nil, truncated()
		}
		return uint64(b[0]), nil

	case schema.KindI8:
		b, ok := r.take(1)
		if !ok {
			return nil, truncated()
		}
		return int64(int8(b[0])), nil

	case schema.KindU16:
		b, ok := r.take(2)
		if !ok {
			return nil, truncated()
		}
		return uint64(binary.LittleEndian.Uint16(b)), nil

	case schema.KindI16:
		b, ok := r.take(2)
		if !ok {
			return nil, truncated()
		}
		return int64(int16(binary.LittleEndian.Uint16(b))), nil

	case schema.KindU32:
		b, ok := r.take(4)
		if !ok {
			return nil, truncated()
		}
		return uint64(binary.LittleEndian.Uint32(b)), nil

	case schema.KindI32:
		b, ok := r.take(4)
		if !ok {
			return nil, truncated()
		}
		return int64(int32(binary.LittleEndian.Uint32(b))), nil

	case schema.KindU64:
		b, ok := r.take(8)
		if !ok {
			return nil, truncated()
		}
		return binary.LittleEndian.Uint64(b), nil

	case schema.KindI64:
		b, ok := r.take(8)
		if !ok {
			return nil, truncated()
		}
		return int64(binary.LittleEndian.Uint64(b)), nil

	case schema.KindU128, schema.KindI128:
		b, ok := r.take(16)
		if !ok {
			return nil, truncated()
		}
		return readInt128(b, t.Kind == schema.KindI128), nil

	case schema.KindF32:
		b, ok := r.take(4)
		if !ok {
			return nil, truncated()
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil

	case schema.KindF64:
		b, ok := r.take(8)
		if !ok {
			return nil, truncated()
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil

	case schema.KindBytes:
		length, ok := r.takeLen()
		if !ok {
			return nil, truncated()
		}
		b, ok := r.take(length)
		if !ok {
			return nil, truncated()
		}
		out := make([]byte, length)
		copy(out, b)
		return out, nil

	case schema.KindString:
		length, ok := r.takeLen()
		if !ok {
			return nil, truncated()
		}
		b, ok := r.take(length)
		if !ok {
			return nil, truncated()
		}
		return string(b), nil

	case schema.KindPublicKey:
		b, ok := r.take(solana.PublicKeyLength)
		if !ok {
			return nil, truncated()
		}
		return solana.PublicKeyFromBytes(b), nil

	case schema.KindOption:
		flag, ok := r.take(1)
		if !ok {
			return nil, truncated()
		}
		if flag[0] == 0 {
			return nil, nil
		}
		return d.readValue(r, kind, field, *t.Elem)

	case schema.KindVec:
		length, ok := r.takeLen()
		if !ok {
			return nil, truncated()
		}
		return d.readSequence(r, kind, field, *t.Elem, length)

	case schema.KindArray:
		return d.readSequence(r, kind, field, *t.Elem, t.Len)

	case schema.KindDefined:
		return d.readDefined(r, kind, field, t.Defined)
	}

	// Unreachable for registries built by schema.Load, which rejects
	// unresolved kinds at load time.
	return nil, errors.New("unsupported field type")
}

// readInt128 interprets 16 little-endian bytes as an unsigned or two's
// complement signed 128-bit integer. Values this wide do not fit native Go
// integers, so they surface as *big.Int.
func readInt128(b []byte, signed bool) *big.Int {
	be := make([]byte, 16)
	for i, v := range b {
		be[15-i] = v
	}

	n := new(big.Int).SetBytes(be)
	if signed && b[15]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}

	return n
}

// takeLen reads the u32 little-endian length prefix used by bytes, strings,
// and vecs.
func (r *reader) takeLen() (int, bool) {
	b, ok := r.take(4)
	if !ok {
		return 0, false
	}
	return int(binary.LittleEndian.Uint32(b)), true
}

// readSequence decodes length elements of elem. Byte element sequences are
// returned as []byte, everything else as []any. The length may come straight
// from an untrusted u32 prefix, so it is checked against the bytes remaining
// before any allocation: every element consumes at least one byte, making a
// larger claim truncated by definition.
func (d *Decoder) readSequence(r *reader, kind, field string, elem schema.Type, length int) (any, error) {
	if length > len(r.buf)-r.off {
		return nil, &TruncatedDataError{Kind: kind, Field: field, Offset: r.off}
	}

	if elem.Kind == schema.KindU8 {
		b, ok := r.take(length)
		if !ok {
			return nil, &TruncatedDataError{Kind: kind, Field: field, Offset: r.off}
		}
		out := make([]byte, length)
		copy(out, b)
		return out, nil
	}

	values := make([]any, length)
	for i := range values {
		value, err := d.readValue(r, kind, field, elem)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}

	return values, nil
}

// readDefined decodes a named struct or enum. Structs become a field map.
// Enums read a 1-byte variant tag; unit variants decode to the variant name,
// variants with fields to a single-key map of variant name to field map.
func (d *Decoder) readDefined(r *reader, kind, field, name string) (any, error) {
	dt, ok := d.registry.DefinedType(name)
	if !ok {
		// Load-time resolution makes this unreachable; kept as a guard.
		return nil, errors.New("unresolved defined type " + name)
	}

	if !dt.IsEnum() {
		return d.readFields(r, kind, dt.Fields)
	}

	tag, ok := r.take(1)
	if !ok {
		return nil, &TruncatedDataError{Kind: kind, Field: field, Offset: r.off}
	}
	if int(tag[0]) >= len(dt.Variants) {
		return nil, &TruncatedDataError{Kind: kind, Field: field + " (enum tag out of range)", Offset: r.off}
	}

	variant := dt.Variants[tag[0]]
	if len(variant.Fields) == 0 {
		return variant.Name, nil
	}

	fields, err := d.readFields(r, kind, variant.Fields)
	if err != nil {
		return nil, err
	}

	return map[string]any{variant.Name: fields}, nil
}
