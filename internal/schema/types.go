package schema

import (
	"encoding/json"
	"fmt"
)

// TypeKind enumerates the primitive and composite kinds a field type can
// resolve to. The set mirrors the types expressible in an Anchor IDL.
type TypeKind int

const (
	// KindInvalid is the zero value. A field whose document entry omits the
	// type key resolves to it; Load rejects such documents.
	KindInvalid TypeKind = iota
	KindBool
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindU128
	KindI128
	KindF32
	KindF64
	KindBytes     // u32 length prefix + raw bytes
	KindString    // u32 length prefix + UTF-8 bytes
	KindPublicKey // 32-byte ed25519 public key
	KindOption    // 1-byte presence flag + value
	KindVec       // u32 length prefix + elements
	KindArray     // fixed number of elements, no prefix
	KindDefined   // named struct or enum from the document's types section
)

// primitiveKinds maps the document's type-name strings to their kinds.
var primitiveKinds = map[string]TypeKind{
	"bool":      KindBool,
	"u8":        KindU8,
	"i8":        KindI8,
	"u16":       KindU16,
	"i16":       KindI16,
	"u32":       KindU32,
	"i32":       KindI32,
	"u64":       KindU64,
	"i64":       KindI64,
	"u128":      KindU128,
	"i128":      KindI128,
	"f32":       KindF32,
	"f64":       KindF64,
	"bytes":     KindBytes,
	"string":    KindString,
	"publicKey": KindPublicKey,
	"pubkey":    KindPublicKey,
}

// Type is the resolved representation of a field type.
type Type struct {
	Kind    TypeKind
	Elem    *Type  // element type for option, vec, and array
	Len     int    // element count for array
	Defined string // type name for defined
}

// DefinedType is a named struct or enum declared in the document's types
// section. Exactly one of Fields (struct) or Variants (enum) is populated.
type DefinedType struct {
	Name     string
	Fields   []Field   // struct fields, in declared order
	Variants []Variant // enum variants, ordered by their 1-byte tag
}

// IsEnum reports whether the defined type decodes as a tagged enum.
func (d *DefinedType) IsEnum() bool {
	return d.Variants != nil
}

// Variant is one enum variant. Fields is empty for unit variants; tuple
// variants use synthesized positional names.
type Variant struct {
	Name   string
	Fields []Field
}

// typeRef is the raw JSON form of a field type: either a plain string naming
// a primitive, or an object wrapping option/vec/array/defined.
type typeRef struct {
	resolved Type
}

func (t *typeRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		kind, ok := primitiveKinds[name]
		if !ok {
			return fmt.Errorf("%w: unknown primitive %q", ErrUnresolvedType, name)
		}
		t.resolved = Type{Kind: kind}
		return nil
	}

	var composite struct {
		Option  *typeRef          `json:"option"`
		Vec     *typeRef          `json:"vec"`
		Array   []json.RawMessage `json:"array"`
		Defined string            `json:"defined"`
	}
	if err := json.Unmarshal(data, &composite); err != nil {
		return fmt.Errorf("%w: unparseable type reference: %v", ErrMalformedDocument, err)
	}

	switch {
	case composite.Option != nil:
		t.resolved = Type{Kind: KindOption, Elem: &composite.Option.resolved}
	case composite.Vec != nil:
		t.resolved = Type{Kind: KindVec, Elem: &composite.Vec.resolved}
	case composite.Array != nil:
		if len(composite.Array) != 2 {
			return fmt.Errorf("%w: array type must be [elem, len]", ErrMalformedDocument)
		}

		var elem typeRef
		if err := json.Unmarshal(composite.Array[0], &elem); err != nil {
			return err
		}

		var length int
		if err := json.Unmarshal(composite.Array[1], &length); err != nil || length < 0 {
			return fmt.Errorf("%w: invalid array length", ErrMalformedDocument)
		}

		t.resolved = Type{Kind: KindArray, Elem: &elem.resolved, Len: length}
	case composite.Defined != "":
		t.resolved = Type{Kind: KindDefined, Defined: composite.Defined}
	default:
		return fmt.Errorf("%w: empty type reference", ErrMalformedDocument)
	}

	return nil
}

// document is the JSON shape of the schema document.
type document struct {
	Name    string     `json:"name" validate:"required"`
	Version string     `json:"version"`
	Events  []eventDef `json:"events" validate:"required,min=1,dive"`
	Types   []typeDef  `json:"types" validate:"dive"`
}

type eventDef struct {
	Name          string     `json:"name" validate:"required"`
	Discriminator []int      `json:"discriminator"` // optional byte values; derived from the name when absent
	Fields        []fieldDef `json:"fields" validate:"dive"`
}

type fieldDef struct {
	Name string  `json:"name" validate:"required"`
	Type typeRef `json:"type"`
}

type typeDef struct {
	Name string `json:"name" validate:"required"`
	Type struct {
		Kind     string     `json:"kind" validate:"required,oneof=struct enum"`
		Fields   []fieldDef `json:"fields" validate:"dive"`
		Variants []struct {
			Name   string     `json:"name" validate:"required"`
			Fields []fieldDef `json:"fields" validate:"dive"`
		} `json:"variants" validate:"dive"`
	} `json:"type"`
}

func toFields(defs []fieldDef) []Field {
	fields := make([]Field, len(defs))
	for i, fd := range defs {
		fields[i] = Field{Name: fd.Name, Type: fd.Type.resolved}
	}
	return fields
}

func (e eventDef) toEventSchema() (*EventSchema, error) {
	disc := DeriveDiscriminant(e.Name)
	if len(e.Discriminator) > 0 {
		if len(e.Discriminator) != DiscriminantSize {
			return nil, fmt.Errorf("%w: event %q discriminator must be %d bytes",
				ErrMalformedDocument, e.Name, DiscriminantSize)
		}
		for i, b := range e.Discriminator {
			if b < 0 || b > 0xff {
				return nil, fmt.Errorf("%w: event %q discriminator byte out of range", ErrMalformedDocument, e.Name)
			}
			disc[i] = byte(b)
		}
	}

	return &EventSchema{
		Name:         e.Name,
		Discriminant: disc,
		Fields:       toFields(e.Fields),
	}, nil
}

func (t typeDef) toDefinedType() (*DefinedType, error) {
	dt := &DefinedType{Name: t.Name}

	switch t.Type.Kind {
	case "struct":
		dt.Fields = toFields(t.Type.Fields)
	case "enum":
		dt.Variants = make([]Variant, len(t.Type.Variants))
		for i, v := range t.Type.Variants {
			dt.Variants[i] = Variant{Name: v.Name, Fields: toFields(v.Fields)}
		}
	default:
		return nil, fmt.Errorf("%w: type %q has unsupported kind %q", ErrMalformedDocument, t.Name, t.Type.Kind)
	}

	return dt, nil
}
