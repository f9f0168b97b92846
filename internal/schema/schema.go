// Package schema loads a declarative event-schema document (an Anchor-style
// IDL in JSON) and builds an immutable Registry mapping each event
// discriminant to its decoded field layout.
//
// The Registry is built once at startup and is safe to share read-only across
// concurrent consumers. Layout rules follow the Borsh serialization
// convention used by on-chain programs: little-endian fixed-width integers,
// u32 length prefixes for variable-length data, a single presence byte for
// optional values, and no alignment padding.
package schema

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gabapcia/eventwatch/internal/pkg/validator"
)

var (
	// ErrMalformedDocument indicates the schema document could not be parsed
	// or failed structural validation.
	ErrMalformedDocument = errors.New("malformed schema document")

	// ErrUnresolvedType indicates a field references a type name that the
	// document does not define.
	ErrUnresolvedType = errors.New("unresolved field type")

	// ErrDuplicateDiscriminant indicates two events in the document share the
	// same discriminant, which would make decoding ambiguous.
	ErrDuplicateDiscriminant = errors.New("duplicate event discriminant")
)

// DiscriminantSize is the width in bytes of the tag prefixing every encoded
// event.
const DiscriminantSize = 8

// Discriminant is the fixed-width tag identifying an event's schema.
type Discriminant [DiscriminantSize]byte

// DeriveDiscriminant computes the conventional discriminant for an event
// name: the first 8 bytes of sha256("event:<name>"). Documents may override
// it with an explicit per-event value.
func DeriveDiscriminant(eventName string) Discriminant {
	sum := sha256.Sum256([]byte("event:" + eventName))

	var d Discriminant
	copy(d[:], sum[:DiscriminantSize])
	return d
}

// EventSchema describes the decoded layout of a single event kind. It is
// immutable after Load.
type EventSchema struct {
	Name         string       // event name as declared in the document
	Discriminant Discriminant // unique tag identifying this event on the wire
	Fields       []Field      // ordered field layout
}

// Field is one named field within an event or a defined struct type.
type Field struct {
	Name string
	Type Type
}

// Registry holds every event schema declared by a document, keyed by
// discriminant, together with the document's named type definitions.
type Registry struct {
	events  map[Discriminant]*EventSchema
	defined map[string]*DefinedType
}

// Lookup returns the schema registered for the given discriminant, or false
// if no event carries that tag.
func (r *Registry) Lookup(d Discriminant) (*EventSchema, bool) {
	es, ok := r.events[d]
	return es, ok
}

// DefinedType returns the named type definition used by `defined` field
// references, or false if the document does not declare it.
func (r *Registry) DefinedType(name string) (*DefinedType, bool) {
	dt, ok := r.defined[name]
	return dt, ok
}

// Events returns all registered event schemas, in unspecified order.
func (r *Registry) Events() []*EventSchema {
	events := make([]*EventSchema, 0, len(r.events))
	for _, es := range r.events {
		events = append(events, es)
	}
	return events
}

// Len returns the number of registered event kinds.
func (r *Registry) Len() int {
	return len(r.events)
}

// Load parses a schema document and builds the Registry. It fails with
// ErrMalformedDocument, ErrUnresolvedType, or ErrDuplicateDiscriminant; any
// failure here aborts startup rather than a running tick.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if err := validator.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	registry := &Registry{
		events:  make(map[Discriminant]*EventSchema, len(doc.Events)),
		defined: make(map[string]*DefinedType, len(doc.Types)),
	}

	for _, typeDef := range doc.Types {
		dt, err := typeDef.toDefinedType()
		if err != nil {
			return nil, err
		}

		if _, ok := registry.defined[dt.Name]; ok {
			return nil, fmt.Errorf("%w: type %q declared more than once", ErrMalformedDocument, dt.Name)
		}

		registry.defined[dt.Name] = dt
	}

	for _, eventDef := range doc.Events {
		es, err := eventDef.toEventSchema()
		if err != nil {
			return nil, err
		}

		if existing, ok := registry.events[es.Discriminant]; ok {
			return nil, fmt.Errorf("%w: events %q and %q both use %x",
				ErrDuplicateDiscriminant, existing.Name, es.Name, es.Discriminant)
		}

		registry.events[es.Discriminant] = es
	}

	if err := registry.resolve(); err != nil {
		return nil, err
	}

	return registry, nil
}

// LoadFile reads the schema document at path and calls Load.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	return Load(data)
}

// resolve walks every field type reachable from the registered events and
// defined types, confirming that all `defined` references name a declared
// type. A dangling reference is a load-time error, never a decode-time one.
func (r *Registry) resolve() error {
	check := func(owner string, fields []Field) error {
		for _, f := range fields {
			if err := r.resolveType(owner, f.Name, f.Type); err != nil {
				return err
			}
		}
		return nil
	}

	for _, es := range r.events {
		if err := check(es.Name, es.Fields); err != nil {
			return err
		}
	}

	for _, dt := range r.defined {
		if err := check(dt.Name, dt.Fields); err != nil {
			return err
		}
		for _, v := range dt.Variants {
			if err := check(dt.Name+"."+v.Name, v.Fields); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Registry) resolveType(owner, field string, t Type) error {
	switch t.Kind {
	case KindInvalid:
		return fmt.Errorf("%w: %s.%s has no type", ErrMalformedDocument, owner, field)
	case KindDefined:
		if _, ok := r.defined[t.Defined]; !ok {
			return fmt.Errorf("%w: %s.%s references unknown type %q", ErrUnresolvedType, owner, field, t.Defined)
		}
	case KindOption, KindVec, KindArray:
		return r.resolveType(owner, field, *t.Elem)
	}

	return nil
}
