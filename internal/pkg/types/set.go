package types

import (
	"iter"
	"maps"
	"slices"
)

// Set is a generic hash set for comparable types, backed by a map[T]struct{}.
// It is mutable: Add and Delete modify the set in place.
type Set[T comparable] map[T]struct{}

// NewSet creates a new Set containing the provided elements, if any.
func NewSet[T comparable](data ...T) Set[T] {
	set := make(Set[T])
	set.Add(data...)
	return set
}

// Add inserts one or more elements into the set.
func (s Set[T]) Add(values ...T) {
	for _, val := range values {
		s[val] = struct{}{}
	}
}

// Delete removes one or more elements from the set.
func (s Set[T]) Delete(values ...T) {
	for _, val := range values {
		delete(s, val)
	}
}

// Contains reports whether the set holds the given element.
func (s Set[T]) Contains(value T) bool {
	_, ok := s[value]
	return ok
}

// ToIter returns an iterator over all elements in the set.
func (s Set[T]) ToIter() iter.Seq[T] {
	return maps.Keys(s)
}

// ToSlice returns a slice of all elements in the set, in unspecified order.
func (s Set[T]) ToSlice() []T {
	return slices.Collect(s.ToIter())
}
