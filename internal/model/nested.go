package model

import (
	"bytes"
	"encoding/json"
)

// Nested holds a child collection that is either not loaded or loaded (possibly empty).
// The zero value is not loaded.
type Nested[T any] struct {
	items  []T
	loaded bool
}

// Loaded returns a loaded collection holding items.
func Loaded[T any](items []T) Nested[T] {
	if items == nil {
		items = []T{}
	}
	return Nested[T]{items: items, loaded: true}
}

// IsLoaded reports whether the collection was fetched.
func (n Nested[T]) IsLoaded() bool { return n.loaded }

// Items returns the loaded items, or nil when not loaded.
func (n Nested[T]) Items() []T { return n.items }

// Len returns the number of loaded items.
func (n Nested[T]) Len() int { return len(n.items) }

// MarshalJSON encodes a not-loaded collection as null and a loaded one as an array.
func (n Nested[T]) MarshalJSON() ([]byte, error) {
	if !n.loaded {
		return []byte("null"), nil
	}
	if n.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(n.items)
}

// UnmarshalJSON mirrors MarshalJSON.
func (n *Nested[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = Nested[T]{}
		return nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*n = Loaded(items)
	return nil
}
