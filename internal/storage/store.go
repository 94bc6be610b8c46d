// Package storage is the key-value persistence adapter every other component
// writes through.
//
// Each collection lives as one JSON document under a fixed key and is
// rewritten wholesale on every mutation. Mutations go through Store.Update so
// the read-modify-write of a key is never interleaved with another writer in
// the same process; backends that support it (badger, sqlite) also make the
// cycle atomic against other handles on the same data.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnchanged aborts an update without writing. MutateJSON treats it as success.
var ErrUnchanged = errors.New("storage: unchanged")

// UpdateFunc receives the current value of a key (ok is false when the key is
// absent) and returns the value to write, or remove=true to delete the key.
// Returning an error aborts the update and leaves the key untouched. The
// function runs while the key is held and must not call back into the store.
type UpdateFunc func(current string, ok bool) (next string, remove bool, err error)

// Store is the contract shared by the memory, sqlite and badger backends.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Update(key string, fn UpdateFunc) error
}

// ReadJSON decodes the document under key into dst. A missing key leaves dst
// untouched so callers can pre-populate defaults.
func ReadJSON(s Store, key string, dst any) error {
	raw, ok, err := s.Get(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// MutateJSON runs a read-modify-write cycle over the JSON document under key.
// newDoc returns a fresh zero document; mutate edits it in place. Returning
// ErrUnchanged from mutate skips the write.
func MutateJSON[T any](s Store, key string, newDoc func() T, mutate func(doc T) (T, error)) error {
	err := s.Update(key, func(current string, ok bool) (string, bool, error) {
		doc := newDoc()
		if ok && current != "" {
			if err := json.Unmarshal([]byte(current), &doc); err != nil {
				return "", false, fmt.Errorf("decode %s: %w", key, err)
			}
		}

		next, err := mutate(doc)
		if err != nil {
			return "", false, err
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return "", false, fmt.Errorf("encode %s: %w", key, err)
		}
		return string(encoded), false, nil
	})
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	return err
}
