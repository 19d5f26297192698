// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Keys of the persisted state. Each key is written independently; there is
// no transaction spanning two keys.
const (
	KeyPeople                    = "people"
	KeyDebts                     = "debts"
	KeyTransactions              = "transactions"
	KeyCurrencies                = "settingsCurrencies"
	KeyPinEnabled                = "isPinEnabled"
	KeyPin                       = "appPin"
	KeyContactsPermissionGranted = "contactsPermissionGranted"
)

// KnownKeys lists every key the application reads or writes, in export order.
var KnownKeys = []string{
	KeyDebts,
	KeyPeople,
	KeyTransactions,
	KeyCurrencies,
	KeyPinEnabled,
	KeyPin,
	KeyContactsPermissionGranted,
}

// Store defines the interface for the durable key-value store.
// Values are JSON text. This abstraction allows swapping backends
// (SQLite, in-memory) without changing the ledger.
type Store interface {
	// Get returns the raw value stored under key.
	// ok is false when the key has no value.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key that currently has a value.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Entry is one key and its value.
type Entry struct {
	Key   string
	Value []byte
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	// SetMany stores every entry or, on error, none of them.
	SetMany(ctx context.Context, entries []Entry) error
}

// SetAll writes entries in order. It is atomic when s implements Batcher;
// otherwise a failure leaves the entries before it written.
func SetAll(ctx context.Context, s Store, entries []Entry) error {
	if b, ok := s.(Batcher); ok {
		return b.SetMany(ctx, entries)
	}
	for _, e := range entries {
		if err := s.Set(ctx, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// ReadError reports a stored value that could not be read or decoded.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("storage read %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Load decodes the value stored under key.
// ok is false when the key is absent. A backend failure or malformed value
// is returned as a *ReadError.
func Load[T any](ctx context.Context, s Store, key string) (v T, ok bool, err error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return v, false, &ReadError{Key: key, Err: err}
	}
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false, &ReadError{Key: key, Err: err}
	}
	return v, true, nil
}

// GetJSON returns the value stored under key, or def when the key is absent
// or unreadable. Read failures are logged and never returned.
func GetJSON[T any](ctx context.Context, s Store, key string, def T) T {
	v, ok, err := Load[T](ctx, s, key)
	if err != nil {
		slog.Warn("Storage read failed, using default", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}
