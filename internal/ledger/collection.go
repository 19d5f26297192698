package ledger

import (
	"context"
	"slices"

	"github.com/mmynk/debtledger/internal/storage"
)

// collection is the cached copy of one store key holding a JSON array.
// Callers hold the owning repository's mutex.
type collection[T any] struct {
	store storage.Store
	key   string
	items []T
}

func newCollection[T any](store storage.Store, key string) collection[T] {
	return collection[T]{store: store, key: key}
}

// load replaces the cache with the stored array. Unreadable data leaves an
// empty collection.
func (c *collection[T]) load(ctx context.Context) {
	items := storage.GetJSON(ctx, c.store, c.key, []T{})
	if items == nil {
		items = []T{}
	}
	c.items = items
}

// commit persists next and swaps it into the cache. On a write failure the
// cache keeps its previous contents.
func (c *collection[T]) commit(ctx context.Context, next []T) error {
	if err := storage.SetJSON(ctx, c.store, c.key, next); err != nil {
		return err
	}
	c.items = next
	return nil
}

func (c *collection[T]) snapshot() []T {
	return slices.Clone(c.items)
}
