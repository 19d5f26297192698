package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/debtledger/internal/models"
)

// Event is emitted by the debt repository after a debt write has been
// committed to the store.
type Event struct {
	// Kind is the audit type the event maps to.
	Kind models.TransactionType
	// Debt is the debt after the change, or the last state before deletion.
	Debt models.Debt
	// At is when the change happened.
	At time.Time
}

// Handler consumes events. A handler error never undoes the debt write.
type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	name    string
	handler Handler
}

// Bus delivers events synchronously to its subscribers, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers h under name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h})
}

// Publish calls every subscriber with ev. All subscribers run even when one
// fails; the failures are logged and joined.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.handler(ctx, ev); err != nil {
			b.logger.Warn("Event handler failed",
				"subscriber", s.name,
				"kind", ev.Kind,
				"debt_id", ev.Debt.ID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
