// Package ledger implements the People, Debt and Transaction repositories
// over the key-value store.
//
// Each repository keeps one in-memory copy of its collection, loaded from
// the store and written through on every mutation. Debt mutations are
// published on a Bus; the Recorder subscribes to it and appends the audit
// Transaction. The debt write and the audit append are separate store
// writes, so a crash between them loses the audit entry, never the debt.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/storage"
)

// Options configures the repositories.
type Options struct {
	Logger *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// NewID returns a new unique id. Defaults to uuid.NewString.
	NewID func() string
	// StrictContactDedupe matches contacts on name and phone.
	StrictContactDedupe bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// timestamp returns the current time at the millisecond precision the
// backup format carries.
func (o Options) timestamp() time.Time {
	return o.Now().UTC().Truncate(time.Millisecond)
}

// Ledger wires the repositories together.
type Ledger struct {
	People       *PeopleRepository
	Debts        *DebtRepository
	Transactions *Recorder
	Bus          *Bus

	settings *config.Settings
	opts     Options
}

// New loads every collection from store. settings may be nil, in which case
// debt currencies are not checked against the currency list.
func New(ctx context.Context, store storage.Store, settings *config.Settings, opts Options) *Ledger {
	opts = opts.withDefaults()

	var currencies currencyList
	if settings != nil {
		currencies = settings
	}

	bus := NewBus(opts.Logger)
	people := NewPeopleRepository(ctx, store, nil, opts)
	debts := NewDebtRepository(ctx, store, people, currencies, bus, opts)
	people.debts = debts
	recorder := NewRecorder(ctx, store, opts)
	bus.Subscribe("transaction-recorder", recorder.Handle)

	return &Ledger{
		People:       people,
		Debts:        debts,
		Transactions: recorder,
		Bus:          bus,
		settings:     settings,
		opts:         opts,
	}
}

// Reload re-reads every collection from the store, e.g. after an import.
func (l *Ledger) Reload(ctx context.Context) error {
	return errors.Join(
		l.People.Reload(ctx),
		l.Debts.Reload(ctx),
		l.Transactions.Reload(ctx),
	)
}
