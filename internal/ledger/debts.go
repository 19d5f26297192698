package ledger

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// personLookup resolves person ids for debt validation. holdPerson runs fn
// while the person cannot be removed.
type personLookup interface {
	Exists(id string) bool
	holdPerson(id string, fn func() error) error
}

// currencyList is the user-managed currency list. Debts are checked against
// it when entered, not when read back.
type currencyList interface {
	HasCurrency(code string) bool
}

// DebtRepository stores the debts collection and publishes an Event for
// every committed mutation.
type DebtRepository struct {
	mu         sync.Mutex
	debts      collection[models.Debt]
	people     personLookup
	currencies currencyList
	bus        *Bus
	opts       Options
}

// NewDebtRepository loads the debts collection. currencies and bus may be nil.
func NewDebtRepository(ctx context.Context, store storage.Store, people personLookup, currencies currencyList, bus *Bus, opts Options) *DebtRepository {
	r := &DebtRepository{
		debts:      newCollection[models.Debt](store, storage.KeyDebts),
		people:     people,
		currencies: currencies,
		bus:        bus,
		opts:       opts.withDefaults(),
	}
	r.Reload(ctx)
	return r
}

// Reload re-reads the collection from the store.
func (r *DebtRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debts.load(ctx)
	return nil
}

// List returns every debt in insertion order.
func (r *DebtRepository) List() []models.Debt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.debts.snapshot()
}

// Get returns the debt with the given id.
func (r *DebtRepository) Get(id string) (models.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.debts.items[i], nil
	}
	return models.Debt{}, fmt.Errorf("debt %s: %w", id, ErrNotFound)
}

// HasUnpaidForPerson reports whether any unpaid debt references personID.
func (r *DebtRepository) HasUnpaidForPerson(personID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasUnpaid(personID)
}

func (r *DebtRepository) hasUnpaid(personID string) bool {
	return slices.ContainsFunc(r.debts.items, func(d models.Debt) bool {
		return d.PersonID == personID && !d.IsPaid
	})
}

// withoutUnpaid runs fn under the debts lock unless personID has an unpaid
// debt.
func (r *DebtRepository) withoutUnpaid(personID string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasUnpaid(personID) {
		return ErrBlockedByActiveDebt
	}
	return fn()
}

// forPerson runs fn while personID is guaranteed to exist.
func (r *DebtRepository) forPerson(personID string, fn func() error) error {
	if r.people == nil {
		return fn()
	}
	return r.people.holdPerson(personID, fn)
}

// Create validates draft, assigns its id and timestamps, and persists it.
// CreatedAt and UpdatedAt are equal on the returned debt.
func (r *DebtRepository) Create(ctx context.Context, draft models.Debt) (models.Debt, error) {
	if err := r.validate(&draft); err != nil {
		return models.Debt{}, err
	}

	var now time.Time
	err := r.forPerson(draft.PersonID, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		now = r.opts.timestamp()
		draft.ID = r.newID()
		draft.CreatedAt = now
		draft.UpdatedAt = now
		return r.debts.commit(ctx, append(r.debts.snapshot(), draft))
	})
	if err != nil {
		return models.Debt{}, err
	}

	r.opts.Logger.Info("Debt created",
		"debt_id", draft.ID,
		"person_id", draft.PersonID,
		"type", draft.Type,
		"currency", draft.Currency,
	)
	r.publish(ctx, models.TxNewDebt, draft, now)
	return draft, nil
}

// Update replaces the editable fields of an existing debt. The id, CreatedAt
// and paid status are kept from the stored debt; use TogglePaid to change
// the paid status.
func (r *DebtRepository) Update(ctx context.Context, d models.Debt) (models.Debt, error) {
	if err := r.validate(&d); err != nil {
		return models.Debt{}, err
	}

	var now time.Time
	err := r.forPerson(d.PersonID, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		i := r.indexOf(d.ID)
		if i < 0 {
			return fmt.Errorf("debt %s: %w", d.ID, ErrNotFound)
		}
		existing := r.debts.items[i]
		now = r.opts.timestamp()
		d.CreatedAt = existing.CreatedAt
		d.IsPaid = existing.IsPaid
		d.UpdatedAt = now

		next := r.debts.snapshot()
		next[i] = d
		return r.debts.commit(ctx, next)
	})
	if err != nil {
		return models.Debt{}, err
	}

	r.opts.Logger.Info("Debt updated", "debt_id", d.ID)
	r.publish(ctx, models.TxDebtUpdated, d, now)
	return d, nil
}

// Delete removes the debt. The emitted event carries the last stored state
// so the audit entry can snapshot its amount and currency.
func (r *DebtRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("debt %s: %w", id, ErrNotFound)
	}
	removed := r.debts.items[i]
	err := r.debts.commit(ctx, slices.Delete(r.debts.snapshot(), i, i+1))
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.opts.Logger.Info("Debt deleted", "debt_id", id)
	r.publish(ctx, models.TxDebtDeleted, removed, r.opts.timestamp())
	return nil
}

// TogglePaid flips the paid status of the debt.
func (r *DebtRepository) TogglePaid(ctx context.Context, id string) (models.Debt, error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return models.Debt{}, fmt.Errorf("debt %s: %w", id, ErrNotFound)
	}
	now := r.opts.timestamp()
	d := r.debts.items[i]
	d.IsPaid = !d.IsPaid
	d.UpdatedAt = now

	next := r.debts.snapshot()
	next[i] = d
	err := r.debts.commit(ctx, next)
	r.mu.Unlock()
	if err != nil {
		return models.Debt{}, err
	}

	kind := models.TxDebtUnpaid
	if d.IsPaid {
		kind = models.TxDebtPaid
	}
	r.opts.Logger.Info("Debt paid status changed", "debt_id", id, "is_paid", d.IsPaid)
	r.publish(ctx, kind, d, now)
	return d, nil
}

// publish hands the event to the bus. The debt is already committed, so a
// subscriber failure is logged by the bus and otherwise ignored.
func (r *DebtRepository) publish(ctx context.Context, kind models.TransactionType, d models.Debt, at time.Time) {
	if r.bus == nil {
		return
	}
	_ = r.bus.Publish(ctx, Event{Kind: kind, Debt: d, At: at})
}

// validate checks the required fields and normalizes d in place.
func (r *DebtRepository) validate(d *models.Debt) error {
	d.PersonID = strings.TrimSpace(d.PersonID)
	d.Currency = strings.TrimSpace(d.Currency)

	switch {
	case d.PersonID == "":
		return invalid("personId", "required")
	case d.Amount == 0:
		return invalid("amount", "required")
	case math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) || d.Amount < 0:
		return invalid("amount", "must be a positive number")
	case d.Currency == "":
		return invalid("currency", "required")
	}

	if d.Type == "" {
		d.Type = models.OwedToMe
	}
	if !d.Type.Valid() {
		return invalid("type", fmt.Sprintf("unknown debt type %q", d.Type))
	}
	if r.people != nil && !r.people.Exists(d.PersonID) {
		return invalid("personId", fmt.Sprintf("unknown person %q", d.PersonID))
	}
	if r.currencies != nil && !r.currencies.HasCurrency(d.Currency) {
		return invalid("currency", fmt.Sprintf("%q is not in the currency list", d.Currency))
	}
	return nil
}

func (r *DebtRepository) indexOf(id string) int {
	return slices.IndexFunc(r.debts.items, func(d models.Debt) bool { return d.ID == id })
}

func (r *DebtRepository) newID() string {
	for {
		id := r.opts.NewID()
		if r.indexOf(id) < 0 {
			return id
		}
	}
}
