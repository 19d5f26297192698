package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// Recorder appends an audit Transaction for every debt event it receives.
// Entries are never modified or removed.
type Recorder struct {
	mu   sync.Mutex
	txs  collection[models.Transaction]
	opts Options
}

// NewRecorder loads the transactions collection.
func NewRecorder(ctx context.Context, store storage.Store, opts Options) *Recorder {
	r := &Recorder{
		txs:  newCollection[models.Transaction](store, storage.KeyTransactions),
		opts: opts.withDefaults(),
	}
	r.Reload(ctx)
	return r
}

// Reload re-reads the collection from the store.
func (r *Recorder) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs.load(ctx)
	return nil
}

// Handle is the Bus subscriber that turns ev into a Transaction.
func (r *Recorder) Handle(ctx context.Context, ev Event) error {
	_, err := r.append(ctx, ev)
	return err
}

func (r *Recorder) append(ctx context.Context, ev Event) (models.Transaction, error) {
	if !ev.Kind.Valid() {
		return models.Transaction{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	tx := models.Transaction{
		ID:          r.opts.NewID(),
		DebtID:      ev.Debt.ID,
		Amount:      ev.Debt.Amount,
		Currency:    ev.Debt.Currency,
		Type:        ev.Kind,
		Description: describe(ev.Kind, ev.Debt),
		Date:        ev.At,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.txs.commit(ctx, append(r.txs.snapshot(), tx)); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to record %s for debt %s: %w", ev.Kind, ev.Debt.ID, err)
	}
	return tx, nil
}

// List returns every transaction in append order.
func (r *Recorder) List() []models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txs.snapshot()
}

// ForDebt returns the transactions of one debt in append order.
func (r *Recorder) ForDebt(debtID string) []models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, tx := range r.txs.items {
		if tx.DebtID == debtID {
			out = append(out, tx)
		}
	}
	return out
}

func describe(kind models.TransactionType, d models.Debt) string {
	var event string
	switch kind {
	case models.TxNewDebt:
		event = "New debt created"
	case models.TxDebtUpdated:
		event = "Debt updated"
	case models.TxDebtDeleted:
		event = "Debt deleted"
	case models.TxDebtPaid:
		event = "Debt paid"
	case models.TxDebtUnpaid:
		event = "Debt marked unpaid"
	}
	return event + ": " + d.Label()
}
