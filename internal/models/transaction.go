package models

import "time"

// TransactionType identifies which debt event a Transaction records.
type TransactionType string

const (
	TxNewDebt     TransactionType = "new_debt"
	TxDebtUpdated TransactionType = "debt_updated"
	TxDebtDeleted TransactionType = "debt_deleted"
	TxDebtPaid    TransactionType = "debt_paid"
	TxDebtUnpaid  TransactionType = "debt_unpaid"
)

// TransactionTypes lists every transaction type in display order.
var TransactionTypes = []TransactionType{
	TxNewDebt, TxDebtUpdated, TxDebtDeleted, TxDebtPaid, TxDebtUnpaid,
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Transaction is an immutable audit record of a change to a Debt.
// Transactions are only ever appended, never edited or removed.
type Transaction struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string `json:"id"`

	// DebtID is the debt this entry concerns. The debt may no longer exist.
	DebtID string `json:"debtId"`

	// Amount and Currency snapshot the debt at the time of the event.
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	// Type is the kind of event.
	Type TransactionType `json:"type"`

	// Description is a human-readable summary, e.g. "Debt paid: Rent".
	Description string `json:"description"`

	// Date is when the event happened.
	Date time.Time `json:"date"`
}
