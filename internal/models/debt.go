package models

import "time"

// DebtType is the direction of a Debt.
type DebtType string

const (
	// OwedToMe means the person owes the user.
	OwedToMe DebtType = "owed_to_me"
	// IOwe means the user owes the person.
	IOwe DebtType = "i_owe"
)

// Valid reports whether t is a known debt direction.
func (t DebtType) Valid() bool {
	return t == OwedToMe || t == IOwe
}

// Debt represents a monetary obligation between the user and a Person.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format). Immutable.
	ID string `json:"id"`

	// PersonID references the counterparty. It must resolve at creation
	// time but may dangle later if the data was edited outside the ledger.
	PersonID string `json:"personId"`

	// Amount is the positive amount of the debt, in Currency units.
	Amount float64 `json:"amount"`

	// Currency is a short currency code such as "USD" or "DZD".
	Currency string `json:"currency"`

	// Type is the debt direction.
	Type DebtType `json:"type"`

	// DueDate is optional. Nil means no due date.
	DueDate *time.Time `json:"dueDate,omitempty"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// IsPaid marks the debt as settled.
	IsPaid bool `json:"isPaid"`

	// CreatedAt is set once when the debt is created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOverdue reports whether the debt is unpaid with a due date before now.
func (d Debt) IsOverdue(now time.Time) bool {
	return !d.IsPaid && d.DueDate != nil && d.DueDate.Before(now)
}

// Label returns the description, or "debt" when there is none.
func (d Debt) Label() string {
	if d.Description == "" {
		return "debt"
	}
	return d.Description
}
