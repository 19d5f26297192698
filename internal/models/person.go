package models

// PersonType is an advisory label for a Person. It does not constrain which
// debt types may reference the person.
type PersonType string

const (
	PersonIndividual PersonType = "individual"
	PersonDebtor     PersonType = "debtor"
	PersonCreditor   PersonType = "creditor"
)

// Valid reports whether t is one of the known person types.
func (t PersonType) Valid() bool {
	switch t {
	case PersonIndividual, PersonDebtor, PersonCreditor:
		return true
	}
	return false
}

// Person represents someone the user owes money to or is owed money by.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	// Backups from older versions may carry other opaque formats.
	ID string `json:"id"`

	// Name is the display name. Never empty.
	Name string `json:"name"`

	// Type is the advisory label (individual, debtor, creditor).
	Type PersonType `json:"type"`

	// Phone is an optional phone number, filled by contact imports.
	Phone string `json:"phone,omitempty"`

	// Email is an optional email address.
	Email string `json:"email,omitempty"`

	// Notes is optional free text.
	Notes string `json:"notes,omitempty"`
}
