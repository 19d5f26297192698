// Package models defines the core domain models for the debt ledger.
//
// # Models
//
//   - Person: a counterparty that may owe or be owed money
//   - Debt: a directional obligation between the user and a Person
//   - Transaction: an append-only audit entry describing a change to a Debt
//
// # Design Principles
//
// 1. **Stable wire names**: JSON field names match the backup document
// format, so older backups keep importing
// 2. **IDs over pointers**: relationships are ID strings (Debt.PersonID,
// Transaction.DebtID); a reference may dangle after a deletion
// 3. **No behavior beyond the model**: validation that needs other
// collections lives in the ledger package
package models
