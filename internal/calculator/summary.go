// Package calculator aggregates debts into per-currency summaries.
//
// Every function is a pure computation over the debt list it is given and is
// recomputed on each call. Amounts are summed with plain float64 addition;
// rounding for display is left to the caller.
package calculator

import (
	"time"

	"github.com/mmynk/debtledger/internal/models"
)

// DefaultReminderDays is the reminder horizon used when none is given.
const DefaultReminderDays = 7

// CurrencyTotals maps a currency code to a summed amount.
type CurrencyTotals map[string]float64

// PersonSummary splits one person's unpaid debts by direction.
type PersonSummary struct {
	OwedToMe CurrencyTotals `json:"owedToMe"`
	IOwe     CurrencyTotals `json:"iOwe"`
}

// SummaryByCurrency sums the unpaid debts of the given type per currency.
// Currencies with no unpaid debt of that type are absent.
func SummaryByCurrency(debts []models.Debt, typ models.DebtType) CurrencyTotals {
	totals := CurrencyTotals{}
	for _, d := range debts {
		if d.IsPaid || d.Type != typ {
			continue
		}
		totals[d.Currency] += d.Amount
	}
	return totals
}

// SummarizePerson returns the unpaid totals of one person in both directions.
func SummarizePerson(debts []models.Debt, personID string) PersonSummary {
	s := PersonSummary{OwedToMe: CurrencyTotals{}, IOwe: CurrencyTotals{}}
	for _, d := range debts {
		if d.IsPaid || d.PersonID != personID {
			continue
		}
		switch d.Type {
		case models.OwedToMe:
			s.OwedToMe[d.Currency] += d.Amount
		case models.IOwe:
			s.IOwe[d.Currency] += d.Amount
		}
	}
	return s
}

// UpcomingReminders returns the unpaid debts due strictly after now and
// strictly before now plus horizonDays, in their original order. A
// non-positive horizon means DefaultReminderDays.
func UpcomingReminders(debts []models.Debt, now time.Time, horizonDays int) []models.Debt {
	if horizonDays <= 0 {
		horizonDays = DefaultReminderDays
	}
	horizon := now.AddDate(0, 0, horizonDays)

	out := []models.Debt{}
	for _, d := range debts {
		if d.IsPaid || d.DueDate == nil {
			continue
		}
		if d.DueDate.After(now) && d.DueDate.Before(horizon) {
			out = append(out, d)
		}
	}
	return out
}

// Overdue returns the unpaid debts whose due date is before now.
func Overdue(debts []models.Debt, now time.Time) []models.Debt {
	out := []models.Debt{}
	for _, d := range debts {
		if d.IsOverdue(now) {
			out = append(out, d)
		}
	}
	return out
}

// Totals is the grand total of unpaid debts in each direction.
//
// The amounts are summed across currencies, so they are only meaningful
// when a single currency is in use. Use SummaryByCurrency otherwise.
type Totals struct {
	OwedToMe float64 `json:"owedToMe"`
	IOwe     float64 `json:"iOwe"`
}

// CalculateTotals sums the unpaid debts in each direction.
func CalculateTotals(debts []models.Debt) Totals {
	var t Totals
	for _, d := range debts {
		if d.IsPaid {
			continue
		}
		switch d.Type {
		case models.OwedToMe:
			t.OwedToMe += d.Amount
		case models.IOwe:
			t.IOwe += d.Amount
		}
	}
	return t
}

// Dashboard is the overview shown on the home screen.
type Dashboard struct {
	PeopleCount int            `json:"peopleCount"`
	DebtCount   int            `json:"debtCount"`
	UnpaidCount int            `json:"unpaidCount"`
	Totals      Totals         `json:"totals"`
	OwedToMe    CurrencyTotals `json:"owedToMe"`
	IOwe        CurrencyTotals `json:"iOwe"`
	Reminders   []models.Debt  `json:"reminders"`
	Overdue     []models.Debt  `json:"overdue"`
}

// BuildDashboard computes the overview at now.
func BuildDashboard(debts []models.Debt, people []models.Person, now time.Time) Dashboard {
	unpaid := 0
	for _, d := range debts {
		if !d.IsPaid {
			unpaid++
		}
	}
	return Dashboard{
		PeopleCount: len(people),
		DebtCount:   len(debts),
		UnpaidCount: unpaid,
		Totals:      CalculateTotals(debts),
		OwedToMe:    SummaryByCurrency(debts, models.OwedToMe),
		IOwe:        SummaryByCurrency(debts, models.IOwe),
		Reminders:   UpcomingReminders(debts, now, DefaultReminderDays),
		Overdue:     Overdue(debts, now),
	}
}
