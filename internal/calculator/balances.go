package calculator

import (
	"slices"
	"strings"

	"github.com/mmynk/debtledger/internal/models"
)

// PersonBalance is the net position between the user and one person in
// one currency.
type PersonBalance struct {
	PersonID string  `json:"personId"`
	Currency string  `json:"currency"`
	OwedToMe float64 `json:"owedToMe"`
	IOwe     float64 `json:"iOwe"`
	// Net is positive when the person owes the user, negative when the
	// user owes the person.
	Net float64 `json:"net"`
}

// Settled reports whether the net balance is zero within a cent.
func (b PersonBalance) Settled() bool {
	return b.Net > -0.01 && b.Net < 0.01
}

// NetBalances computes one balance per person and currency over the unpaid
// debts. Debts in both directions offset each other within a currency; they
// never offset across currencies.
//
// Balances are ordered by person id, then currency, so the result is stable
// for display and tests.
func NetBalances(debts []models.Debt) []PersonBalance {
	type key struct{ person, currency string }
	balances := make(map[key]*PersonBalance)

	for _, d := range debts {
		if d.IsPaid {
			continue
		}
		k := key{d.PersonID, d.Currency}
		b, ok := balances[k]
		if !ok {
			b = &PersonBalance{PersonID: d.PersonID, Currency: d.Currency}
			balances[k] = b
		}
		switch d.Type {
		case models.OwedToMe:
			b.OwedToMe += d.Amount
		case models.IOwe:
			b.IOwe += d.Amount
		}
	}

	out := make([]PersonBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.OwedToMe - b.IOwe
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b PersonBalance) int {
		if c := strings.Compare(a.PersonID, b.PersonID); c != 0 {
			return c
		}
		return strings.Compare(a.Currency, b.Currency)
	})
	return out
}
