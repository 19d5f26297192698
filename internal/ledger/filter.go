package ledger

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmynk/debtledger/internal/models"
)

// DebtStatus narrows a debt listing by paid state.
type DebtStatus string

const (
	StatusAll      DebtStatus = ""
	StatusPaid     DebtStatus = "paid"
	StatusUnpaid   DebtStatus = "unpaid"
	StatusOverdue  DebtStatus = "overdue"
	StatusUpcoming DebtStatus = "upcoming"
)

// upcomingWindow is how far ahead StatusUpcoming looks.
const upcomingWindow = 7

// DebtFilter selects debts for display. Zero fields match everything.
type DebtFilter struct {
	// Search matches the description, the person name or the amount text.
	Search   string          `json:"search,omitempty"`
	Type     models.DebtType `json:"type,omitempty"`
	Status   DebtStatus      `json:"status,omitempty"`
	PersonID string          `json:"personId,omitempty"`
}

// FilterDebts returns the debts matching f, newest first.
func FilterDebts(debts []models.Debt, people []models.Person, f DebtFilter, now time.Time) []models.Debt {
	names := personNames(people)
	search := strings.ToLower(strings.TrimSpace(f.Search))
	horizon := now.AddDate(0, 0, upcomingWindow)

	out := make([]models.Debt, 0, len(debts))
	for _, d := range debts {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		if f.PersonID != "" && d.PersonID != f.PersonID {
			continue
		}
		switch f.Status {
		case StatusPaid:
			if !d.IsPaid {
				continue
			}
		case StatusUnpaid:
			if d.IsPaid {
				continue
			}
		case StatusOverdue:
			if !d.IsOverdue(now) {
				continue
			}
		case StatusUpcoming:
			if d.IsPaid || d.DueDate == nil || !d.DueDate.After(now) || !d.DueDate.Before(horizon) {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Description), search) &&
			!strings.Contains(strings.ToLower(names[d.PersonID]), search) &&
			!strings.Contains(formatAmount(d.Amount), search) {
			continue
		}
		out = append(out, d)
	}

	slices.SortStableFunc(out, func(a, b models.Debt) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// PersonFilter selects people for display. Zero fields match everything.
type PersonFilter struct {
	Search string            `json:"search,omitempty"`
	Type   models.PersonType `json:"type,omitempty"`
}

// FilterPeople returns the people matching f, sorted by name. Names are
// compared with Arabic collation, which orders Latin names alphabetically too.
func FilterPeople(people []models.Person, f PersonFilter) []models.Person {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Person, 0, len(people))
	for _, p := range people {
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}

	c := collate.New(language.Arabic, collate.IgnoreCase)
	slices.SortStableFunc(out, func(a, b models.Person) int {
		return c.CompareString(a.Name, b.Name)
	})
	return out
}

// SortOrder orders transactions by date.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// Placeholders used when an audit entry outlives its debt or person.
const (
	DeletedDebtLabel   = "deleted debt"
	UnknownPersonLabel = "unknown person"
)

// EnrichedTransaction is a transaction joined with its debt and person.
type EnrichedTransaction struct {
	models.Transaction
	DebtDescription string `json:"debtDescription"`
	PersonName      string `json:"personName"`
}

// EnrichTransactions joins each transaction with the current debt and
// person. Missing references get placeholder labels; they are lost
// history, not corruption.
func EnrichTransactions(txs []models.Transaction, debts []models.Debt, people []models.Person) []EnrichedTransaction {
	byID := make(map[string]models.Debt, len(debts))
	for _, d := range debts {
		byID[d.ID] = d
	}
	names := personNames(people)

	out := make([]EnrichedTransaction, len(txs))
	for i, tx := range txs {
		e := EnrichedTransaction{
			Transaction:     tx,
			DebtDescription: DeletedDebtLabel,
			PersonName:      UnknownPersonLabel,
		}
		if d, ok := byID[tx.DebtID]; ok {
			e.DebtDescription = d.Description
			if name, ok := names[d.PersonID]; ok {
				e.PersonName = name
			}
		}
		out[i] = e
	}
	return out
}

// TransactionFilter selects audit entries for display.
type TransactionFilter struct {
	Search string                 `json:"search,omitempty"`
	Type   models.TransactionType `json:"type,omitempty"`
	// Order defaults to SortDesc.
	Order SortOrder `json:"order,omitempty"`
}

// FilterTransactions returns the entries matching f sorted by date.
func FilterTransactions(txs []EnrichedTransaction, f TransactionFilter) []EnrichedTransaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]EnrichedTransaction, 0, len(txs))
	for _, t := range txs {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Description), search) &&
			!strings.Contains(strings.ToLower(t.DebtDescription), search) &&
			!strings.Contains(strings.ToLower(t.PersonName), search) &&
			!strings.Contains(formatAmount(t.Amount), search) {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, func(a, b EnrichedTransaction) int {
		if f.Order == SortAsc {
			return a.Date.Compare(b.Date)
		}
		return b.Date.Compare(a.Date)
	})
	return out
}

func personNames(people []models.Person) map[string]string {
	names := make(map[string]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}
	return names
}

// formatAmount renders an amount the shortest way, e.g. 100 or 12.5.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
