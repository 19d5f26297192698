package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/debtledger/internal/models"
)

func ptr(t time.Time) *time.Time { return &t }

func TestFilterDebts(t *testing.T) {
	people := []models.Person{{ID: "p1", Name: "Ali"}, {ID: "p2", Name: "Sara"}}
	debts := []models.Debt{
		{ID: "d1", PersonID: "p1", Amount: 100, Currency: "USD", Type: models.OwedToMe, Description: "Rent", CreatedAt: testNow.Add(-3 * time.Hour)},
		{ID: "d2", PersonID: "p2", Amount: 12.5, Currency: "EUR", Type: models.IOwe, IsPaid: true, CreatedAt: testNow.Add(-1 * time.Hour)},
		{ID: "d3", PersonID: "p2", Amount: 7, Currency: "DZD", Type: models.OwedToMe, DueDate: ptr(testNow.Add(-24 * time.Hour)), CreatedAt: testNow.Add(-2 * time.Hour)},
		{ID: "d4", PersonID: "p1", Amount: 30, Currency: "USD", Type: models.IOwe, DueDate: ptr(testNow.Add(48 * time.Hour)), CreatedAt: testNow},
	}

	tests := []struct {
		name   string
		filter DebtFilter
		want   []string
	}{
		{"all newest first", DebtFilter{}, []string{"d4", "d2", "d3", "d1"}},
		{"by type", DebtFilter{Type: models.IOwe}, []string{"d4", "d2"}},
		{"paid", DebtFilter{Status: StatusPaid}, []string{"d2"}},
		{"unpaid", DebtFilter{Status: StatusUnpaid}, []string{"d4", "d3", "d1"}},
		{"overdue", DebtFilter{Status: StatusOverdue}, []string{"d3"}},
		{"upcoming", DebtFilter{Status: StatusUpcoming}, []string{"d4"}},
		{"search description", DebtFilter{Search: "rent"}, []string{"d1"}},
		{"search person", DebtFilter{Search: "SAR"}, []string{"d2", "d3"}},
		{"search amount", DebtFilter{Search: "12.5"}, []string{"d2"}},
		{"by person", DebtFilter{PersonID: "p1"}, []string{"d4", "d1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDebts(debts, people, tt.filter, testNow)
			ids := make([]string, len(got))
			for i, d := range got {
				ids[i] = d.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterPeople(t *testing.T) {
	people := []models.Person{
		{ID: "1", Name: "sara", Type: models.PersonDebtor},
		{ID: "2", Name: "Ali", Type: models.PersonIndividual},
		{ID: "3", Name: "Karim", Type: models.PersonDebtor},
	}

	got := FilterPeople(people, PersonFilter{})
	assert.Equal(t, []string{"Ali", "Karim", "sara"}, names(got))

	got = FilterPeople(people, PersonFilter{Type: models.PersonDebtor})
	assert.Equal(t, []string{"Karim", "sara"}, names(got))

	got = FilterPeople(people, PersonFilter{Search: "AR"})
	assert.Equal(t, []string{"Karim", "sara"}, names(got))
}

func names(people []models.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return out
}

func TestEnrichAndFilterTransactions(t *testing.T) {
	people := []models.Person{{ID: "p1", Name: "Ali"}}
	debts := []models.Debt{
		{ID: "d1", PersonID: "p1", Description: "Rent"},
		{ID: "d2", PersonID: "gone", Description: "Lunch"},
	}
	txs := []models.Transaction{
		{ID: "t1", DebtID: "d1", Type: models.TxNewDebt, Amount: 100, Description: "New debt created: Rent", Date: testNow.Add(-2 * time.Hour)},
		{ID: "t2", DebtID: "d2", Type: models.TxNewDebt, Amount: 9, Description: "New debt created: Lunch", Date: testNow.Add(-1 * time.Hour)},
		{ID: "t3", DebtID: "d9", Type: models.TxDebtDeleted, Amount: 5, Description: "Debt deleted: debt", Date: testNow},
	}

	enriched := EnrichTransactions(txs, debts, people)
	assert.Equal(t, "Ali", enriched[0].PersonName)
	assert.Equal(t, "Rent", enriched[0].DebtDescription)
	assert.Equal(t, UnknownPersonLabel, enriched[1].PersonName)
	assert.Equal(t, "Lunch", enriched[1].DebtDescription)
	assert.Equal(t, DeletedDebtLabel, enriched[2].DebtDescription)
	assert.Equal(t, UnknownPersonLabel, enriched[2].PersonName)

	ids := func(ts []EnrichedTransaction) []string {
		out := make([]string, len(ts))
		for i, tx := range ts {
			out[i] = tx.ID
		}
		return out
	}

	assert.Equal(t, []string{"t3", "t2", "t1"}, ids(FilterTransactions(enriched, TransactionFilter{})))
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(FilterTransactions(enriched, TransactionFilter{Order: SortAsc})))
	assert.Equal(t, []string{"t3"}, ids(FilterTransactions(enriched, TransactionFilter{Type: models.TxDebtDeleted})))
	assert.Equal(t, []string{"t1"}, ids(FilterTransactions(enriched, TransactionFilter{Search: "ali"})))
	assert.Equal(t, []string{"t2"}, ids(FilterTransactions(enriched, TransactionFilter{Search: "lunch"})))
}
