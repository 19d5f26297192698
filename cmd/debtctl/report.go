package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/format"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/models"
)

func renderSummary(w io.Writer, people []models.Person, debts []models.Debt, now time.Time) {
	d := calculator.BuildDashboard(debts, people, now)
	names := nameIndex(people)

	fmt.Fprintf(w, "# Summary\n\n")
	fmt.Fprintf(w, "%d people, %d debts, %d unpaid\n\n", d.PeopleCount, d.DebtCount, d.UnpaidCount)

	fmt.Fprintf(w, "| | Total |\n|---|---|\n")
	fmt.Fprintf(w, "| Owed to me | %s |\n", format.Totals(d.OwedToMe))
	fmt.Fprintf(w, "| I owe | %s |\n\n", format.Totals(d.IOwe))

	balances := calculator.NetBalances(debts)
	if len(balances) > 0 {
		fmt.Fprintf(w, "## Balances\n\n")
		fmt.Fprintf(w, "| Person | Owed to me | I owe | Net |\n|---|---|---|---|\n")
		for _, b := range balances {
			if b.Settled() {
				continue
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", escape(names(b.PersonID)),
				format.Amount(b.OwedToMe, b.Currency),
				format.Amount(b.IOwe, b.Currency),
				format.Amount(b.Net, b.Currency))
		}
		fmt.Fprintln(w)
	}

	if len(d.Overdue) > 0 {
		fmt.Fprintf(w, "## Overdue\n\n")
		writeDebtTable(w, d.Overdue, names)
	}
	if len(d.Reminders) > 0 {
		fmt.Fprintf(w, "## Due this week\n\n")
		writeDebtTable(w, d.Reminders, names)
	}
}

func renderReminders(w io.Writer, people []models.Person, debts []models.Debt, now time.Time, days int) {
	if days <= 0 {
		days = calculator.DefaultReminderDays
	}
	upcoming := calculator.UpcomingReminders(debts, now, days)

	fmt.Fprintf(w, "# Due in the next %d days\n\n", days)
	if len(upcoming) == 0 {
		fmt.Fprintln(w, "Nothing due.")
		return
	}
	writeDebtTable(w, upcoming, nameIndex(people))
}

func writeDebtTable(w io.Writer, debts []models.Debt, names func(string) string) {
	fmt.Fprintf(w, "| Due | Person | Description | Amount | Direction |\n|---|---|---|---|---|\n")
	for _, d := range debts {
		due := "-"
		if d.DueDate != nil {
			due = d.DueDate.Format(time.DateOnly)
		}
		direction := "owed to me"
		if d.Type == models.IOwe {
			direction = "I owe"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n", due, escape(names(d.PersonID)),
			escape(d.Label()), format.Amount(d.Amount, d.Currency), direction)
	}
	fmt.Fprintln(w)
}

func nameIndex(people []models.Person) func(string) string {
	byID := make(map[string]string, len(people))
	for _, p := range people {
		byID[p.ID] = p.Name
	}
	return func(id string) string {
		if name, ok := byID[id]; ok {
			return name
		}
		return ledger.UnknownPersonLabel
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
