package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/mmynk/debtledger/internal/backup"
	"github.com/mmynk/debtledger/internal/calculator"
)

// exportCmd writes a backup file.
type exportCmd struct {
	dir string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a backup of the whole ledger" }
func (*exportCmd) Usage() string {
	return `debtctl export [-o <dir>]

  Writes debt_manager_backup_<date>.json into the output directory.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "o", ".", "Output directory")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	path, err := a.backup.WriteFile(ctx, c.dir, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(path)
	return subcommands.ExitSuccess
}

// importCmd restores a backup file.
type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "restore a backup file" }
func (*importCmd) Usage() string {
	return `debtctl import <file>

  Writes every key of the backup document back to the database. Keys not
  present in the file are left as they are.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.backup.ReadFile(ctx, f.Arg(0)); err != nil {
		if errors.Is(err, backup.ErrImportParse) {
			fmt.Fprintf(os.Stderr, "Backup rejected, nothing was written: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		}
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %s: %d people, %d debts, %d transactions\n",
		f.Arg(0), len(a.ledger.People.List()), len(a.ledger.Debts.List()), len(a.ledger.Transactions.List()))
	return subcommands.ExitSuccess
}

// clearCmd wipes the database.
type clearCmd struct {
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete all data" }
func (*clearCmd) Usage() string {
	return `debtctl clear -yes

  Removes every person, debt, transaction and setting. This cannot be undone;
  export a backup first.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm that all data should be deleted")
}

func (c *clearCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "Refusing to clear without -yes")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.backup.ClearAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("All data deleted")
	return subcommands.ExitSuccess
}

// summaryCmd prints the dashboard.
type summaryCmd struct {
	plain bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display totals, balances and reminders" }
func (*summaryCmd) Usage() string {
	return `debtctl summary [-plain]

  Displays unpaid totals per currency, per-person balances, overdue debts and
  debts due within a week.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "Print markdown without terminal styling")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var b strings.Builder
	renderSummary(&b, a.ledger.People.List(), a.ledger.Debts.List(), time.Now())
	return printMarkdown(b.String(), c.plain)
}

// remindersCmd lists upcoming debts.
type remindersCmd struct {
	days  int
	plain bool
}

func (*remindersCmd) Name() string     { return "reminders" }
func (*remindersCmd) Synopsis() string { return "list unpaid debts due soon" }
func (*remindersCmd) Usage() string {
	return `debtctl reminders [-days <n>]

  Lists the unpaid debts due within the next n days.
`
}

func (c *remindersCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", calculator.DefaultReminderDays, "Reminder horizon in days")
	f.BoolVar(&c.plain, "plain", false, "Print markdown without terminal styling")
}

func (c *remindersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var b strings.Builder
	renderReminders(&b, a.ledger.People.List(), a.ledger.Debts.List(), time.Now(), c.days)
	return printMarkdown(b.String(), c.plain)
}

func printMarkdown(md string, plain bool) subcommands.ExitStatus {
	if plain {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating renderer: %v\n", err)
		return subcommands.ExitFailure
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}
