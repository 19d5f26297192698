package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/debtledger/internal/models"
)

// Contact is one entry returned by a contact directory.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ContactProvider is the platform contact picker. It may block until the
// user has made a selection.
type ContactProvider interface {
	Contacts(ctx context.Context) ([]Contact, error)
}

// ContactProviderFunc adapts a function to ContactProvider.
type ContactProviderFunc func(ctx context.Context) ([]Contact, error)

func (f ContactProviderFunc) Contacts(ctx context.Context) ([]Contact, error) { return f(ctx) }

// ContactImport summarizes an ImportContacts call.
type ContactImport struct {
	// Selected is the number of named contacts the provider returned.
	Selected int `json:"selected"`
	// Added are the people created from new contacts.
	Added []models.Person `json:"added"`
}

// ImportContacts creates a person of type individual for every contact that
// does not match an existing person by case-insensitive name (name and phone
// in strict mode). Nothing is written unless the provider returns the full
// selection: a provider error or a cancelled ctx discards the result.
func (l *Ledger) ImportContacts(ctx context.Context, provider ContactProvider) (ContactImport, error) {
	contacts, err := provider.Contacts(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		l.opts.Logger.Warn("Contact import failed", "error", err)
		if l.settings != nil {
			if perr := l.settings.SetContactsPermission(context.WithoutCancel(ctx), false); perr != nil {
				l.opts.Logger.Warn("Failed to store contacts permission", "error", perr)
			}
		}
		return ContactImport{}, fmt.Errorf("contact import: %w", err)
	}

	named := contacts[:0:0]
	for _, c := range contacts {
		if strings.TrimSpace(c.Name) != "" {
			named = append(named, c)
		}
	}
	if len(named) == 0 {
		return ContactImport{}, nil
	}

	if l.settings != nil {
		if err := l.settings.SetContactsPermission(ctx, true); err != nil {
			l.opts.Logger.Warn("Failed to store contacts permission", "error", err)
		}
	}

	added, err := l.People.mergeContacts(ctx, named, l.opts.StrictContactDedupe)
	if err != nil {
		return ContactImport{}, fmt.Errorf("contact import: %w", err)
	}

	l.opts.Logger.Info("Contacts imported", "selected", len(named), "added", len(added))
	return ContactImport{Selected: len(named), Added: added}, nil
}
