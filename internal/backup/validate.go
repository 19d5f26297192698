package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// validate checks that every known key of doc decodes to the shape the
// ledger reads. Unknown keys are not checked.
func validate(doc Document) error {
	for key, raw := range doc {
		var err error
		switch key {
		case storage.KeyPeople:
			err = validateEach(raw, func(p models.Person) error {
				if p.ID == "" {
					return errors.New("person without id")
				}
				if p.Name == "" {
					return fmt.Errorf("person %s without name", p.ID)
				}
				return nil
			})
		case storage.KeyDebts:
			err = validateEach(raw, func(d models.Debt) error {
				if d.ID == "" {
					return errors.New("debt without id")
				}
				if d.PersonID == "" {
					return fmt.Errorf("debt %s without personId", d.ID)
				}
				return nil
			})
		case storage.KeyTransactions:
			err = validateEach(raw, func(t models.Transaction) error {
				if t.ID == "" {
					return errors.New("transaction without id")
				}
				return nil
			})
		case storage.KeyCurrencies:
			err = json.Unmarshal(raw, new([]string))
		case storage.KeyPinEnabled, storage.KeyContactsPermissionGranted:
			err = json.Unmarshal(raw, new(bool))
		case storage.KeyPin:
			_, err = pinText(raw)
		}
		if err != nil {
			return &ImportParseError{Key: key, Err: err}
		}
	}
	return nil
}

func validateEach[T any](raw json.RawMessage, check func(T) error) error {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	for _, item := range items {
		if err := check(item); err != nil {
			return err
		}
	}
	return nil
}

// pinText decodes a stored PIN. Older backups may hold it as a bare number,
// such as 1234, which is taken as its digits.
func pinText(raw json.RawMessage) (string, error) {
	var pin string
	if err := json.Unmarshal(raw, &pin); err == nil {
		return pin, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("pin must be a string or a number")
	}
	if strings.ContainsAny(n.String(), ".eE+-") {
		return "", fmt.Errorf("pin %s is not a whole number", n)
	}
	return n.String(), nil
}

// normalize rewrites values the ledger would otherwise read back as
// missing. The document has already passed validation when Validate is on.
func normalize(doc Document) {
	raw, ok := doc[storage.KeyPin]
	if !ok {
		return
	}
	pin, err := pinText(raw)
	if err != nil {
		return
	}
	if quoted, err := json.Marshal(pin); err == nil {
		doc[storage.KeyPin] = quoted
	}
}
