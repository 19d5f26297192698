package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mmynk/debtledger/internal/storage"
)

// DefaultCurrencies is the currency list used until the user edits it.
// The first element is the default currency.
var DefaultCurrencies = []string{"DZD", "USD", "EUR"}

var (
	ErrEmptyCurrency     = errors.New("currency code is required")
	ErrDuplicateCurrency = errors.New("currency already exists")
	ErrLastCurrency      = errors.New("at least one currency must remain")
	ErrDefaultCurrency   = errors.New("the default currency cannot be removed")
	ErrUnknownCurrency   = errors.New("currency not in list")
)

// AppConfig is a snapshot of the settings stored alongside the ledger.
type AppConfig struct {
	PinEnabled                bool
	Pin                       string
	Currencies                []string
	ContactsPermissionGranted bool
}

// Settings owns the scalar settings keys. It is loaded once and handed to
// the components that need it, instead of each of them reading the store.
type Settings struct {
	mu     sync.Mutex
	store  storage.Store
	cfg    AppConfig
	logger *slog.Logger
}

// NewSettings loads the settings from store. Unreadable values fall back to
// their defaults.
func NewSettings(ctx context.Context, store storage.Store, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Settings{store: store, logger: logger}
	s.Reload(ctx)
	return s
}

// Reload re-reads every settings key from the store.
func (s *Settings) Reload(ctx context.Context) error {
	cfg := AppConfig{
		PinEnabled:                storage.GetJSON(ctx, s.store, storage.KeyPinEnabled, false),
		Pin:                       storage.GetJSON(ctx, s.store, storage.KeyPin, ""),
		Currencies:                storage.GetJSON(ctx, s.store, storage.KeyCurrencies, []string(nil)),
		ContactsPermissionGranted: storage.GetJSON(ctx, s.store, storage.KeyContactsPermissionGranted, false),
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = slices.Clone(DefaultCurrencies)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current settings.
func (s *Settings) Snapshot() AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.Currencies = slices.Clone(s.cfg.Currencies)
	return cfg
}

// Currencies returns the user-managed currency list.
func (s *Settings) Currencies() []string {
	return s.Snapshot().Currencies
}

// DefaultCurrency returns the first currency of the list.
func (s *Settings) DefaultCurrency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Currencies[0]
}

// HasCurrency reports whether code is in the currency list.
func (s *Settings) HasCurrency(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.cfg.Currencies, code)
}

// AddCurrency appends code, upper-cased, to the currency list.
func (s *Settings) AddCurrency(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", ErrEmptyCurrency
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.cfg.Currencies, code) {
		return "", fmt.Errorf("%w: %s", ErrDuplicateCurrency, code)
	}
	next := append(slices.Clone(s.cfg.Currencies), code)
	if err := storage.SetJSON(ctx, s.store, storage.KeyCurrencies, next); err != nil {
		return "", err
	}
	s.cfg.Currencies = next
	s.logger.Info("Currency added", "currency", code)
	return code, nil
}

// RemoveCurrency removes code from the currency list. The last remaining
// currency and the default currency cannot be removed.
func (s *Settings) RemoveCurrency(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.cfg.Currencies, code) {
		return fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	if len(s.cfg.Currencies) <= 1 {
		return ErrLastCurrency
	}
	if s.cfg.Currencies[0] == code {
		return fmt.Errorf("%w: %s", ErrDefaultCurrency, code)
	}

	next := slices.DeleteFunc(slices.Clone(s.cfg.Currencies), func(c string) bool { return c == code })
	if err := storage.SetJSON(ctx, s.store, storage.KeyCurrencies, next); err != nil {
		return err
	}
	s.cfg.Currencies = next
	s.logger.Info("Currency removed", "currency", code)
	return nil
}

// PinState returns the PIN flag and the stored PIN.
func (s *Settings) PinState() (enabled bool, pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.PinEnabled, s.cfg.Pin
}

// SavePinState writes the PIN flag and the PIN. The two keys are written
// separately, ordered so that an interrupted write never leaves the flag on
// without the PIN it guards.
func (s *Settings) SavePinState(ctx context.Context, enabled bool, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	write := []func() error{
		func() error { return storage.SetJSON(ctx, s.store, storage.KeyPin, pin) },
		func() error { return storage.SetJSON(ctx, s.store, storage.KeyPinEnabled, enabled) },
	}
	if !enabled {
		slices.Reverse(write)
	}
	for _, w := range write {
		if err := w(); err != nil {
			return err
		}
	}
	s.cfg.PinEnabled = enabled
	s.cfg.Pin = pin
	return nil
}

// ContactsPermissionGranted returns the informational contacts flag.
func (s *Settings) ContactsPermissionGranted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ContactsPermissionGranted
}

// SetContactsPermission stores the contacts flag.
func (s *Settings) SetContactsPermission(ctx context.Context, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SetJSON(ctx, s.store, storage.KeyContactsPermissionGranted, granted); err != nil {
		return err
	}
	s.cfg.ContactsPermissionGranted = granted
	return nil
}
