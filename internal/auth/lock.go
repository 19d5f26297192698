// Package auth gates the ledger behind an optional PIN.
//
// The Lock is a three-state machine evaluated once per process:
//
//	Disabled --EnablePin/SetPin--> Locked --SubmitPin--> Unlocked
//	   ^                             |
//	   +---------ForgotPin-----------+
//
// Unlocked lasts until the process restarts. Session tokens issued by the
// JWTManager let HTTP clients prove they passed the challenge; a client
// without one submits the PIN again while Unlocked.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrAuthenticationFailed    = errors.New("incorrect pin")
	ErrInvalidPinConfiguration = errors.New("pin lock was enabled without a pin and has been turned off")
	ErrInvalidTransition       = errors.New("operation not allowed in the current lock state")
)

// State is the lock state.
type State int

const (
	// StateDisabled means the PIN feature is off. Access is open.
	StateDisabled State = iota
	// StateLocked means a PIN must be submitted before access.
	StateLocked
	// StateUnlocked means the PIN was submitted in this process.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) pinRequired() bool {
	return s == StateLocked || s == StateUnlocked
}

// Open reports whether the ledger may be accessed.
func (s State) Open() bool {
	return s != StateLocked
}

// PinStore persists the PIN flag and the PIN. config.Settings implements it.
type PinStore interface {
	PinState() (enabled bool, pin string)
	SavePinState(ctx context.Context, enabled bool, pin string) error
}

// LockOptions configures a Lock.
type LockOptions struct {
	// HashPins stores new PINs as bcrypt hashes.
	HashPins bool
	Logger   *slog.Logger
}

// Lock is the access lock state machine.
type Lock struct {
	mu     sync.Mutex
	pins   PinStore
	state  State
	notice error
	opts   LockOptions
}

// NewLock evaluates the stored PIN settings. An enabled flag without a PIN
// is corrected by clearing the flag; Notice then reports
// ErrInvalidPinConfiguration.
func NewLock(ctx context.Context, pins PinStore, opts LockOptions) *Lock {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Lock{pins: pins, opts: opts}

	enabled, pin := pins.PinState()
	switch {
	case enabled && pin != "":
		l.state = StateLocked
	case enabled:
		l.state = StateDisabled
		l.notice = ErrInvalidPinConfiguration
		l.opts.Logger.Warn("PIN enabled without a stored PIN, disabling")
		if err := pins.SavePinState(ctx, false, ""); err != nil {
			l.opts.Logger.Error("Failed to clear PIN flag", "error", err)
		}
	default:
		l.state = StateDisabled
	}
	return l
}

// State returns the current state.
func (l *Lock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Notice returns the configuration problem corrected at startup, if any.
func (l *Lock) Notice() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notice
}

// SubmitPin unlocks the ledger when candidate matches the stored PIN.
// While Unlocked it only checks the PIN, so a client that lost its session
// can authenticate again. Failed attempts leave the state unchanged and are
// not counted.
func (l *Lock) SubmitPin(candidate string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.pinRequired() {
		return l.transitionError("submit pin")
	}
	_, stored := l.pins.PinState()
	if !PinMatches(stored, candidate) {
		l.opts.Logger.Warn("PIN rejected", "state", l.state)
		return ErrAuthenticationFailed
	}
	if l.state == StateUnlocked {
		l.opts.Logger.Info("PIN accepted for a new session")
		return nil
	}
	l.state = StateUnlocked
	l.opts.Logger.Info("Ledger unlocked")
	return nil
}

// ForgotPin clears the stored PIN and the flag without any verification.
func (l *Lock) ForgotPin(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateLocked {
		return l.transitionError("reset pin")
	}
	if err := l.pins.SavePinState(ctx, false, ""); err != nil {
		return err
	}
	l.state = StateDisabled
	l.opts.Logger.Warn("PIN reset through forgot-pin")
	return nil
}

// EnablePin turns the lock on with the PIN already stored.
func (l *Lock) EnablePin(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateDisabled {
		return l.transitionError("enable pin")
	}
	_, stored := l.pins.PinState()
	if len(stored) < MinPinLength {
		return ErrWeakPin
	}
	if err := l.pins.SavePinState(ctx, true, stored); err != nil {
		return err
	}
	l.state = StateLocked
	l.opts.Logger.Info("PIN lock enabled")
	return nil
}

// SetPin stores a new PIN and enables the lock. Setting a PIN while
// unlocked keeps the session unlocked; from Disabled the lock engages.
func (l *Lock) SetPin(ctx context.Context, pin, confirm string) error {
	if err := ValidatePin(pin, confirm); err != nil {
		return err
	}

	stored := pin
	if l.opts.HashPins {
		hashed, err := HashPin(pin)
		if err != nil {
			return err
		}
		stored = hashed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateLocked {
		return l.transitionError("set pin")
	}
	if err := l.pins.SavePinState(ctx, true, stored); err != nil {
		return err
	}
	if l.state == StateDisabled {
		l.state = StateLocked
	}
	l.opts.Logger.Info("PIN saved", "state", l.state, "hashed", l.opts.HashPins)
	return nil
}

// DisablePin turns the lock off and keeps the stored PIN so EnablePin can
// turn it back on.
func (l *Lock) DisablePin(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateLocked {
		return l.transitionError("disable pin")
	}
	_, stored := l.pins.PinState()
	if err := l.pins.SavePinState(ctx, false, stored); err != nil {
		return err
	}
	l.state = StateDisabled
	l.opts.Logger.Info("PIN lock disabled")
	return nil
}

func (l *Lock) transitionError(op string) error {
	return fmt.Errorf("%s while %s: %w", op, l.state, ErrInvalidTransition)
}
