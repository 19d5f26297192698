package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPinLength is enforced when a PIN is set or enabled, not when it is
// submitted.
const MinPinLength = 4

var (
	ErrWeakPin     = fmt.Errorf("pin must be at least %d characters", MinPinLength)
	ErrPinMismatch = errors.New("pin and confirmation do not match")
)

// ValidatePin checks a new PIN and its confirmation.
func ValidatePin(pin, confirm string) error {
	if len(pin) < MinPinLength {
		return ErrWeakPin
	}
	if pin != confirm {
		return ErrPinMismatch
	}
	return nil
}

// HashPin returns the bcrypt hash of pin.
func HashPin(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hashed), nil
}

// PinMatches reports whether candidate matches the stored PIN. The stored
// value is either the PIN itself or a bcrypt hash of it.
func PinMatches(stored, candidate string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
