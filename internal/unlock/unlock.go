// Package unlock gates the local ledger behind a 4-digit PIN. Only a
// PBKDF2 hash of the PIN is stored.
package unlock

import (
	"errors"
	"fmt"

	"github.com/KumarDhananjaya/Spendly/internal/localstore"
	"github.com/KumarDhananjaya/Spendly/internal/util"
)

// PINLength is the number of digits in a PIN.
const PINLength = 4

var ErrInvalidPIN = errors.New("unlock: PIN must be 4 digits")

type state struct {
	Enabled bool   `json:"enabled"`
	PINHash string `json:"pinHash"`
}

// Lock persists the app-lock setting in a single file.
type Lock struct {
	file *localstore.File[state]
}

func New(path string) *Lock {
	return &Lock{file: localstore.New[state](path, "")}
}

// Required reports whether a PIN must be entered before the ledger opens.
// An unreadable lock file counts as locked.
func (l *Lock) Required() bool {
	st, found, err := l.file.Load()
	if err != nil {
		return true
	}
	return found && st.Enabled && st.PINHash != ""
}

// Attempt reports whether pin unlocks. With no lock configured every
// attempt succeeds.
func (l *Lock) Attempt(pin string) bool {
	st, found, err := l.file.Load()
	if err != nil {
		return false
	}
	if !found || !st.Enabled {
		return true
	}
	return util.CheckPassword(pin, st.PINHash)
}

// SetPIN enables the lock with pin, replacing any previous PIN.
func (l *Lock) SetPIN(pin string) error {
	if !validPIN(pin) {
		return ErrInvalidPIN
	}
	hash, err := util.HashPassword(pin)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return l.file.Save(state{Enabled: true, PINHash: hash})
}

// Clear disables the lock and forgets the PIN.
func (l *Lock) Clear() error {
	return l.file.Remove()
}

func validPIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
