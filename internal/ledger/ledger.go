// Package ledger implements the consistency engine that keeps account
// balances, goal reservations, envelope usage and credit card bills mutually
// consistent as transactions are created, reclassified or reversed.
//
// Operations that write to more than one aggregate run inside a single unit
// of work: all participating writes commit together or none do.
package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Ledger executes the engine's operations on one database.
type Ledger struct {
	db *gorm.DB
}

// New returns a Ledger operating on the given database.
func New(db *gorm.DB) Ledger {
	return Ledger{db: db}
}

const (
	conflictRetries = 3
	conflictBackoff = 25 * time.Millisecond
)

// withConflictRetry runs fn and retries it with backoff when it fails with
// ErrConcurrencyConflict. Conflicts are the only error kind that is retried,
// every other failure is returned to the caller unchanged.
func withConflictRetry(fn func() error) error {
	var err error

	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}

		time.Sleep(conflictBackoff << attempt)
	}

	return err
}

// inUnit runs fn inside one transaction scope. A failure at any step rolls
// back every write already staged in the unit and is returned wrapped in an
// ExecutionError.
func (l Ledger) inUnit(op string, fn func(tx *gorm.DB) error) error {
	err := l.db.Transaction(fn)
	if err != nil {
		return &ExecutionError{Op: op, Err: err}
	}

	return nil
}
