package ledger

import (
	"errors"
	"fmt"

	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
)

var (
	// ErrBillImmutable is returned when a change would alter a bill that
	// has already been paid.
	ErrBillImmutable = errors.New("the credit card bill has been paid and can no longer change")

	// ErrOpenBillInvariant is returned by the defensive check that at most
	// one bill per credit card is open. The creation logic keeps this
	// unreachable, it is verified before every bill write regardless.
	ErrOpenBillInvariant = errors.New("more than one open bill exists for the credit card")

	// ErrGoalStillAttached blocks account deletion while an active goal
	// reserves against the account.
	ErrGoalStillAttached = errors.New("the account still has an active goal attached")

	ErrGoalNotActive  = errors.New("the goal is not active")
	ErrGoalOverTarget = errors.New("the amount would exceed the goal's target")
	ErrGoalUnderflow  = errors.New("the amount would make the goal negative")

	// ErrConcurrencyConflict is returned when a guarded update lost
	// against a concurrent modification. Callers may retry, the ledger's
	// own operations already do so with a bounded backoff.
	ErrConcurrencyConflict = errors.New("the resource was modified concurrently")

	// ErrInsufficientAvailableBalance is the sentinel matched by
	// InsufficientBalanceError via errors.Is.
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")

	ErrTransferSameAccount = errors.New("source and destination account must be different")
)

// InsufficientBalanceError reports a reservation or payment exceeding an
// account's available balance.
type InsufficientBalanceError struct {
	AccountID uuid.UUID
	Available types.Money
	Requested types.Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient available balance on account %s: %s available, %s requested",
		e.AccountID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientAvailableBalance
}

// ExecutionError wraps a failure that occurred inside a unit of work. When
// it is returned, every write staged in the unit has been rolled back.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
