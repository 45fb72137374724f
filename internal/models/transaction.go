package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType encodes the direction of a transaction on its account.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// TransactionStatus is the lifecycle state of a transaction. Only completed
// transactions contribute to balances and envelope usage.
type TransactionStatus string

const (
	TransactionStatusScheduled TransactionStatus = "SCHEDULED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusOverdue   TransactionStatus = "OVERDUE"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// transitions lists the allowed status changes. Completed is terminal, a
// completed transaction can not be cancelled.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusScheduled: {TransactionStatusCompleted, TransactionStatusOverdue, TransactionStatusCancelled},
	TransactionStatusOverdue:   {TransactionStatusCompleted},
	TransactionStatusCompleted: {},
	TransactionStatusCancelled: {},
}

// CanTransitionTo reports whether the status change is allowed.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}

	return false
}

// TransferDirection marks which side of a transfer a transaction leg is.
// It is empty for income and expense transactions.
type TransferDirection string

const (
	TransferIn  TransferDirection = "IN"
	TransferOut TransferDirection = "OUT"
)

// Transaction is a single recorded movement of money on one account.
//
// The amount is always positive, the direction is encoded by the type. The
// two legs of an account transfer share a TransferID.
type Transaction struct {
	DefaultModel
	Budget       Budget            `json:"-"`
	BudgetID     uuid.UUID         `json:"budgetId"`
	Account      Account           `json:"-"`
	AccountID    uuid.UUID         `json:"accountId"`
	Category     Category          `json:"-"`
	CategoryID   uuid.UUID         `json:"categoryId"`
	CreditCard   *CreditCard       `json:"-"`
	CreditCardID *uuid.UUID        `json:"creditCardId,omitempty"`
	Type         TransactionType   `json:"type"`
	Status       TransactionStatus `json:"status"`
	Direction    TransferDirection `json:"direction,omitempty"` // set only on transfer legs
	TransferID   *uuid.UUID        `json:"transferId,omitempty"`
	Date         time.Time         `json:"date"`
	Amount       types.Money       `json:"amount" gorm:"embedded;embeddedPrefix:amount_"`
	Note         string            `json:"note,omitempty"`
}

var (
	ErrAmountNotPositive          = errors.New("the amount must be larger than zero")
	ErrTransactionTypeInvalid     = errors.New("the transaction type is invalid")
	ErrTransactionStatusInvalid   = errors.New("the transaction status is invalid")
	ErrStatusTransitionInvalid    = errors.New("the status transition is not allowed")
	ErrTransferDirectionRequired  = errors.New("transfer transactions need a direction")
	ErrTransferDirectionForbidden = errors.New("only transfer transactions can have a direction")
	ErrTransferOnCreditCard       = errors.New("transfer transactions can not reference a credit card")
)

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (t *Transaction) AfterFind(tx *gorm.DB) (err error) {
	err = t.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	t.Date = t.Date.In(time.UTC)
	return nil
}

// BeforeSave
//   - sets the timezone for the date to UTC
//   - verifies amount, type, status and transfer fields
//   - trims whitespace from string fields
func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.Note = strings.TrimSpace(t.Note)

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	// Ensure that the credit card ID is nil and not a pointer to a nil UUID
	// when it is not set
	if t.CreditCardID != nil && *t.CreditCardID == uuid.Nil {
		t.CreditCardID = nil
	}

	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrAmountNotPositive, t.Amount)
	}

	if t.Status == "" {
		t.Status = TransactionStatusScheduled
	}

	switch t.Status {
	case TransactionStatusScheduled, TransactionStatusCompleted, TransactionStatusOverdue, TransactionStatusCancelled:
	default:
		return fmt.Errorf("%w: %s", ErrTransactionStatusInvalid, t.Status)
	}

	switch t.Type {
	case TransactionTypeIncome, TransactionTypeExpense:
		if t.Direction != "" {
			return ErrTransferDirectionForbidden
		}
	case TransactionTypeTransfer:
		if t.Direction != TransferIn && t.Direction != TransferOut {
			return ErrTransferDirectionRequired
		}

		if t.CreditCardID != nil {
			return ErrTransferOnCreditCard
		}
	default:
		return fmt.Errorf("%w: %s", ErrTransactionTypeInvalid, t.Type)
	}

	return nil
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	_ = t.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*Transaction)
	return t.checkIntegrity(tx, toSave)
}

// checkIntegrity verifies that all referenced resources exist and belong to
// the transaction's budget and that the amount matches the account currency.
func (t *Transaction) checkIntegrity(tx *gorm.DB, toSave *Transaction) error {
	var account Account
	err := tx.First(&account, toSave.AccountID).Error
	if err != nil {
		return err
	}

	if account.BudgetID != toSave.BudgetID {
		return fmt.Errorf("%w: account %s", ErrBudgetMismatch, account.ID)
	}

	if toSave.Amount.Currency == "" {
		toSave.Amount.Currency = account.Currency
	} else if toSave.Amount.Currency != account.Currency {
		return fmt.Errorf("%w: transaction in %s on account in %s", types.ErrCurrencyMismatch, toSave.Amount.Currency, account.Currency)
	}

	var category Category
	err = tx.First(&category, toSave.CategoryID).Error
	if err != nil {
		return err
	}

	if category.BudgetID != toSave.BudgetID {
		return fmt.Errorf("%w: category %s", ErrBudgetMismatch, category.ID)
	}

	if toSave.CreditCardID != nil {
		var card CreditCard
		err = tx.First(&card, *toSave.CreditCardID).Error
		if err != nil {
			return err
		}

		if card.BudgetID != toSave.BudgetID {
			return fmt.Errorf("%w: credit card %s", ErrBudgetMismatch, card.ID)
		}
	}

	return nil
}

// SignedAmount returns the amount with the sign of its effect on the
// account balance.
func (t Transaction) SignedAmount() types.Money {
	switch {
	case t.Type == TransactionTypeExpense:
		return t.Amount.Neg()
	case t.Type == TransactionTypeTransfer && t.Direction == TransferOut:
		return t.Amount.Neg()
	}

	return t.Amount
}
