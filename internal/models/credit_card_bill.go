package models

import (
	"errors"
	"time"

	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillStatus is the lifecycle state of a credit card bill.
type BillStatus string

const (
	BillStatusOpen    BillStatus = "OPEN"
	BillStatusClosed  BillStatus = "CLOSED"
	BillStatusPaid    BillStatus = "PAID"
	BillStatusOverdue BillStatus = "OVERDUE"
)

// billTransitions lists the allowed status changes. Paid is terminal.
// Paying is possible from every state except paid itself, an open bill can
// be settled before its closing date.
var billTransitions = map[BillStatus][]BillStatus{
	BillStatusOpen:    {BillStatusClosed, BillStatusPaid},
	BillStatusClosed:  {BillStatusOverdue, BillStatusPaid},
	BillStatusOverdue: {BillStatusPaid},
	BillStatusPaid:    {},
}

// CanTransitionTo reports whether the status change is allowed.
func (s BillStatus) CanTransitionTo(next BillStatus) bool {
	for _, allowed := range billTransitions[s] {
		if next == allowed {
			return true
		}
	}

	return false
}

// CreditCardBill aggregates the transactions of one credit card within one
// billing cycle.
//
// The amount is derived state: it always equals the sum of the scheduled
// and completed transactions referencing the card within the bill's period
// and is recomputed on every change, never incremented. Only the status and
// PaidAt are independently mutable.
type CreditCardBill struct {
	DefaultModel
	Budget       Budget      `json:"-"`
	BudgetID     uuid.UUID   `json:"budgetId"`
	CreditCard   CreditCard  `json:"-"`
	CreditCardID uuid.UUID   `json:"creditCardId" gorm:"uniqueIndex:bill_credit_card_id_month"`
	Month        types.Month `json:"month" gorm:"uniqueIndex:bill_credit_card_id_month"`
	ClosingDate  time.Time   `json:"closingDate"`
	DueDate      time.Time   `json:"dueDate"`
	Amount       types.Money `json:"amount" gorm:"embedded;embeddedPrefix:amount_"`
	Status       BillStatus  `json:"status"`
	PaidAt       *time.Time  `json:"paidAt,omitempty"`
}

var (
	ErrBillMonthNotUnique    = errors.New("a bill already exists for the credit card and month")
	ErrBillStatusInvalid     = errors.New("the bill status is invalid")
	ErrBillTransitionInvalid = errors.New("the bill status transition is not allowed")
)

// BeforeSave verifies the status.
func (b *CreditCardBill) BeforeSave(_ *gorm.DB) error {
	if b.Status == "" {
		b.Status = BillStatusOpen
	}

	switch b.Status {
	case BillStatusOpen, BillStatusClosed, BillStatusPaid, BillStatusOverdue:
	default:
		return ErrBillStatusInvalid
	}

	return nil
}

func (b *CreditCardBill) BeforeCreate(tx *gorm.DB) error {
	_ = b.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*CreditCardBill)
	return b.checkIntegrity(tx, toSave)
}

// checkIntegrity verifies that the credit card exists and belongs to the
// bill's budget.
func (b *CreditCardBill) checkIntegrity(tx *gorm.DB, toSave *CreditCardBill) error {
	var card CreditCard
	err := tx.First(&card, toSave.CreditCardID).Error
	if err != nil {
		return err
	}

	if card.BudgetID != toSave.BudgetID {
		return ErrBudgetMismatch
	}

	return nil
}

// Recompute derives the bill amount from the card's transactions within the
// bill period.
//
// The amount is the full sum of all scheduled and completed transactions,
// not an incremental update, so it stays correct under edits and
// cancellations. Expenses add to the bill, income (refunds) subtracts.
func (b *CreditCardBill) Recompute(tx *gorm.DB, card CreditCard) error {
	period := card.BillPeriod(b.Month)

	var transactions []Transaction
	err := tx.
		Where("transactions.credit_card_id = ?", b.CreditCardID).
		Where("transactions.status IN ?", []TransactionStatus{TransactionStatusScheduled, TransactionStatusCompleted}).
		Where("datetime(transactions.date) >= datetime(?) AND datetime(transactions.date) < datetime(?)", period.Start, period.End).
		Find(&transactions).Error
	if err != nil {
		return err
	}

	amount := types.ZeroMoney(card.Limit.Currency)
	for _, t := range transactions {
		switch t.Type {
		case TransactionTypeExpense:
			amount, err = amount.Add(t.Amount)
		case TransactionTypeIncome:
			amount, err = amount.Sub(t.Amount)
		}

		if err != nil {
			return err
		}
	}

	b.Amount = amount
	return nil
}
