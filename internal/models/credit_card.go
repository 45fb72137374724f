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

// CreditCard is master data for a card with a monthly billing cycle.
//
// The card itself holds no transactions. Transactions referencing the card
// are aggregated into one CreditCardBill per billing month.
type CreditCard struct {
	DefaultModel
	Budget     Budget    `json:"-"`
	BudgetID   uuid.UUID `gorm:"uniqueIndex:credit_card_name_budget_id"`
	Name       string    `gorm:"uniqueIndex:credit_card_name_budget_id"`
	Note       string
	Limit      types.Money `json:"limit" gorm:"embedded;embeddedPrefix:limit_"` // credit limit
	ClosingDay int         `json:"closingDay"`                                  // day of month the cycle closes, 1-31
	DueDay     int         `json:"dueDay"`                                      // day of month the bill is due, 1-31
}

var (
	ErrCreditCardNameNotUnique    = errors.New("the credit card name must be unique for the budget")
	ErrCreditCardLimitNotPositive = errors.New("the credit limit must be larger than zero")
	ErrClosingDayInvalid          = errors.New("the closing day must be between 1 and 31")
	ErrDueDayInvalid              = errors.New("the due day must be between 1 and 31")
)

// BeforeSave trims whitespace and verifies limit and cycle days.
func (c *CreditCard) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)

	if !c.Limit.IsPositive() {
		return ErrCreditCardLimitNotPositive
	}

	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return fmt.Errorf("%w: %d", ErrClosingDayInvalid, c.ClosingDay)
	}

	if c.DueDay < 1 || c.DueDay > 31 {
		return fmt.Errorf("%w: %d", ErrDueDayInvalid, c.DueDay)
	}

	return nil
}

func (c *CreditCard) BeforeCreate(tx *gorm.DB) error {
	_ = c.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*CreditCard)
	return c.checkIntegrity(tx, toSave)
}

// checkIntegrity verifies references to other resources. The limit currency
// defaults to the budget's currency.
func (c *CreditCard) checkIntegrity(tx *gorm.DB, toSave *CreditCard) error {
	var budget Budget
	err := tx.First(&budget, toSave.BudgetID).Error
	if err != nil {
		return err
	}

	if toSave.Limit.Currency == "" {
		toSave.Limit.Currency = budget.Currency
	}

	return nil
}

// BillingMonth resolves the billing cycle a transaction date belongs to.
//
// A transaction up to and including the closing day belongs to the bill
// closing in its own month, later transactions to the bill closing in the
// following month.
func (c CreditCard) BillingMonth(date time.Time) types.Month {
	date = date.In(time.UTC)

	month := types.MonthOf(date)
	if date.Day() > c.ClosingDay {
		month = month.AddDate(0, 1)
	}

	return month
}

// ClosingDate returns the day the bill of the given month closes, clamped
// to the month's length.
func (c CreditCard) ClosingDate(month types.Month) time.Time {
	return month.Date(c.ClosingDay)
}

// DueDate returns the day the bill of the given month is due.
//
// When the due date does not come after the closing date within the closing
// month, it rolls over to the following month. Clamping can collapse both
// days onto the month's last day, e.g. closing day 30 and due day 31 in
// February, so the rollover check compares the resolved dates, not the
// configured days. The due date is always after the closing date.
func (c CreditCard) DueDate(month types.Month) time.Time {
	if c.DueDay > c.ClosingDay {
		due := month.Date(c.DueDay)
		if due.After(c.ClosingDate(month)) {
			return due
		}
	}

	return month.AddDate(0, 1).Date(c.DueDay)
}

// BillPeriod returns the date range of transactions aggregated into the
// bill of the given month: the day after the previous closing date up to
// and including the closing date.
func (c CreditCard) BillPeriod(month types.Month) types.Period {
	start := c.ClosingDate(month.AddDate(0, -1)).AddDate(0, 0, 1)
	end := c.ClosingDate(month).AddDate(0, 0, 1)

	return types.Period{Start: start, End: end}
}
