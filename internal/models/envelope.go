package models

import (
	"errors"
	"strings"

	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Envelope is a spending limit for one category.
//
// An envelope does not store its usage. Usage is always recomputed from the
// completed expense transactions in the category for the requested period,
// so reclassifying a transaction immediately moves it between envelopes.
type Envelope struct {
	DefaultModel
	Budget     Budget    `json:"-"`
	BudgetID   uuid.UUID `gorm:"uniqueIndex:envelope_budget_id_category_id"`
	Category   Category  `json:"-"`
	CategoryID uuid.UUID `gorm:"uniqueIndex:envelope_budget_id_category_id"`
	Name       string
	Note       string
	LimitCents int64 // spending limit in minor units, mutable
	Archived   bool
}

var (
	ErrEnvelopeExistsForCategory = errors.New("an envelope already exists for the category")
	ErrEnvelopeLimitNegative     = errors.New("the envelope limit must not be negative")
)

// EnvelopeUsage is the derived state of an envelope for one period.
//
// OverLimit is an explicit flag instead of a division result so that an
// envelope with a zero limit and nonzero usage can be reported without
// dividing by zero. Over-budget is an expected state, not an error.
type EnvelopeUsage struct {
	Usage      types.Money     `json:"usage"`
	LimitCents int64           `json:"limitCents"`
	Percentage decimal.Decimal `json:"percentage"`
	OverLimit  bool            `json:"overLimit"`
}

// BeforeSave trims whitespace and verifies the limit.
func (e *Envelope) BeforeSave(_ *gorm.DB) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Note = strings.TrimSpace(e.Note)

	if e.LimitCents < 0 {
		return ErrEnvelopeLimitNegative
	}

	return nil
}

func (e *Envelope) BeforeCreate(tx *gorm.DB) error {
	_ = e.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*Envelope)
	return e.checkIntegrity(tx, *toSave)
}

// BeforeUpdate verifies the state of the envelope before
// committing an update to the database.
func (e *Envelope) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("CategoryID") {
		toSave := tx.Statement.Dest.(Envelope)
		return e.checkIntegrity(tx, toSave)
	}

	return nil
}

// checkIntegrity verifies references to other resources
func (e *Envelope) checkIntegrity(tx *gorm.DB, toSave Envelope) error {
	var category Category
	err := tx.First(&category, toSave.CategoryID).Error
	if err != nil {
		return err
	}

	if category.BudgetID != toSave.BudgetID {
		return ErrBudgetMismatch
	}

	return nil
}

// Usage sums the completed expense transactions of the envelope's category
// within the period.
//
// Recomputing the usage for the same period without transaction changes in
// between always yields the same value, there is no stored counter.
func (e Envelope) Usage(db *gorm.DB, period types.Period) (types.Money, error) {
	var transactions []Transaction

	err := db.
		Where(&Transaction{
			CategoryID: e.CategoryID,
			Type:       TransactionTypeExpense,
			Status:     TransactionStatusCompleted,
		}).
		Where("datetime(transactions.date) >= datetime(?) AND datetime(transactions.date) < datetime(?)", period.Start, period.End).
		Find(&transactions).Error
	if err != nil {
		return types.Money{}, err
	}

	var usage types.Money
	for _, t := range transactions {
		usage, err = usage.Add(t.Amount)
		if err != nil {
			return types.Money{}, err
		}
	}

	return usage, nil
}

// UsageReport calculates the usage of the envelope for the period together
// with the limit percentage and the over-limit flag.
func (e Envelope) UsageReport(db *gorm.DB, period types.Period) (EnvelopeUsage, error) {
	usage, err := e.Usage(db, period)
	if err != nil {
		return EnvelopeUsage{}, err
	}

	report := EnvelopeUsage{
		Usage:      usage,
		LimitCents: e.LimitCents,
	}

	if e.LimitCents == 0 {
		// No limit to divide by. Any usage is over the limit.
		report.OverLimit = usage.IsPositive()
		return report, nil
	}

	report.Percentage = usage.Decimal().
		Div(decimal.New(e.LimitCents, -2)).
		Mul(decimal.NewFromInt(100))
	report.OverLimit = usage.Cents > e.LimitCents

	return report, nil
}
