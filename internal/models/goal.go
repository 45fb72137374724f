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

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "ACTIVE"
	GoalStatusCompleted GoalStatus = "COMPLETED"
	GoalStatusPaused    GoalStatus = "PAUSED"
	GoalStatusCancelled GoalStatus = "CANCELLED"
)

// Goal is a savings objective that reserves part of an account's balance.
//
// While the goal is active, its current amount counts as a reservation
// against the source account and reduces that account's available balance.
type Goal struct {
	DefaultModel
	Budget          Budget    `json:"-"`
	BudgetID        uuid.UUID `json:"budgetId"`
	SourceAccount   Account   `json:"-"`
	SourceAccountID uuid.UUID `json:"sourceAccountId"`
	Name            string
	Note            string
	TargetAmount    types.Money `json:"targetAmount" gorm:"embedded;embeddedPrefix:target_amount_"`
	CurrentAmount   types.Money `json:"currentAmount" gorm:"embedded;embeddedPrefix:current_amount_"`
	TargetDate      time.Time   `json:"targetDate"`
	Status          GoalStatus  `json:"status"`
}

var (
	ErrGoalTargetNotPositive = errors.New("the goal target must be larger than zero")
	ErrGoalStatusInvalid     = errors.New("the goal status is invalid")
	ErrGoalTargetDatePast    = errors.New("the target date of an active goal must be in the future")
	ErrGoalAmountOutOfBounds = errors.New("the goal amount must be between zero and the target amount")
)

// BeforeSave trims whitespace and verifies status and amount bounds.
func (g *Goal) BeforeSave(_ *gorm.DB) error {
	g.Name = strings.TrimSpace(g.Name)
	g.Note = strings.TrimSpace(g.Note)

	if g.Status == "" {
		g.Status = GoalStatusActive
	}

	switch g.Status {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused, GoalStatusCancelled:
	default:
		return fmt.Errorf("%w: %s", ErrGoalStatusInvalid, g.Status)
	}

	if !g.TargetAmount.IsPositive() {
		return ErrGoalTargetNotPositive
	}

	if g.CurrentAmount.IsNegative() {
		return ErrGoalAmountOutOfBounds
	}

	cmp, err := g.CurrentAmount.Cmp(g.TargetAmount)
	if err != nil {
		return err
	}

	if cmp > 0 {
		return ErrGoalAmountOutOfBounds
	}

	return nil
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	_ = g.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*Goal)

	// Only verified on create. A goal whose target date has passed must
	// still be updatable, e.g. to cancel it.
	if toSave.Status == "" || toSave.Status == GoalStatusActive {
		if !toSave.TargetDate.After(time.Now()) {
			return ErrGoalTargetDatePast
		}
	}

	return g.checkIntegrity(tx, toSave)
}

// BeforeUpdate verifies the state of the goal before
// committing an update to the database.
func (g *Goal) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("SourceAccountID") {
		toSave := tx.Statement.Dest.(Goal)

		// Partial update structs fall back to the loaded goal
		if toSave.BudgetID == uuid.Nil {
			toSave.BudgetID = g.BudgetID
		}

		if toSave.TargetAmount.Currency == "" {
			toSave.TargetAmount = g.TargetAmount
		}

		if toSave.CurrentAmount.Currency == "" {
			toSave.CurrentAmount = g.CurrentAmount
		}

		return g.checkIntegrity(tx, &toSave)
	}

	return nil
}

// checkIntegrity verifies that the source account exists, belongs to the
// goal's budget and matches the goal's currency.
func (g *Goal) checkIntegrity(tx *gorm.DB, toSave *Goal) error {
	var account Account
	err := tx.First(&account, toSave.SourceAccountID).Error
	if err != nil {
		return err
	}

	if account.BudgetID != toSave.BudgetID {
		return fmt.Errorf("%w: account %s", ErrBudgetMismatch, account.ID)
	}

	if toSave.TargetAmount.Currency == "" {
		toSave.TargetAmount.Currency = account.Currency
	}

	if toSave.CurrentAmount.Currency == "" {
		toSave.CurrentAmount.Currency = account.Currency
	}

	if toSave.TargetAmount.Currency != account.Currency || toSave.CurrentAmount.Currency != account.Currency {
		return fmt.Errorf("%w: goal in %s on account in %s", types.ErrCurrencyMismatch, toSave.TargetAmount.Currency, account.Currency)
	}

	return nil
}
