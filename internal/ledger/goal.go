package ledger

import (
	"github.com/centavo/backend/internal/models"
	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddToGoal increases a goal's reservation.
//
// The addition is rejected when the source account's available balance does
// not cover the new reservation or when the goal would exceed its target.
// The update is guarded against concurrent modifications of the goal: two
// concurrent additions can not both pass the availability check against a
// stale balance.
func (l Ledger) AddToGoal(id uuid.UUID, amount types.Money) error {
	return withConflictRetry(func() error {
		return l.db.Transaction(func(tx *gorm.DB) error {
			var goal models.Goal
			err := tx.First(&goal, id).Error
			if err != nil {
				return err
			}

			if !amount.IsPositive() {
				return models.ErrAmountNotPositive
			}

			if goal.Status != models.GoalStatusActive {
				return ErrGoalNotActive
			}

			newAmount, err := goal.CurrentAmount.Add(amount)
			if err != nil {
				return err
			}

			cmp, err := newAmount.Cmp(goal.TargetAmount)
			if err != nil {
				return err
			}

			if cmp > 0 {
				return ErrGoalOverTarget
			}

			var account models.Account
			err = tx.First(&account, goal.SourceAccountID).Error
			if err != nil {
				return err
			}

			available, err := account.AvailableBalance(tx)
			if err != nil {
				return err
			}

			// The available balance already subtracts the goal's current
			// reservation, so it has to cover the addition.
			cmp, err = available.Cmp(amount)
			if err != nil {
				return err
			}

			if cmp < 0 {
				return &InsufficientBalanceError{
					AccountID: account.ID,
					Available: available,
					Requested: amount,
				}
			}

			return l.updateGoalAmount(tx, goal, newAmount)
		})
	})
}

// RemoveFromGoal decreases a goal's reservation, releasing the amount back
// into the source account's available balance.
func (l Ledger) RemoveFromGoal(id uuid.UUID, amount types.Money) error {
	return withConflictRetry(func() error {
		return l.db.Transaction(func(tx *gorm.DB) error {
			var goal models.Goal
			err := tx.First(&goal, id).Error
			if err != nil {
				return err
			}

			if !amount.IsPositive() {
				return models.ErrAmountNotPositive
			}

			if goal.Status == models.GoalStatusCancelled || goal.Status == models.GoalStatusCompleted {
				return ErrGoalNotActive
			}

			newAmount, err := goal.CurrentAmount.Sub(amount)
			if err != nil {
				return err
			}

			if newAmount.IsNegative() {
				return ErrGoalUnderflow
			}

			return l.updateGoalAmount(tx, goal, newAmount)
		})
	})
}

// updateGoalAmount writes the new reservation with an optimistic check on
// the goal's update timestamp. A concurrent modification between load and
// write surfaces as ErrConcurrencyConflict.
func (l Ledger) updateGoalAmount(tx *gorm.DB, goal models.Goal, amount types.Money) error {
	res := tx.
		Model(&goal).
		Where("updated_at = ?", goal.UpdatedAt).
		Updates(map[string]interface{}{
			"current_amount_cents":    amount.Cents,
			"current_amount_currency": amount.Currency,
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}

	return nil
}

// TransferGoalToAccount moves a goal's reservation to a different account.
//
// The whole reservation must fit into the new account's available balance.
// The move happens in one unit of work, the goal is never observable
// unreserved from the old account but not yet reserved on the new one.
func (l Ledger) TransferGoalToAccount(goalID, accountID uuid.UUID) error {
	return withConflictRetry(func() error {
		return l.inUnit("transfer goal", func(tx *gorm.DB) error {
			var goal models.Goal
			err := tx.First(&goal, goalID).Error
			if err != nil {
				return err
			}

			var account models.Account
			err = tx.First(&account, accountID).Error
			if err != nil {
				return err
			}

			if account.BudgetID != goal.BudgetID {
				return models.ErrBudgetMismatch
			}

			if account.Currency != goal.CurrentAmount.Currency {
				return types.ErrCurrencyMismatch
			}

			if goal.Status == models.GoalStatusActive && goal.CurrentAmount.IsPositive() {
				available, err := account.AvailableBalance(tx)
				if err != nil {
					return err
				}

				cmp, err := available.Cmp(goal.CurrentAmount)
				if err != nil {
					return err
				}

				if cmp < 0 {
					return &InsufficientBalanceError{
						AccountID: account.ID,
						Available: available,
						Requested: goal.CurrentAmount,
					}
				}
			}

			res := tx.
				Model(&goal).
				Where("updated_at = ?", goal.UpdatedAt).
				Updates(models.Goal{SourceAccountID: account.ID})
			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				return ErrConcurrencyConflict
			}

			return nil
		})
	})
}

// DeleteAccount removes an account.
//
// Deletion is blocked while an active goal reserves against the account.
// The goal has to be transferred to another account or cancelled first.
func (l Ledger) DeleteAccount(id uuid.UUID) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		err := tx.First(&account, id).Error
		if err != nil {
			return err
		}

		var count int64
		err = tx.
			Model(&models.Goal{}).
			Where(&models.Goal{SourceAccountID: account.ID, Status: models.GoalStatusActive}).
			Count(&count).Error
		if err != nil {
			return err
		}

		if count > 0 {
			return ErrGoalStillAttached
		}

		return tx.Delete(&account).Error
	})
}
