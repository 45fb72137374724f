package ledger

import (
	"errors"
	"time"

	"github.com/centavo/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// syncBill resolves the billing month for a credit card transaction date
// and brings the matching bill in line with the card's transactions.
//
// An existing bill has its amount recomputed as the full sum over the
// period. A paid bill is immutable, the caller's unit is aborted. When no
// bill exists for the month, a new open bill is created and any open bill
// of an earlier cycle is closed first, so at most one bill per card is open
// at any time.
func (l Ledger) syncBill(tx *gorm.DB, cardID uuid.UUID, date time.Time) (uuid.UUID, error) {
	var card models.CreditCard
	err := tx.First(&card, cardID).Error
	if err != nil {
		return uuid.Nil, err
	}

	month := card.BillingMonth(date)

	var open []models.CreditCardBill
	err = tx.
		Where(&models.CreditCardBill{CreditCardID: card.ID, Status: models.BillStatusOpen}).
		Find(&open).Error
	if err != nil {
		return uuid.Nil, err
	}

	if len(open) > 1 {
		return uuid.Nil, ErrOpenBillInvariant
	}

	var bill models.CreditCardBill
	err = tx.
		Where(&models.CreditCardBill{CreditCardID: card.ID, Month: month}).
		First(&bill).Error

	if errors.Is(err, models.ErrResourceNotFound) {
		status := models.BillStatusOpen

		// A bill for a new cycle closes the previous cycle's bill, the
		// in-process equivalent of the closing-date job. A backdated bill
		// for a cycle that a later open bill already supersedes starts out
		// closed, so at most one bill per card is ever open.
		for i := range open {
			if open[i].Month.Before(month) {
				err = tx.Model(&open[i]).Update("status", models.BillStatusClosed).Error
				if err != nil {
					return uuid.Nil, err
				}
			} else {
				status = models.BillStatusClosed
			}
		}

		bill = models.CreditCardBill{
			BudgetID:     card.BudgetID,
			CreditCardID: card.ID,
			Month:        month,
			ClosingDate:  card.ClosingDate(month),
			DueDate:      card.DueDate(month),
			Status:       status,
		}

		err = bill.Recompute(tx, card)
		if err != nil {
			return uuid.Nil, err
		}

		err = tx.Create(&bill).Error
		if err != nil {
			return uuid.Nil, err
		}

		return bill.ID, nil
	} else if err != nil {
		return uuid.Nil, err
	}

	if bill.Status == models.BillStatusPaid {
		return uuid.Nil, ErrBillImmutable
	}

	err = bill.Recompute(tx, card)
	if err != nil {
		return uuid.Nil, err
	}

	err = tx.Model(&bill).Updates(map[string]interface{}{
		"amount_cents":    bill.Amount.Cents,
		"amount_currency": bill.Amount.Currency,
	}).Error
	if err != nil {
		return uuid.Nil, err
	}

	return bill.ID, nil
}

// PayCreditCardBill settles a bill from an account.
//
// One unit of work creates a completed expense transaction on the paying
// account over the bill amount and marks the bill as paid. The payment is
// rejected when the account's available balance does not cover the bill,
// leaving both the bill and the account untouched.
func (l Ledger) PayCreditCardBill(billID, accountID, categoryID uuid.UUID) error {
	return l.inUnit("pay credit card bill", func(tx *gorm.DB) error {
		var bill models.CreditCardBill
		err := tx.First(&bill, billID).Error
		if err != nil {
			return err
		}

		if bill.Status == models.BillStatusPaid {
			return ErrBillImmutable
		}

		if !bill.Status.CanTransitionTo(models.BillStatusPaid) {
			return models.ErrBillTransitionInvalid
		}

		var account models.Account
		err = tx.First(&account, accountID).Error
		if err != nil {
			return err
		}

		if account.BudgetID != bill.BudgetID {
			return models.ErrBudgetMismatch
		}

		// A zero bill needs no payment transaction.
		if bill.Amount.IsPositive() {
			available, err := account.AvailableBalance(tx)
			if err != nil {
				return err
			}

			cmp, err := available.Cmp(bill.Amount)
			if err != nil {
				return err
			}

			if cmp < 0 {
				return &InsufficientBalanceError{
					AccountID: account.ID,
					Available: available,
					Requested: bill.Amount,
				}
			}

			payment := models.Transaction{
				BudgetID:   bill.BudgetID,
				AccountID:  account.ID,
				CategoryID: categoryID,
				Type:       models.TransactionTypeExpense,
				Status:     models.TransactionStatusCompleted,
				Date:       time.Now().In(time.UTC),
				Amount:     bill.Amount,
				Note:       "Credit card bill " + bill.Month.String(),
			}

			err = tx.Create(&payment).Error
			if err != nil {
				return err
			}
		}

		now := time.Now().In(time.UTC)
		return tx.Model(&bill).Updates(map[string]interface{}{
			"status":  models.BillStatusPaid,
			"paid_at": now,
		}).Error
	})
}

// CloseElapsedBills closes all open bills whose closing date has passed.
// It returns the number of bills closed.
func (l Ledger) CloseElapsedBills(now time.Time) (int64, error) {
	res := l.db.
		Session(&gorm.Session{SkipHooks: true}).
		Model(&models.CreditCardBill{}).
		Where("status = ? AND datetime(closing_date) < datetime(?)", models.BillStatusOpen, now).
		Update("status", models.BillStatusClosed)

	return res.RowsAffected, res.Error
}

// MarkOverdueBills marks all closed bills whose due date has passed as
// overdue. It returns the number of bills marked.
func (l Ledger) MarkOverdueBills(now time.Time) (int64, error) {
	res := l.db.
		Session(&gorm.Session{SkipHooks: true}).
		Model(&models.CreditCardBill{}).
		Where("status = ? AND datetime(due_date) < datetime(?)", models.BillStatusClosed, now).
		Update("status", models.BillStatusOverdue)

	return res.RowsAffected, res.Error
}

// MarkOverdueTransactions marks all scheduled transactions whose date has
// passed as overdue. It returns the number of transactions marked.
func (l Ledger) MarkOverdueTransactions(now time.Time) (int64, error) {
	// Hooks are skipped, they would run against an empty model on a batch
	// update
	res := l.db.
		Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Transaction{}).
		Where("status = ? AND datetime(date) < datetime(?)", models.TransactionStatusScheduled, now).
		Update("status", models.TransactionStatusOverdue)

	return res.RowsAffected, res.Error
}
