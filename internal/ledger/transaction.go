package ledger

import (
	"fmt"

	"github.com/centavo/backend/internal/models"
	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"github.com/ryanuber/go-glob"
	"gorm.io/gorm"
)

// CreateTransaction validates and persists a transaction.
//
// When the transaction references a credit card, the matching bill is
// created or recomputed in the same unit of work. If the bill update is
// rejected, e.g. because the bill has already been paid, the transaction is
// not persisted either.
func (l Ledger) CreateTransaction(transaction *models.Transaction) error {
	if transaction.CreditCardID == nil {
		return l.db.Create(transaction).Error
	}

	return l.inUnit("create transaction", func(tx *gorm.DB) error {
		err := tx.Create(transaction).Error
		if err != nil {
			return err
		}

		_, err = l.syncBill(tx, *transaction.CreditCardID, transaction.Date)
		return err
	})
}

// UpdateTransactionStatus moves a transaction to a new lifecycle status.
//
// Transitions are monotonic except for the explicit cancel of a scheduled
// transaction. For credit card transactions, the bill amount is recomputed
// in the same unit.
func (l Ledger) UpdateTransactionStatus(id uuid.UUID, status models.TransactionStatus) error {
	return l.inUnit("update transaction status", func(tx *gorm.DB) error {
		var transaction models.Transaction
		err := tx.First(&transaction, id).Error
		if err != nil {
			return err
		}

		if !transaction.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", models.ErrStatusTransitionInvalid, transaction.Status, status)
		}

		err = tx.Model(&transaction).Update("status", status).Error
		if err != nil {
			return err
		}

		if transaction.CreditCardID != nil {
			_, err = l.syncBill(tx, *transaction.CreditCardID, transaction.Date)
			return err
		}

		return nil
	})
}

// ReclassifyTransaction changes the category of a transaction.
//
// This is the only path that changes which envelope a transaction counts
// toward. Amount, account and date stay untouched. Usage is derived, so the
// envelopes of both categories are correct on their next computation.
func (l Ledger) ReclassifyTransaction(id uuid.UUID, categoryID uuid.UUID) error {
	return l.inUnit("reclassify transaction", func(tx *gorm.DB) error {
		var transaction models.Transaction
		err := tx.First(&transaction, id).Error
		if err != nil {
			return err
		}

		var category models.Category
		err = tx.First(&category, categoryID).Error
		if err != nil {
			return err
		}

		if category.BudgetID != transaction.BudgetID {
			return fmt.Errorf("%w: category %s", models.ErrBudgetMismatch, category.ID)
		}

		return tx.Model(&transaction).Update("category_id", categoryID).Error
	})
}

// TransactionsByAccount returns the transactions of an account with a date
// within the period, ordered by date.
func (l Ledger) TransactionsByAccount(accountID uuid.UUID, period types.Period) ([]models.Transaction, error) {
	var transactions []models.Transaction

	err := l.db.
		Where(&models.Transaction{AccountID: accountID}).
		Where("datetime(transactions.date) >= datetime(?) AND datetime(transactions.date) < datetime(?)", period.Start, period.End).
		Order("datetime(transactions.date) ASC").
		Find(&transactions).Error

	return transactions, err
}

// TransactionsByCreditCard returns the transactions referencing a credit
// card with a date within the period, ordered by date.
func (l Ledger) TransactionsByCreditCard(cardID uuid.UUID, period types.Period) ([]models.Transaction, error) {
	var transactions []models.Transaction

	err := l.db.
		Where(&models.Transaction{CreditCardID: &cardID}).
		Where("datetime(transactions.date) >= datetime(?) AND datetime(transactions.date) < datetime(?)", period.Start, period.End).
		Order("datetime(transactions.date) ASC").
		Find(&transactions).Error

	return transactions, err
}

// SearchTransactions returns the transactions of a budget whose note
// matches the glob pattern, e.g. "*groceries*".
func (l Ledger) SearchTransactions(budgetID uuid.UUID, pattern string) ([]models.Transaction, error) {
	var transactions []models.Transaction

	err := l.db.
		Where(&models.Transaction{BudgetID: budgetID}).
		Order("datetime(transactions.date) ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	matches := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if glob.Glob(pattern, t.Note) {
			matches = append(matches, t)
		}
	}

	return matches, nil
}
