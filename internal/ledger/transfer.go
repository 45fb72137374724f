package ledger

import (
	"time"

	"github.com/centavo/backend/internal/models"
	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferBetweenAccounts moves money between two accounts of one budget.
//
// One unit of work creates two completed transfer legs sharing a transfer
// ID: an outgoing leg on the source account and an incoming leg on the
// destination account. If either leg fails, neither is persisted.
//
// The source account's available balance must cover the amount so that the
// transfer can not break a goal reservation on the source account.
func (l Ledger) TransferBetweenAccounts(sourceID, destinationID uuid.UUID, amount types.Money, categoryID uuid.UUID, date time.Time) error {
	return l.inUnit("transfer between accounts", func(tx *gorm.DB) error {
		if sourceID == destinationID {
			return ErrTransferSameAccount
		}

		if !amount.IsPositive() {
			return models.ErrAmountNotPositive
		}

		var source models.Account
		err := tx.First(&source, sourceID).Error
		if err != nil {
			return err
		}

		available, err := source.AvailableBalance(tx)
		if err != nil {
			return err
		}

		cmp, err := available.Cmp(amount)
		if err != nil {
			return err
		}

		if cmp < 0 {
			return &InsufficientBalanceError{
				AccountID: source.ID,
				Available: available,
				Requested: amount,
			}
		}

		transferID := uuid.New()

		out := models.Transaction{
			BudgetID:   source.BudgetID,
			AccountID:  source.ID,
			CategoryID: categoryID,
			Type:       models.TransactionTypeTransfer,
			Status:     models.TransactionStatusCompleted,
			Direction:  models.TransferOut,
			TransferID: &transferID,
			Date:       date,
			Amount:     amount,
		}

		err = tx.Create(&out).Error
		if err != nil {
			return err
		}

		in := models.Transaction{
			BudgetID:   source.BudgetID,
			AccountID:  destinationID,
			CategoryID: categoryID,
			Type:       models.TransactionTypeTransfer,
			Status:     models.TransactionStatusCompleted,
			Direction:  models.TransferIn,
			TransferID: &transferID,
			Date:       date,
			Amount:     amount,
		}

		return tx.Create(&in).Error
	})
}
