package ledger_test

import (
	"time"

	"github.com/centavo/backend/internal/ledger"
	"github.com/centavo/backend/internal/models"
	"github.com/centavo/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateTransactionBillAggregation verifies the billing cycle: with a
// closing day of 10, purchases on the 5th and 8th land on the month's bill
// and a purchase on the 15th opens the next month's bill, closing the
// current one.
func (suite *TestSuiteStandard) TestCreateTransactionBillAggregation() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	card := suite.createTestCreditCard(models.CreditCard{BudgetID: budget.ID, ClosingDay: 10, DueDay: 20})

	march := types.NewMonth(2026, 3)
	april := types.NewMonth(2026, 4)

	err := suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(10000, "EUR"),
	})
	require.Nil(t, err)

	bill := suite.billFor(card, march)
	assert.Equal(t, models.BillStatusOpen, bill.Status)
	assert.Equal(t, types.NewMoney(10000, "EUR"), bill.Amount)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), bill.ClosingDate)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), bill.DueDate)

	err = suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(2500, "EUR"),
	})
	require.Nil(t, err)

	bill = suite.billFor(card, march)
	assert.Equal(t, types.NewMoney(12500, "EUR"), bill.Amount)

	// After the closing day the purchase lands on the next month's bill
	err = suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(4000, "EUR"),
	})
	require.Nil(t, err)

	bill = suite.billFor(card, march)
	assert.Equal(t, models.BillStatusClosed, bill.Status, "Opening the next cycle's bill closes the previous one")
	assert.Equal(t, types.NewMoney(12500, "EUR"), bill.Amount)

	next := suite.billFor(card, april)
	assert.Equal(t, models.BillStatusOpen, next.Status)
	assert.Equal(t, types.NewMoney(4000, "EUR"), next.Amount)

	// At most one bill per card is open
	var open int64
	err = models.DB.
		Model(&models.CreditCardBill{}).
		Where(&models.CreditCardBill{CreditCardID: card.ID, Status: models.BillStatusOpen}).
		Count(&open).Error
	require.Nil(t, err)
	assert.Equal(t, int64(1), open)
}

// TestCreateTransactionBackdated verifies that a transaction backdated into
// a cycle that a later open bill already supersedes creates that cycle's
// bill as closed, so the card never has two open bills.
func (suite *TestSuiteStandard) TestCreateTransactionBackdated() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	card := suite.createTestCreditCard(models.CreditCard{BudgetID: budget.ID, ClosingDay: 10, DueDay: 20})

	// After the closing day, the purchase opens the April bill
	err := suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(4000, "EUR"),
	})
	require.Nil(t, err)

	// Backdated into the March cycle
	err = suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(1500, "EUR"),
	})
	require.Nil(t, err)

	backdated := suite.billFor(card, types.NewMonth(2026, 3))
	assert.Equal(t, models.BillStatusClosed, backdated.Status, "A superseded cycle's bill starts out closed")
	assert.Equal(t, types.NewMoney(1500, "EUR"), backdated.Amount)

	current := suite.billFor(card, types.NewMonth(2026, 4))
	assert.Equal(t, models.BillStatusOpen, current.Status)
	assert.Equal(t, types.NewMoney(4000, "EUR"), current.Amount)

	var open int64
	err = models.DB.
		Model(&models.CreditCardBill{}).
		Where(&models.CreditCardBill{CreditCardID: card.ID, Status: models.BillStatusOpen}).
		Count(&open).Error
	require.Nil(t, err)
	assert.Equal(t, int64(1), open, "At most one bill per card may be open")
}

// TestCreateTransactionPaidBill verifies that a transaction whose billing
// month resolves to a paid bill is rejected and that neither the
// transaction nor the bill changes.
func (suite *TestSuiteStandard) TestCreateTransactionPaidBill() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	card := suite.createTestCreditCard(models.CreditCard{BudgetID: budget.ID, ClosingDay: 10, DueDay: 20})

	err := suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(10000, "EUR"),
	})
	require.Nil(t, err)

	bill := suite.billFor(card, types.NewMonth(2026, 3))
	err = models.DB.Model(&bill).Update("status", models.BillStatusPaid).Error
	require.Nil(t, err)

	err = suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(500, "EUR"),
	})
	assert.ErrorIs(t, err, ledger.ErrBillImmutable)

	var execErr *ledger.ExecutionError
	assert.ErrorAs(t, err, &execErr)

	// The whole unit rolled back: the transaction does not exist and the
	// bill amount is unchanged
	var count int64
	err = models.DB.Model(&models.Transaction{}).Count(&count).Error
	require.Nil(t, err)
	assert.Equal(t, int64(1), count)

	bill = suite.billFor(card, types.NewMonth(2026, 3))
	assert.Equal(t, types.NewMoney(10000, "EUR"), bill.Amount)
	assert.Equal(t, models.BillStatusPaid, bill.Status)
}

// TestUpdateTransactionStatus verifies the lifecycle transitions and that
// cancelling a scheduled credit card transaction removes it from the bill.
func (suite *TestSuiteStandard) TestUpdateTransactionStatus() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	card := suite.createTestCreditCard(models.CreditCard{BudgetID: budget.ID, ClosingDay: 10, DueDay: 20})

	transaction := models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(10000, "EUR"),
	}
	err := suite.ledger.CreateTransaction(&transaction)
	require.Nil(t, err)

	bill := suite.billFor(card, types.NewMonth(2026, 3))
	assert.Equal(t, types.NewMoney(10000, "EUR"), bill.Amount)

	err = suite.ledger.UpdateTransactionStatus(transaction.ID, models.TransactionStatusCancelled)
	require.Nil(t, err)

	bill = suite.billFor(card, types.NewMonth(2026, 3))
	assert.True(t, bill.Amount.IsZero(), "Cancelled transactions drop out of the bill")

	// Cancelled is terminal, and unit failures carry the operation
	err = suite.ledger.UpdateTransactionStatus(transaction.ID, models.TransactionStatusCompleted)
	assert.ErrorIs(t, err, models.ErrStatusTransitionInvalid)

	var execErr *ledger.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}

// TestReclassifyTransaction verifies that reclassifying moves the usage
// from one envelope to the other and that reclassifying back restores the
// original state.
func (suite *TestSuiteStandard) TestReclassifyTransaction() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	groceries := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	dining := suite.createTestCategory(models.Category{BudgetID: budget.ID})

	groceriesEnvelope := suite.createTestEnvelope(models.Envelope{BudgetID: budget.ID, CategoryID: groceries.ID, LimitCents: 50000})
	diningEnvelope := suite.createTestEnvelope(models.Envelope{BudgetID: budget.ID, CategoryID: dining.ID, LimitCents: 20000})

	transaction := models.Transaction{
		BudgetID:   budget.ID,
		AccountID:  account.ID,
		CategoryID: groceries.ID,
		Type:       models.TransactionTypeExpense,
		Status:     models.TransactionStatusCompleted,
		Date:       time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:     types.NewMoney(7500, "EUR"),
	}
	err := suite.ledger.CreateTransaction(&transaction)
	require.Nil(t, err)

	period := types.NewMonth(2026, 3).Period()

	usage, err := groceriesEnvelope.Usage(models.DB, period)
	require.Nil(t, err)
	assert.Equal(t, types.NewMoney(7500, "EUR"), usage)

	err = suite.ledger.ReclassifyTransaction(transaction.ID, dining.ID)
	require.Nil(t, err)

	usage, err = groceriesEnvelope.Usage(models.DB, period)
	require.Nil(t, err)
	assert.True(t, usage.IsZero())

	usage, err = diningEnvelope.Usage(models.DB, period)
	require.Nil(t, err)
	assert.Equal(t, types.NewMoney(7500, "EUR"), usage)

	// Reclassifying back restores the original usage
	err = suite.ledger.ReclassifyTransaction(transaction.ID, groceries.ID)
	require.Nil(t, err)

	usage, err = groceriesEnvelope.Usage(models.DB, period)
	require.Nil(t, err)
	assert.Equal(t, types.NewMoney(7500, "EUR"), usage)
}

func (suite *TestSuiteStandard) TestReclassifyTransactionBudgetMismatch() {
	budget := suite.createTestBudget(models.Budget{})
	other := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	foreign := suite.createTestCategory(models.Category{BudgetID: other.ID})

	transaction := models.Transaction{
		BudgetID:   budget.ID,
		AccountID:  account.ID,
		CategoryID: category.ID,
		Type:       models.TransactionTypeExpense,
		Amount:     types.NewMoney(100, "EUR"),
	}
	err := suite.ledger.CreateTransaction(&transaction)
	require.Nil(suite.T(), err)

	err = suite.ledger.ReclassifyTransaction(transaction.ID, foreign.ID)
	assert.ErrorIs(suite.T(), err, models.ErrBudgetMismatch)
}

func (suite *TestSuiteStandard) TestTransactionsByAccount() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})

	for _, day := range []int{20, 5, 12} {
		err := suite.ledger.CreateTransaction(&models.Transaction{
			BudgetID:   budget.ID,
			AccountID:  account.ID,
			CategoryID: category.ID,
			Type:       models.TransactionTypeExpense,
			Date:       time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			Amount:     types.NewMoney(100, "EUR"),
		})
		require.Nil(t, err)
	}

	transactions, err := suite.ledger.TransactionsByAccount(account.ID, types.NewMonth(2026, 3).Period())
	require.Nil(t, err)
	require.Len(t, transactions, 3)

	assert.Equal(t, 5, transactions[0].Date.Day())
	assert.Equal(t, 12, transactions[1].Date.Day())
	assert.Equal(t, 20, transactions[2].Date.Day())
}

func (suite *TestSuiteStandard) TestTransactionsByCreditCard() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})
	card := suite.createTestCreditCard(models.CreditCard{BudgetID: budget.ID, ClosingDay: 10, DueDay: 20})

	err := suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:     budget.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		CreditCardID: &card.ID,
		Type:         models.TransactionTypeExpense,
		Date:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Amount:       types.NewMoney(100, "EUR"),
	})
	require.Nil(t, err)

	// Not on the card
	err = suite.ledger.CreateTransaction(&models.Transaction{
		BudgetID:   budget.ID,
		AccountID:  account.ID,
		CategoryID: category.ID,
		Type:       models.TransactionTypeExpense,
		Date:       time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		Amount:     types.NewMoney(100, "EUR"),
	})
	require.Nil(t, err)

	transactions, err := suite.ledger.TransactionsByCreditCard(card.ID, types.NewMonth(2026, 3).Period())
	require.Nil(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, card.ID, *transactions[0].CreditCardID)
}

func (suite *TestSuiteStandard) TestSearchTransactions() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})

	for _, note := range []string{"Supermarket groceries", "Rent March", "More groceries"} {
		err := suite.ledger.CreateTransaction(&models.Transaction{
			BudgetID:   budget.ID,
			AccountID:  account.ID,
			CategoryID: category.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     types.NewMoney(100, "EUR"),
			Note:       note,
		})
		require.Nil(t, err)
	}

	matches, err := suite.ledger.SearchTransactions(budget.ID, "*groceries*")
	require.Nil(t, err)
	assert.Len(t, matches, 2)

	matches, err = suite.ledger.SearchTransactions(budget.ID, "Rent*")
	require.Nil(t, err)
	assert.Len(t, matches, 1)
}

func (suite *TestSuiteStandard) TestMarkOverdueTransactions() {
	t := suite.T()

	budget := suite.createTestBudget(models.Budget{})
	account := suite.createTestAccount(models.Account{BudgetID: budget.ID})
	category := suite.createTestCategory(models.Category{BudgetID: budget.ID})

	past := models.Transaction{
		BudgetID:   budget.ID,
		AccountID:  account.ID,
		CategoryID: category.ID,
		Type:       models.TransactionTypeExpense,
		Date:       time.Now().AddDate(0, 0, -2),
		Amount:     types.NewMoney(100, "EUR"),
	}
	err := suite.ledger.CreateTransaction(&past)
	require.Nil(t, err)

	future := models.Transaction{
		BudgetID:   budget.ID,
		AccountID:  account.ID,
		CategoryID: category.ID,
		Type:       models.TransactionTypeExpense,
		Date:       time.Now().AddDate(0, 0, 2),
		Amount:     types.NewMoney(100, "EUR"),
	}
	err = suite.ledger.CreateTransaction(&future)
	require.Nil(t, err)

	marked, err := suite.ledger.MarkOverdueTransactions(time.Now())
	require.Nil(t, err)
	assert.Equal(t, int64(1), marked)

	var reloaded models.Transaction
	require.Nil(t, models.DB.First(&reloaded, past.ID).Error)
	assert.Equal(t, models.TransactionStatusOverdue, reloaded.Status)

	reloaded = models.Transaction{}
	require.Nil(t, models.DB.First(&reloaded, future.ID).Error)
	assert.Equal(t, models.TransactionStatusScheduled, reloaded.Status)

	// An overdue transaction can still be completed
	err = suite.ledger.UpdateTransactionStatus(past.ID, models.TransactionStatusCompleted)
	assert.Nil(t, err)
}
