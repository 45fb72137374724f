package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centavo/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountType describes where the money of an account is physically held.
type AccountType string

const (
	AccountTypeChecking      AccountType = "CHECKING"
	AccountTypeSavings       AccountType = "SAVINGS"
	AccountTypeCash          AccountType = "CASH"
	AccountTypeDigitalWallet AccountType = "DIGITAL_WALLET"
	AccountTypeInvestment    AccountType = "INVESTMENT"
	AccountTypeOther         AccountType = "OTHER"
)

// Account represents a place where money is held, e.g. a bank account.
//
// The account does not store its balance. Balances are always derived from
// the completed transactions on the account, see TotalBalance.
type Account struct {
	DefaultModel
	Budget   Budget    `json:"-"`
	BudgetID uuid.UUID `gorm:"uniqueIndex:account_name_budget_id"`
	Name     string    `gorm:"uniqueIndex:account_name_budget_id"`
	Note     string
	Type     AccountType
	Currency string
	Archived bool
}

var (
	ErrAccountNameNotUnique = errors.New("the account name must be unique for the budget")
	ErrAccountTypeInvalid   = errors.New("the account type is invalid")
)

// BeforeSave trims whitespace and verifies the account type.
func (a *Account) BeforeSave(_ *gorm.DB) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Note = strings.TrimSpace(a.Note)

	if a.Type == "" {
		a.Type = AccountTypeOther
	}

	switch a.Type {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCash,
		AccountTypeDigitalWallet, AccountTypeInvestment, AccountTypeOther:
	default:
		return fmt.Errorf("%w: %s", ErrAccountTypeInvalid, a.Type)
	}

	return nil
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*Account)
	return a.checkIntegrity(tx, toSave)
}

// BeforeUpdate verifies the state of the account before
// committing an update to the database.
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("BudgetID") {
		toSave := tx.Statement.Dest.(Account)
		return a.checkIntegrity(tx, &toSave)
	}

	return nil
}

// checkIntegrity verifies references to other resources. The currency
// defaults to the budget's currency.
func (a *Account) checkIntegrity(tx *gorm.DB, toSave *Account) error {
	var budget Budget
	err := tx.First(&budget, toSave.BudgetID).Error
	if err != nil {
		return err
	}

	if toSave.Currency == "" {
		toSave.Currency = budget.Currency
	}

	return nil
}

// Transactions returns all transactions on this account.
func (a Account) Transactions(db *gorm.DB) ([]Transaction, error) {
	var transactions []Transaction

	err := db.Where(&Transaction{AccountID: a.ID}).Find(&transactions).Error
	return transactions, err
}

// TotalBalance calculates the balance of the account.
//
// The balance is the signed sum over all completed transactions on the
// account. Income and incoming transfers add, expenses and outgoing
// transfers subtract. Scheduled, overdue and cancelled transactions do not
// contribute. An account without transactions has a balance of zero.
func (a Account) TotalBalance(db *gorm.DB) (types.Money, error) {
	var transactions []Transaction

	err := db.
		Where(&Transaction{AccountID: a.ID, Status: TransactionStatusCompleted}).
		Find(&transactions).Error
	if err != nil {
		return types.Money{}, err
	}

	balance := types.ZeroMoney(a.Currency)
	for _, t := range transactions {
		balance, err = balance.Add(t.SignedAmount())
		if err != nil {
			return types.Money{}, err
		}
	}

	return balance, nil
}

// AvailableBalance calculates the balance that is not reserved by a goal.
//
// Every active goal sourced from this account reserves its current amount
// against the balance.
func (a Account) AvailableBalance(db *gorm.DB) (types.Money, error) {
	balance, err := a.TotalBalance(db)
	if err != nil {
		return types.Money{}, err
	}

	var goals []Goal
	err = db.
		Where(&Goal{SourceAccountID: a.ID, Status: GoalStatusActive}).
		Find(&goals).Error
	if err != nil {
		return types.Money{}, err
	}

	for _, goal := range goals {
		balance, err = balance.Sub(goal.CurrentAmount)
		if err != nil {
			return types.Money{}, err
		}
	}

	return balance, nil
}
