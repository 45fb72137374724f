package models

import (
	"strings"

	"gorm.io/gorm"
)

// Budget represents a budget.
//
// A budget is the multi-tenancy boundary of the ledger. All other resources
// reference it directly and references never cross budgets.
type Budget struct {
	DefaultModel
	Name     string
	Note     string
	Currency string // ISO 4217 code, the default currency for new accounts
}

// BeforeSave trims whitespace and defaults the currency.
func (b *Budget) BeforeSave(_ *gorm.DB) error {
	b.Name = strings.TrimSpace(b.Name)
	b.Note = strings.TrimSpace(b.Note)

	if b.Currency == "" {
		b.Currency = "EUR"
	}

	return nil
}
