package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryKind classifies what a category is spent on.
type CategoryKind string

const (
	CategoryKindNeed     CategoryKind = "NEED"
	CategoryKindWant     CategoryKind = "WANT"
	CategoryKindPriority CategoryKind = "PRIORITY"
)

// Category classifies transactions. Envelope usage is derived from the
// transactions in a category.
type Category struct {
	DefaultModel
	Budget   Budget    `json:"-"`
	BudgetID uuid.UUID `gorm:"uniqueIndex:category_name_budget_id"`
	Name     string    `gorm:"uniqueIndex:category_name_budget_id"`
	Note     string
	Kind     CategoryKind
	Archived bool
}

var (
	ErrCategoryNameNotUnique = errors.New("the category name must be unique for the budget")
	ErrCategoryKindInvalid   = errors.New("the category kind is invalid")
)

// BeforeSave trims whitespace and verifies the kind.
func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)

	if c.Kind == "" {
		c.Kind = CategoryKindNeed
	}

	switch c.Kind {
	case CategoryKindNeed, CategoryKindWant, CategoryKindPriority:
	default:
		return fmt.Errorf("%w: %s", ErrCategoryKindInvalid, c.Kind)
	}

	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	_ = c.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*Category)
	return c.checkIntegrity(tx, *toSave)
}

// BeforeUpdate verifies the state of the category before
// committing an update to the database.
func (c *Category) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("BudgetID") {
		toSave := tx.Statement.Dest.(Category)
		return c.checkIntegrity(tx, toSave)
	}

	return nil
}

// checkIntegrity verifies references to other resources
func (c *Category) checkIntegrity(tx *gorm.DB, toSave Category) error {
	return tx.First(&Budget{}, toSave.BudgetID).Error
}
