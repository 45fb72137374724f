package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	// ErrBudgetMismatch is returned when a resource references another
	// resource from a different budget. Budgets are the tenancy boundary,
	// references never cross it.
	ErrBudgetMismatch = errors.New("the referenced resource belongs to a different budget")
)
