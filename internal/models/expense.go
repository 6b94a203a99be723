package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a payment made by one user on behalf of several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is what the money was spent on (e.g., "Groceries").
	Description string

	// Amount is the total paid. Never negative.
	Amount decimal.Decimal

	// PaidBy is the user ID of the payer.
	PaidBy string

	// PaidByName is the payer's full name, filled in on reads.
	PaidByName string

	// Splits are the per-user shares, in the order they were recorded.
	// Their sum is expected to equal Amount.
	Splits []Split

	// Date is when the expense happened. Used for ordering only.
	Date time.Time

	// GroupID optionally ties the expense to a group.
	GroupID string

	// GroupName is filled in on reads when GroupID is set.
	GroupName string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one participant's share of an expense.
type Split struct {
	UserID string
	Amount decimal.Decimal
}
