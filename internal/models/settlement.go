package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement represents a direct payment from one user to another.
// Settlements show up in the activity feed; they do not change balances.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// FromUserID is the user who paid.
	FromUserID string

	// FromName is the payer's full name, filled in on reads.
	FromName string

	// ToUserID is the user who received the payment.
	ToUserID string

	// ToName is the receiver's full name, filled in on reads.
	ToName string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// Date is when the payment happened.
	Date time.Time

	// Note is an optional description for the settlement.
	Note string

	// GroupID optionally ties the settlement to a group.
	GroupID string

	// GroupName is filled in on reads when GroupID is set.
	GroupName string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
