package models

import "github.com/shopspring/decimal"

// Group represents a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the creator. The creator is always a member.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupSummary is a group as listed for one of its members.
type GroupSummary struct {
	Group

	// MemberCount is the number of users in the group.
	MemberCount int

	// TotalExpenses is the sum of all expense amounts recorded in the group.
	TotalExpenses decimal.Decimal
}
