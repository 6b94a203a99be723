// Package api defines the request and response messages exchanged with the
// mobile client. Messages are plain structs encoded as JSON; amounts are
// decimal strings.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the public part of a profile.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SignUpResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetSessionResponse struct {
	User *User `json:"user"`
}

// Balance is the net amount between the viewer and one other user.
// Positive amounts are owed to the viewer.
type Balance struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Amount   decimal.Decimal `json:"amount"`
	Summary  string          `json:"summary"`
}

// RecentExpense is one row of the home screen's recent activity list.
type RecentExpense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PaidByName  string          `json:"paid_by_name"`
	GroupName   string          `json:"group_name,omitempty"`
}

type GetHomeResponse struct {
	Balances       []Balance       `json:"balances"`
	TotalOwed      decimal.Decimal `json:"total_owed"`
	TotalOwedToYou decimal.Decimal `json:"total_owed_to_you"`
	RecentExpenses []RecentExpense `json:"recent_expenses"`
}

// ActivityItem is one row of the activity feed. Type is "expense" or "settlement".
type ActivityItem struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PaidByName  string          `json:"paid_by_name"`
	GroupName   string          `json:"group_name,omitempty"`
}

type GetActivityResponse struct {
	Items []ActivityItem `json:"items"`
}

type Split struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateExpenseRequest records an expense. Either Splits or SplitAmong must be
// set; SplitAmong divides Amount evenly. PaidBy defaults to the caller.
type CreateExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by,omitempty"`
	GroupID     string          `json:"group_id,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
	Splits      []Split         `json:"splits,omitempty"`
	SplitAmong  []string        `json:"split_among,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	Date        time.Time       `json:"date"`
	GroupID     string          `json:"group_id,omitempty"`
	Splits      []Split         `json:"splits"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type RecordSettlementRequest struct {
	ToUser  string          `json:"to_user"`
	Amount  decimal.Decimal `json:"amount"`
	Note    string          `json:"note,omitempty"`
	GroupID string          `json:"group_id,omitempty"`
	Date    *time.Time      `json:"date,omitempty"`
}

type Settlement struct {
	ID       string          `json:"id"`
	FromUser string          `json:"from_user"`
	ToUser   string          `json:"to_user"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Note     string          `json:"note,omitempty"`
	GroupID  string          `json:"group_id,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type Group struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	MemberCount   int             `json:"member_count"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	CreatedAt     int64           `json:"created_at"`
}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type GetProfileResponse struct {
	Profile *Profile `json:"profile"`
}
