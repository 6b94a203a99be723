// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists user profiles.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their memberships.
type GroupStore interface {
	// CreateGroup persists a group and adds memberIDs as members.
	// group.ID and group.CreatedAt are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group, memberIDs []string) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)

	// ListGroupsForUser returns every group userID belongs to, newest first,
	// with member counts and expense totals.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error)
}

// ExpenseFilter selects the expenses visible to one user.
type ExpenseFilter struct {
	// UserID is the viewer. Expenses they paid or hold a split in match.
	UserID string

	// SplitHolderOnly drops expenses where UserID is only the payer.
	SplitHolderOnly bool

	// Limit caps the number of expenses returned. Zero means no limit.
	Limit int
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	// CreateExpense persists an expense and its splits atomically.
	// expense.ID and expense.CreatedAt are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpenses returns matching expenses newest first, with payer and
	// group names and splits in recorded order.
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.Expense, error)
}

// SettlementStore persists direct payments between users.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsForUser returns settlements userID paid or received,
	// newest first. Zero limit means no limit.
	ListSettlementsForUser(ctx context.Context, userID string, limit int) ([]*models.Settlement, error)
}

// TokenStore tracks signed-out session tokens until they expire.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Store defines the full storage surface used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	SettlementStore
	TokenStore

	// Close releases any resources held by the store.
	Close() error
}
