package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group along with its members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, memberIDs []string) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, userID := range memberIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			group.ID, userID, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_by, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// IsGroupMember reports whether userID belongs to groupID.
func (s *SQLiteStore) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return true, nil
}

// ListGroupsForUser retrieves every group the user belongs to.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at,
		       (SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id)
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at DESC, g.rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.GroupSummary
	for rows.Next() {
		summary := &models.GroupSummary{}
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Description,
			&summary.CreatedBy, &summary.CreatedAt, &summary.MemberCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, summary)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for _, summary := range groups {
		total, err := s.groupExpenseTotal(ctx, summary.ID)
		if err != nil {
			return nil, err
		}
		summary.TotalExpenses = total
	}

	return groups, nil
}

// groupExpenseTotal sums expense amounts in Go; SQL SUM over TEXT would go through floats.
func (s *SQLiteStore) groupExpenseTotal(ctx context.Context, groupID string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT amount FROM expenses WHERE group_id = ?", groupID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get group expenses: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan expense amount: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate expense amounts: %w", err)
	}

	return total, nil
}
