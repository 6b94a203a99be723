package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date.IsZero() {
		expense.Date = fromUnix(expense.CreatedAt)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, paid_by, date, group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount, expense.PaidBy,
		expense.Date.Unix(), nullable(expense.GroupID), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, position, user_id, amount) VALUES (?, ?, ?, ?)",
			expense.ID, i, split.UserID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListExpenses retrieves the expenses visible to filter.UserID, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]*models.Expense, error) {
	holdsSplit := `EXISTS (SELECT 1 FROM expense_splits sp WHERE sp.expense_id = e.id AND sp.user_id = ?)`
	where := `(e.paid_by = ? OR ` + holdsSplit + `)`
	args := []interface{}{filter.UserID, filter.UserID}
	if filter.SplitHolderOnly {
		where = holdsSplit
		args = []interface{}{filter.UserID}
	}
	args = append(args, sqlLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.description, e.amount, e.paid_by, COALESCE(u.full_name, ''),
		       e.date, COALESCE(e.group_id, ''), COALESCE(g.name, ''), e.created_at
		FROM expenses e
		LEFT JOIN users u ON u.id = e.paid_by
		LEFT JOIN groups g ON g.id = e.group_id
		WHERE `+where+`
		ORDER BY e.date DESC, e.rowid DESC
		LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var date int64
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.PaidBy,
			&expense.PaidByName, &date, &expense.GroupID, &expense.GroupName, &expense.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Date = fromUnix(date)
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}

	return expenses, nil
}

// splitBatchSize caps the ids bound per split query, well under SQLite's
// host parameter limit.
var splitBatchSize = 500

// loadSplits fills in Splits for every expense, querying in batches of
// splitBatchSize ids.
func (s *SQLiteStore) loadSplits(ctx context.Context, expenses []*models.Expense) error {
	byID := make(map[string]*models.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	for start := 0; start < len(expenses); start += splitBatchSize {
		end := min(start+splitBatchSize, len(expenses))
		if err := s.loadSplitBatch(ctx, byID, expenses[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) loadSplitBatch(ctx context.Context, byID map[string]*models.Expense, batch []*models.Expense) error {
	args := make([]interface{}, len(batch))
	for i, e := range batch {
		args[i] = e.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount FROM expense_splits
		 WHERE expense_id IN (`+placeholders(len(args))+`)
		 ORDER BY expense_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var split models.Split
		if err := rows.Scan(&expenseID, &split.UserID, &split.Amount); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		expense := byID[expenseID]
		expense.Splits = append(expense.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	return nil
}
