package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Date.IsZero() {
		settlement.Date = fromUnix(settlement.CreatedAt)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, from_user, to_user, amount, date, note, group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.FromUserID, settlement.ToUserID, settlement.Amount,
		settlement.Date.Unix(), nullable(settlement.Note), nullable(settlement.GroupID), settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// ListSettlementsForUser retrieves settlements the user paid or received.
func (s *SQLiteStore) ListSettlementsForUser(ctx context.Context, userID string, limit int) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.id, st.from_user, COALESCE(f.full_name, ''), st.to_user, COALESCE(t.full_name, ''),
		       st.amount, st.date, st.note, COALESCE(st.group_id, ''), COALESCE(g.name, ''), st.created_at
		FROM settlements st
		LEFT JOIN users f ON f.id = st.from_user
		LEFT JOIN users t ON t.id = st.to_user
		LEFT JOIN groups g ON g.id = st.group_id
		WHERE st.from_user = ? OR st.to_user = ?
		ORDER BY st.date DESC, st.rowid DESC
		LIMIT ?`,
		userID, userID, sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var date int64
		var note sql.NullString

		if err := rows.Scan(&settlement.ID, &settlement.FromUserID, &settlement.FromName,
			&settlement.ToUserID, &settlement.ToName, &settlement.Amount, &date, &note,
			&settlement.GroupID, &settlement.GroupName, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		settlement.Date = fromUnix(date)
		if note.Valid {
			settlement.Note = note.String
		}

		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
