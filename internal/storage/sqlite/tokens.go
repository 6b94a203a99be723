package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RevokeToken records a signed-out token ID until it expires.
// Rows for tokens that have already expired are pruned on the way.
func (s *SQLiteStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM revoked_tokens WHERE expires_at < ?", time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to prune revoked tokens: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO revoked_tokens (id, expires_at) VALUES (?, ?)",
		tokenID, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token ID was signed out.
func (s *SQLiteStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE id = ?", tokenID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return true, nil
}
