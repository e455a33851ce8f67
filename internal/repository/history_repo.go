package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"

	"candlebliss-api/internal/model"
)

// MaxHistoryValueLength bounds a stored search term or gift id
const MaxHistoryValueLength = 200

var (
	ErrInvalidHistoryKind  = errors.New("unknown history kind")
	ErrInvalidHistoryValue = errors.New("history value must be 1-200 characters")
)

// HistoryRepository stores per-user gift search and view history lists.
// Each list keeps its most recently used entries up to the kind's cap.
// Concurrent writers from several tabs or devices are not coordinated: the
// last write of an entry wins, and the cap is enforced after every write.
type HistoryRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Touch moves value to the front of the list, inserting it if new, and
// drops the least recently used entries beyond the cap
func (r *HistoryRepository) Touch(ctx context.Context, userID int64, kind model.HistoryKind, value string) error {
	value, err := validateHistory(kind, value)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO user_history (user_id, kind, value, touched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, kind, value) DO UPDATE SET touched_at = EXCLUDED.touched_at
	`, userID, string(kind), value, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to touch history: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM user_history
		WHERE user_id = $1 AND kind = $2 AND value NOT IN (
			SELECT value FROM user_history
			WHERE user_id = $1 AND kind = $2
			ORDER BY touched_at DESC, value
			LIMIT $3
		)
	`, userID, string(kind), kind.Cap())
	if err != nil {
		return fmt.Errorf("failed to truncate history: %w", err)
	}

	return tx.Commit(ctx)
}

// List returns the list of a user, most recent first
func (r *HistoryRepository) List(ctx context.Context, userID int64, kind model.HistoryKind) ([]model.HistoryEntry, error) {
	if !kind.Valid() {
		return nil, ErrInvalidHistoryKind
	}

	rows, err := r.db.Query(ctx, `
		SELECT value, touched_at FROM user_history
		WHERE user_id = $1 AND kind = $2
		ORDER BY touched_at DESC, value
		LIMIT $3
	`, userID, string(kind), kind.Cap())
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.Value, &e.TouchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Clear empties a list
func (r *HistoryRepository) Clear(ctx context.Context, userID int64, kind model.HistoryKind) error {
	if !kind.Valid() {
		return ErrInvalidHistoryKind
	}
	_, err := r.db.Exec(ctx, `DELETE FROM user_history WHERE user_id = $1 AND kind = $2`, userID, string(kind))
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func validateHistory(kind model.HistoryKind, value string) (string, error) {
	if !kind.Valid() {
		return "", ErrInvalidHistoryKind
	}
	value = strings.TrimSpace(value)
	if value == "" || utf8.RuneCountInString(value) > MaxHistoryValueLength {
		return "", ErrInvalidHistoryValue
	}
	return value, nil
}
