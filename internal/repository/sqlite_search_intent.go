package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/coursechat/internal/db"
	"github.com/alexanderramin/coursechat/internal/domain"
)

type SQLiteSearchIntentRepo struct {
	db db.DBTX
}

func NewSQLiteSearchIntentRepo(conn db.DBTX) *SQLiteSearchIntentRepo {
	return &SQLiteSearchIntentRepo{db: conn}
}

// Append stores s and sets its ID.
func (r *SQLiteSearchIntentRepo) Append(ctx context.Context, s *domain.SearchIntent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO search_intents (session_id, term, period, created_at) VALUES (?, ?, ?, ?)`,
		s.SessionID, s.Term, s.Period, formatTime(s.Timestamp))
	if err != nil {
		return fmt.Errorf("inserting search intent: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading search intent id: %w", err)
	}
	return nil
}

func (r *SQLiteSearchIntentRepo) Last(ctx context.Context, sessionID string) (*domain.SearchIntent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, term, period, created_at FROM search_intents
		WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sessionID)
	s, err := scanSearchIntent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("search intent for %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListBySession returns a session's intents in the order they were logged.
func (r *SQLiteSearchIntentRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.SearchIntent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, term, period, created_at FROM search_intents
		WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing search intents: %w", err)
	}
	defer rows.Close()

	out := []domain.SearchIntent{}
	for rows.Next() {
		s, err := scanSearchIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search intents: %w", err)
	}
	return out, nil
}

func scanSearchIntent(row rowScanner) (domain.SearchIntent, error) {
	var s domain.SearchIntent
	var created string
	if err := row.Scan(&s.ID, &s.SessionID, &s.Term, &s.Period, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scanning search intent: %w", err)
	}
	ts, err := parseTime(created)
	if err != nil {
		return s, fmt.Errorf("parsing created_at: %w", err)
	}
	s.Timestamp = ts
	return s, nil
}
