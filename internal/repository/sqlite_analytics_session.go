package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/alexanderramin/coursechat/internal/db"
	"github.com/alexanderramin/coursechat/internal/domain"
)

type SQLiteAnalyticsSessionRepo struct {
	db db.DBTX
}

func NewSQLiteAnalyticsSessionRepo(conn db.DBTX) *SQLiteAnalyticsSessionRepo {
	return &SQLiteAnalyticsSessionRepo{db: conn}
}

const sessionColumns = `id, client_tag, start_time, end_time, duration_seconds, converted, clicked_course`

func (r *SQLiteAnalyticsSessionRepo) Create(ctx context.Context, s *domain.AnalyticsSession) error {
	query := `INSERT INTO analytics_sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	var endTime any
	if s.EndTime != nil {
		endTime = formatTime(*s.EndTime)
	}
	var clicked any
	if s.ClickedCourse != "" {
		clicked = s.ClickedCourse
	}
	_, err := r.db.ExecContext(ctx, query,
		s.SessionID,
		s.ClientTag,
		formatTime(s.StartTime),
		endTime,
		s.DurationSeconds,
		boolToInt(s.Converted),
		clicked,
	)
	if err != nil {
		return fmt.Errorf("inserting analytics session: %w", err)
	}
	return nil
}

func (r *SQLiteAnalyticsSessionRepo) GetByID(ctx context.Context, id string) (*domain.AnalyticsSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM analytics_sessions WHERE id = ?`, id)
	s, err := scanAnalyticsSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analytics session %s: %w", id, ErrNotFound)
	}
	return s, err
}

// Update writes the end time and duration, and the conversion fields when
// set. Conversion is sticky: a converted session never reverts.
func (r *SQLiteAnalyticsSessionRepo) Update(ctx context.Context, id string, u SessionUpdate) error {
	query := `UPDATE analytics_sessions SET
		end_time = ?,
		duration_seconds = ?,
		converted = MAX(converted, COALESCE(?, converted)),
		clicked_course = COALESCE(?, clicked_course)
		WHERE id = ?`
	var converted, clicked any
	if u.Converted != nil {
		converted = boolToInt(*u.Converted)
	}
	if u.ClickedCourse != nil {
		clicked = *u.ClickedCourse
	}
	res, err := r.db.ExecContext(ctx, query, formatTime(u.EndTime), u.DurationSeconds, converted, clicked, id)
	if err != nil {
		return fmt.Errorf("updating analytics session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating analytics session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analytics session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteAnalyticsSessionRepo) List(ctx context.Context, limit int) ([]*domain.AnalyticsSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM analytics_sessions ORDER BY start_time DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analytics sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.AnalyticsSession
	for rows.Next() {
		s, err := scanAnalyticsSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analytics sessions: %w", err)
	}
	return out, nil
}

// Stats computes totals over every stored session. Rates and averages are
// zero when there are no sessions.
func (r *SQLiteAnalyticsSessionRepo) Stats(ctx context.Context) (domain.AnalyticsStats, error) {
	var visits, conversions int
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(converted), 0), AVG(duration_seconds) FROM analytics_sessions`,
	).Scan(&visits, &conversions, &avg)
	if err != nil {
		return domain.AnalyticsStats{}, fmt.Errorf("computing analytics stats: %w", err)
	}
	stats := domain.AnalyticsStats{TotalVisits: visits, TotalConversions: conversions}
	if visits > 0 {
		stats.ConversionRate = float64(conversions) / float64(visits) * 100
		stats.AvgDurationSeconds = int(math.Round(avg.Float64))
	}
	return stats, nil
}

func (r *SQLiteAnalyticsSessionRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM analytics_sessions`); err != nil {
		return fmt.Errorf("clearing analytics sessions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalyticsSession(row rowScanner) (*domain.AnalyticsSession, error) {
	var s domain.AnalyticsSession
	var start string
	var end, clicked sql.NullString
	var converted int
	err := row.Scan(&s.SessionID, &s.ClientTag, &start, &end, &s.DurationSeconds, &converted, &clicked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning analytics session: %w", err)
	}
	if s.StartTime, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	s.EndTime = parseNullableTime(end)
	s.Converted = intToBool(converted)
	s.ClickedCourse = clicked.String
	return &s, nil
}
