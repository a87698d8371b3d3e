// Package analytics records anonymous chat sessions: when they started, what
// people searched for, and whether they opened a course.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/db"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/repository"
	"github.com/google/uuid"
)

// Session is the handle returned by InitSession and threaded through every
// later call. A nil *Session turns tracking calls into no-ops.
type Session struct {
	ID        string
	ClientTag string
	StartedAt time.Time
}

// SessionView is a stored session together with its searches.
type SessionView = domain.AnalyticsSession

type Tracker struct {
	uow    db.UnitOfWork
	conn   db.DBTX
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewTracker builds a tracker over an opened analytics database.
func NewTracker(uow db.UnitOfWork, conn db.DBTX, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		uow:    uow,
		conn:   conn,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		logger: logger,
	}
}

// InitSession starts a new tracked session.
func (t *Tracker) InitSession(ctx context.Context, clientTag string) (*Session, error) {
	s := &Session{ID: t.newID(), ClientTag: clientTag, StartedAt: t.now()}
	err := repository.NewSQLiteAnalyticsSessionRepo(t.conn).Create(ctx, &domain.AnalyticsSession{
		SessionID: s.ID,
		ClientTag: clientTag,
		StartTime: s.StartedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("init analytics session: %w", err)
	}
	t.logger.Debug("analytics session started", "session", s.ID, "client", clientTag)
	return s, nil
}

// LogSearch appends a search intent unless it repeats the session's
// previous one. Blank term and period fall back to the defaults.
func (t *Tracker) LogSearch(ctx context.Context, s *Session, term, period string) error {
	if s == nil {
		return nil
	}
	intent := domain.SearchIntent{
		SessionID: s.ID,
		Term:      domain.CoalesceStr(strings.TrimSpace(term), domain.DefaultSearchTerm),
		Period:    domain.CoalesceStr(strings.TrimSpace(period), domain.DefaultSearchPeriod),
		Timestamp: t.now(),
	}
	return t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteSearchIntentRepo(tx)
		last, err := repo.Last(ctx, s.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		case last.SameAs(intent):
			return nil
		}
		return repo.Append(ctx, &intent)
	})
}

// LogConversion marks the session as converted on courseName.
func (t *Tracker) LogConversion(ctx context.Context, s *Session, courseName string) error {
	if s == nil {
		return nil
	}
	converted := true
	return t.update(ctx, s, &converted, &courseName)
}

// Touch records the session's end time and duration as of now.
func (t *Tracker) Touch(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	return t.update(ctx, s, nil, nil)
}

// Close is the final Touch of a session.
func (t *Tracker) Close(ctx context.Context, s *Session) error {
	if err := t.Touch(ctx, s); err != nil {
		return err
	}
	if s != nil {
		t.logger.Debug("analytics session closed", "session", s.ID)
	}
	return nil
}

func (t *Tracker) update(ctx context.Context, s *Session, converted *bool, clicked *string) error {
	now := t.now()
	err := repository.NewSQLiteAnalyticsSessionRepo(t.conn).Update(ctx, s.ID, repository.SessionUpdate{
		EndTime:         now,
		DurationSeconds: int(now.Sub(s.StartedAt) / time.Second),
		Converted:       converted,
		ClickedCourse:   clicked,
	})
	if errors.Is(err, repository.ErrNotFound) {
		// Cleared from the dashboard while the chat was open.
		t.logger.Debug("analytics session no longer stored", "session", s.ID)
		return nil
	}
	return err
}

// List returns up to limit sessions newest first, each with its searches.
// limit <= 0 returns all of them.
func (t *Tracker) List(ctx context.Context, limit int) ([]SessionView, error) {
	var out []SessionView
	err := t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sessions, err := repository.NewSQLiteAnalyticsSessionRepo(tx).List(ctx, limit)
		if err != nil {
			return err
		}
		intents := repository.NewSQLiteSearchIntentRepo(tx)
		out = make([]SessionView, 0, len(sessions))
		for _, s := range sessions {
			if s.Searches, err = intents.ListBySession(ctx, s.SessionID); err != nil {
				return err
			}
			out = append(out, *s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list analytics sessions: %w", err)
	}
	return out, nil
}

func (t *Tracker) Stats(ctx context.Context) (domain.AnalyticsStats, error) {
	return repository.NewSQLiteAnalyticsSessionRepo(t.conn).Stats(ctx)
}

// Clear deletes every session and its searches.
func (t *Tracker) Clear(ctx context.Context) error {
	if err := repository.NewSQLiteAnalyticsSessionRepo(t.conn).DeleteAll(ctx); err != nil {
		return err
	}
	t.logger.Info("analytics cleared")
	return nil
}
