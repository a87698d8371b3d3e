package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
)

var ErrNotFound = errors.New("not found")

// SessionUpdate is the mutable part of an analytics session row.
type SessionUpdate struct {
	EndTime         time.Time
	DurationSeconds int
	Converted       *bool
	ClickedCourse   *string
}

type AnalyticsSessionRepo interface {
	Create(ctx context.Context, s *domain.AnalyticsSession) error
	GetByID(ctx context.Context, id string) (*domain.AnalyticsSession, error)
	Update(ctx context.Context, id string, u SessionUpdate) error
	// List returns sessions newest first without their searches.
	List(ctx context.Context, limit int) ([]*domain.AnalyticsSession, error)
	Stats(ctx context.Context) (domain.AnalyticsStats, error)
	DeleteAll(ctx context.Context) error
}

type SearchIntentRepo interface {
	Append(ctx context.Context, s *domain.SearchIntent) error
	// Last returns the most recent intent of a session or ErrNotFound.
	Last(ctx context.Context, sessionID string) (*domain.SearchIntent, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.SearchIntent, error)
}
