package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/domain"
)

type analyticsService struct {
	tracker  *analytics.Tracker
	observer UseCaseObserver
}

// NewAnalyticsService reads and clears the analytics store. A nil tracker
// (analytics disabled) makes every call fail with ErrAnalyticsDisabled,
// except RecordConversion which becomes a no-op.
func NewAnalyticsService(tracker *analytics.Tracker, observers ...UseCaseObserver) AnalyticsService {
	return &analyticsService{tracker: tracker, observer: useCaseObserverOrNoop(observers)}
}

func (s *analyticsService) Sessions(ctx context.Context, limit int) (sessions []domain.AnalyticsSession, err error) {
	fields := map[string]any{"limit": limit}
	defer observe(ctx, s.observer, "list-sessions", fields, &err)()
	if s.tracker == nil {
		return nil, ErrAnalyticsDisabled
	}
	sessions, err = s.tracker.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	fields["sessions"] = len(sessions)
	return sessions, nil
}

func (s *analyticsService) Stats(ctx context.Context) (stats domain.AnalyticsStats, err error) {
	defer observe(ctx, s.observer, "analytics-stats", nil, &err)()
	if s.tracker == nil {
		return domain.AnalyticsStats{}, ErrAnalyticsDisabled
	}
	stats, err = s.tracker.Stats(ctx)
	if err != nil {
		return domain.AnalyticsStats{}, fmt.Errorf("computing stats: %w", err)
	}
	return stats, nil
}

func (s *analyticsService) Clear(ctx context.Context) (err error) {
	defer observe(ctx, s.observer, "clear-analytics", nil, &err)()
	if s.tracker == nil {
		return ErrAnalyticsDisabled
	}
	if err = s.tracker.Clear(ctx); err != nil {
		return fmt.Errorf("clearing analytics: %w", err)
	}
	return nil
}

func (s *analyticsService) RecordConversion(ctx context.Context, session *analytics.Session, courseName string) (err error) {
	defer observe(ctx, s.observer, "record-conversion", map[string]any{"course": courseName}, &err)()
	if s.tracker == nil {
		return nil
	}
	return s.tracker.LogConversion(ctx, session, courseName)
}
