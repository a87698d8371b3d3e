// Package catalog holds the course offerings fetched from the provider's
// feed. A loaded catalog is read-only and safe to share between exchanges.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
)

// Admit keeps offerings whose start date parses and is not before today's
// date, sorted ascending by date. The sort is stable so feed order breaks ties.
func Admit(offerings []domain.CourseOffering, now time.Time) []domain.CourseOffering {
	today := StartOfDay(now)
	out := make([]domain.CourseOffering, 0, len(offerings))
	for _, o := range offerings {
		d, ok := ParseCourseDate(o.StartDate)
		if !ok || d.Before(today) {
			continue
		}
		o.Date = d
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Load fetches, decodes and admits the feed. Malformed records are logged
// to logger and dropped.
func Load(ctx context.Context, src Source, now time.Time, logger *slog.Logger) ([]domain.CourseOffering, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog from %s: %w", src.Name(), err)
	}
	offerings, err := DecodeFeed(raw, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return Admit(offerings, now), nil
}

type Store struct {
	src    Source
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	courses  []domain.CourseOffering
	index    map[int]int
	loadedAt time.Time
}

func NewStore(src Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{src: src, logger: logger, now: time.Now, index: map[int]int{}}
}

// NewStaticStore wraps an already admitted list, mainly for tests and for
// tools that search a fixed snapshot.
func NewStaticStore(courses []domain.CourseOffering) *Store {
	s := &Store{logger: slog.New(slog.DiscardHandler), now: time.Now}
	s.set(courses)
	return s
}

// Refresh reloads the catalog. A failed load leaves the store empty and is
// only logged: an empty catalog means "not yet available", not an error.
func (s *Store) Refresh(ctx context.Context) int {
	if s.src == nil {
		return s.Len()
	}
	courses, err := Load(ctx, s.src, s.now(), s.logger)
	if err != nil {
		s.logger.Warn("catalog load failed", "source", s.src.Name(), "error", err)
		courses = nil
	}
	s.set(courses)
	s.logger.Info("catalog loaded", "source", s.src.Name(), "courses", len(courses))
	return len(courses)
}

func (s *Store) set(courses []domain.CourseOffering) {
	index := make(map[int]int, len(courses))
	for i, c := range courses {
		if _, dup := index[c.ID]; !dup {
			index[c.ID] = i
		}
	}
	s.mu.Lock()
	s.courses = courses
	s.index = index
	s.loadedAt = s.now()
	s.mu.Unlock()
}

// All returns the catalog in date order. Callers must not modify the slice.
func (s *Store) All() []domain.CourseOffering {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.courses
}

func (s *Store) ByID(id int) (domain.CourseOffering, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.CourseOffering{}, false
	}
	return s.courses[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// ResolveCards maps suggested ids to offerings for display. Unknown ids are
// dropped and sessions sharing name, start date and venue collapse to the
// first occurrence.
func (s *Store) ResolveCards(ids []int) []domain.CourseOffering {
	seen := make(map[string]bool, len(ids))
	out := make([]domain.CourseOffering, 0, len(ids))
	for _, id := range ids {
		c, ok := s.ByID(id)
		if !ok {
			continue
		}
		key := c.CardKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// KnownIDs filters ids down to those present in the catalog, keeping order.
func (s *Store) KnownIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.ByID(id); ok {
			out = append(out, id)
		}
	}
	return out
}
