package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/search"
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrAnalyticsDisabled = errors.New("analytics is disabled")
)

// SearchQuery is a direct (model-free) catalog search. ExpandRegions
// replaces region names such as "London" with their venue list first.
type SearchQuery struct {
	domain.SearchCriteria
	ExpandRegions bool
}

type CourseDetail struct {
	Query string `json:"query"`
	Key   string `json:"key,omitempty"`
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

type CatalogStatus struct {
	Courses  int       `json:"courses"`
	LoadedAt time.Time `json:"loadedAt"`
}

type CourseService interface {
	List(ctx context.Context) []domain.CourseOffering
	Get(ctx context.Context, id int) (domain.CourseOffering, bool)
	Search(ctx context.Context, q SearchQuery) (search.Result, error)
	Details(ctx context.Context, courseType string) CourseDetail
	Refresh(ctx context.Context) CatalogStatus
	Status() CatalogStatus
}

type AnalyticsService interface {
	Sessions(ctx context.Context, limit int) ([]domain.AnalyticsSession, error)
	Stats(ctx context.Context) (domain.AnalyticsStats, error)
	Clear(ctx context.Context) error
	RecordConversion(ctx context.Context, s *analytics.Session, courseName string) error
}
