package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/catalog"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/knowledge"
	"github.com/alexanderramin/coursechat/internal/search"
)

// CatalogStore is the part of *catalog.Store the course service reads.
type CatalogStore interface {
	All() []domain.CourseOffering
	ByID(id int) (domain.CourseOffering, bool)
	Refresh(ctx context.Context) int
	LoadedAt() time.Time
}

type courseService struct {
	store    CatalogStore
	engine   *search.Engine
	kb       *knowledge.Base
	regions  intelligence.RegionTable
	observer UseCaseObserver
}

func NewCourseService(
	store CatalogStore,
	engine *search.Engine,
	kb *knowledge.Base,
	regions intelligence.RegionTable,
	observers ...UseCaseObserver,
) CourseService {
	if engine == nil {
		engine = search.NewEngine(search.Options{})
	}
	if kb == nil {
		kb = knowledge.Default()
	}
	return &courseService{
		store:    store,
		engine:   engine,
		kb:       kb,
		regions:  regions,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *courseService) List(ctx context.Context) []domain.CourseOffering {
	return s.store.All()
}

func (s *courseService) Get(ctx context.Context, id int) (domain.CourseOffering, bool) {
	return s.store.ByID(id)
}

func (s *courseService) Search(ctx context.Context, q SearchQuery) (res search.Result, err error) {
	fields := map[string]any{"query": q.Query, "location": q.Location}
	defer observe(ctx, s.observer, "search-courses", fields, &err)()

	criteria := q.SearchCriteria
	for _, bound := range []string{criteria.DateStart, criteria.DateEnd} {
		if bound == "" {
			continue
		}
		if _, ok := catalog.ParseISODate(bound); !ok {
			return search.Result{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, bound)
		}
	}
	if q.ExpandRegions && strings.TrimSpace(criteria.Location) != "" {
		criteria.Location = s.regions.Expand(criteria.Location)
		fields["expanded_location"] = criteria.Location
	}

	res = s.engine.Search(s.store.All(), criteria)
	fields["results"] = len(res.Courses)
	return res, nil
}

func (s *courseService) Details(ctx context.Context, courseType string) CourseDetail {
	text, key := s.kb.Resolve(courseType)
	detail := CourseDetail{Query: courseType, Key: key, Text: text, Found: key != ""}
	defer observe(ctx, s.observer, "course-details", map[string]any{"course_type": courseType, "key": key}, nil)()
	return detail
}

func (s *courseService) Refresh(ctx context.Context) CatalogStatus {
	defer observe(ctx, s.observer, "refresh-catalog", nil, nil)()
	s.store.Refresh(ctx)
	return s.Status()
}

func (s *courseService) Status() CatalogStatus {
	return CatalogStatus{Courses: len(s.store.All()), LoadedAt: s.store.LoadedAt()}
}
