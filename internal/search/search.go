// Package search filters the catalog for the searchCourses tool and shapes
// the result into the compact form the model reads.
package search

import (
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/catalog"
	"github.com/alexanderramin/coursechat/internal/domain"
)

const (
	// MaxResults bounds the payload handed back to the model.
	MaxResults = 25

	NoCoursesMessage = "No courses found matching the criteria."

	// FallbackMarker tells the model the results are online alternatives to
	// a location search that found nothing.
	FallbackMarker = "FALLBACK_TO_ONLINE"

	onlineLocation = "Online"
)

// Result is either a non-empty course list or the empty list plus Message.
type Result struct {
	Courses []domain.CourseProjection `json:"courses"`
	Message string                    `json:"message,omitempty"`
}

// Empty reports whether the result is the "no courses found" marker.
func (r Result) Empty() bool { return len(r.Courses) == 0 }

// IDs lists the course ids in result order.
func (r Result) IDs() []int {
	ids := make([]int, len(r.Courses))
	for i, c := range r.Courses {
		ids[i] = c.ID
	}
	return ids
}

type Options struct {
	// OnlineFallback retries a location search that found nothing against
	// online sessions, flagging the answer with FallbackMarker.
	OnlineFallback bool
}

type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Search runs c over courses, falling back to online sessions when enabled.
func (e *Engine) Search(courses []domain.CourseOffering, c domain.SearchCriteria) Result {
	res := Search(courses, c)
	if !res.Empty() || !e.opts.OnlineFallback || len(LocationTerms(c.Location)) == 0 {
		return res
	}
	if containsTerm(LocationTerms(c.Location), strings.ToLower(onlineLocation)) {
		return res
	}

	online := c
	online.Location = onlineLocation
	alt := Search(courses, online)
	if alt.Empty() {
		return res
	}
	alt.Message = FallbackMarker + ": no sessions at the requested location, showing online alternatives."
	return alt
}

// Search applies the text, location and date filters (ANDed, each a no-op
// when absent), keeps catalog order and caps the output at MaxResults.
func Search(courses []domain.CourseOffering, c domain.SearchCriteria) Result {
	f := newFilter(c)
	out := make([]domain.CourseProjection, 0, MaxResults)
	for _, course := range courses {
		if !f.match(course) {
			continue
		}
		out = append(out, course.Project())
		if len(out) == MaxResults {
			break
		}
	}
	if len(out) == 0 {
		return Result{Courses: []domain.CourseProjection{}, Message: NoCoursesMessage}
	}
	return Result{Courses: out}
}

// LocationTerms splits a comma-separated location into lower-cased,
// trimmed, non-empty terms.
func LocationTerms(location string) []string {
	var terms []string
	for _, part := range strings.Split(location, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}

type filter struct {
	query     string
	locations []string
	hasRange  bool
	start     time.Time
	end       time.Time
}

func newFilter(c domain.SearchCriteria) filter {
	f := filter{
		query:     strings.ToLower(strings.TrimSpace(c.Query)),
		locations: LocationTerms(c.Location),
	}
	if d, ok := catalog.ParseISODate(c.DateStart); ok {
		f.start = d
		f.hasRange = true
	}
	if d, ok := catalog.ParseISODate(c.DateEnd); ok {
		// Inclusive through the end of that day.
		f.end = d.Add(24*time.Hour - time.Nanosecond)
		f.hasRange = true
	}
	return f
}

func (f filter) match(c domain.CourseOffering) bool {
	if f.query != "" &&
		!strings.Contains(strings.ToLower(c.Name), f.query) &&
		!strings.Contains(strings.ToLower(c.Reference), f.query) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(strings.ToLower(c.Venue), f.locations) {
		return false
	}
	if f.hasRange {
		d := c.Date
		if d.IsZero() {
			parsed, ok := catalog.ParseCourseDate(c.StartDate)
			if !ok {
				return false
			}
			d = parsed
		}
		if !f.start.IsZero() && d.Before(f.start) {
			return false
		}
		if !f.end.IsZero() && d.After(f.end) {
			return false
		}
	}
	return true
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func containsTerm(terms []string, want string) bool {
	for _, t := range terms {
		if t == want {
			return true
		}
	}
	return false
}
