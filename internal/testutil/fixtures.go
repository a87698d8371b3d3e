package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
)

var testCourseIDCounter atomic.Int64

// CourseOption customizes a fixture offering.
type CourseOption func(*domain.CourseOffering)

func WithVenue(v string) CourseOption {
	return func(c *domain.CourseOffering) { c.Venue = v }
}

func WithID(id int) CourseOption {
	return func(c *domain.CourseOffering) { c.ID = id }
}

func WithReference(ref string) CourseOption {
	return func(c *domain.CourseOffering) { c.Reference = ref }
}

func WithPrice(p string) CourseOption {
	return func(c *domain.CourseOffering) { c.Price = p }
}

func WithSpaces(n string) CourseOption {
	return func(c *domain.CourseOffering) { c.AvailableSpaces = n }
}

// NewTestCourse builds an admitted offering on the given day. The start
// date string is formatted the way the feed writes it.
func NewTestCourse(name string, day time.Time, opts ...CourseOption) domain.CourseOffering {
	id := int(testCourseIDCounter.Add(1)) + 1000
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	c := domain.CourseOffering{
		ID:              id,
		CourseID:        fmt.Sprintf("C%d", id),
		Name:            name,
		Reference:       fmt.Sprintf("REF-%d", id),
		Price:           "£100",
		Venue:           "Online",
		StartDate:       day.Format("Mon 2 January 2006"),
		StartTime:       "09:00",
		AvailableSpaces: "8",
		Link:            fmt.Sprintf("https://example.com/book/%d", id),
		Date:            day,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
