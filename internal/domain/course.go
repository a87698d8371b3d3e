package domain

import (
	"strings"
	"time"
)

// CourseOffering is one scheduled, bookable instance of a course as
// published by the catalog feed.
type CourseOffering struct {
	ID              int
	CourseID        string
	Name            string
	Reference       string
	Price           string
	Venue           string
	StartDate       string
	StartTime       string
	EndDate         string
	DatesList       string
	AvailableSpaces string
	SessionID       string
	Link            string

	// Date is the parsed StartDate at midnight UTC. Offerings only reach the
	// catalog when StartDate parses, so it is never zero there.
	Date time.Time
}

// DisplayName returns the canonical course name: everything before the first
// "|" batch tag, trimmed.
func (c CourseOffering) DisplayName() string {
	name, _, _ := strings.Cut(c.Name, "|")
	return strings.TrimSpace(name)
}

// CardKey is the identity used to collapse near-duplicate sessions into a
// single card: same course, same day, same venue.
func (c CourseOffering) CardKey() string {
	return c.DisplayName() + "\x00" + c.StartDate + "\x00" + c.Venue
}

// CourseProjection is the compact form of an offering handed to the model.
type CourseProjection struct {
	ID    int    `json:"id"`
	Ref   string `json:"ref"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Venue string `json:"venue"`
	Price string `json:"price"`
}

// Project builds the compact projection of c.
func (c CourseOffering) Project() CourseProjection {
	date := c.StartDate
	if !c.Date.IsZero() {
		date = c.Date.Format("2006-01-02") + " (" + c.Date.Weekday().String() + ")"
	}
	return CourseProjection{
		ID:    c.ID,
		Ref:   strings.ToUpper(c.Reference),
		Name:  c.DisplayName(),
		Date:  date,
		Venue: c.Venue,
		Price: c.Price,
	}
}

// SearchCriteria is the per-call filter built from a searchCourses request.
// Every field is optional; an empty criteria matches the whole catalog.
type SearchCriteria struct {
	Query     string `json:"query,omitempty"`
	Location  string `json:"location,omitempty"`
	DateStart string `json:"dateStart,omitempty"`
	DateEnd   string `json:"dateEnd,omitempty"`
}

// Period renders the date window the way analytics records it.
func (c SearchCriteria) Period() string {
	if c.DateStart == "" && c.DateEnd == "" {
		return "Anytime"
	}
	return c.DateStart + " to " + c.DateEnd
}
