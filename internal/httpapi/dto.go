package httpapi

import (
	"github.com/alexanderramin/coursechat/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting,omitempty"`
}

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type ConversionRequest struct {
	Course string `json:"course" binding:"required"`
}

// MessageResponse mirrors the structured reply and adds the resolved cards.
type MessageResponse struct {
	Reply                 string   `json:"reply"`
	SuggestedCourseIDs    []int    `json:"suggested_course_ids"`
	DisambiguationOptions []string `json:"disambiguation_options"`
	Cards                 []Card   `json:"cards"`
}

// Card is the widget rendering of one offering.
type Card struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Venue     string `json:"venue"`
	Price     string `json:"price"`
	Spaces    string `json:"spaces,omitempty"`
	Link      string `json:"link,omitempty"`
}

type SearchParams struct {
	Query     string `form:"query"`
	Location  string `form:"location"`
	DateStart string `form:"dateStart"`
	DateEnd   string `form:"dateEnd"`
	Expand    bool   `form:"expand"`
}

type AnalyticsResponse struct {
	Stats    domain.AnalyticsStats     `json:"stats"`
	Sessions []domain.AnalyticsSession `json:"sessions"`
}

func toCard(c domain.CourseOffering) Card {
	return Card{
		ID:        c.ID,
		Name:      c.DisplayName(),
		Reference: c.Reference,
		Date:      c.StartDate,
		StartTime: c.StartTime,
		EndDate:   c.EndDate,
		Venue:     c.Venue,
		Price:     c.Price,
		Spaces:    c.AvailableSpaces,
		Link:      c.Link,
	}
}

func toCards(courses []domain.CourseOffering) []Card {
	cards := make([]Card, len(courses))
	for i, c := range courses {
		cards[i] = toCard(c)
	}
	return cards
}
