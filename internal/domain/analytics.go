package domain

import "time"

const (
	DefaultSearchTerm   = "General Inquiry"
	DefaultSearchPeriod = "Not specified"
	ContentQueryPeriod  = "Content Query"
)

type SearchIntent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Term      string    `json:"term"`
	Period    string    `json:"period"`
	Timestamp time.Time `json:"timestamp"`
}

// SameAs reports whether two intents would be logged as the same search.
func (s SearchIntent) SameAs(other SearchIntent) bool {
	return s.Term == other.Term && s.Period == other.Period
}

type AnalyticsSession struct {
	SessionID       string         `json:"session_id"`
	ClientTag       string         `json:"client_tag,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	DurationSeconds int            `json:"duration_seconds"`
	Searches        []SearchIntent `json:"searches"`
	Converted       bool           `json:"converted"`
	ClickedCourse   string         `json:"clicked_course,omitempty"`
}

// AnalyticsStats are the dashboard headline numbers.
type AnalyticsStats struct {
	TotalVisits        int     `json:"total_visits"`
	TotalConversions   int     `json:"total_conversions"`
	AvgDurationSeconds int     `json:"avg_duration_seconds"`
	ConversionRate     float64 `json:"conversion_rate"`
}
