package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
)

// FormatAnalytics renders the headline numbers followed by one row per
// session, newest first.
func FormatAnalytics(stats domain.AnalyticsStats, sessions []domain.AnalyticsSession, now time.Time) string {
	var b strings.Builder

	summary := strings.Join([]string{
		fmt.Sprintf("%s visits", Bold(fmt.Sprint(stats.TotalVisits))),
		fmt.Sprintf("%s conversions", Bold(fmt.Sprint(stats.TotalConversions))),
		fmt.Sprintf("%s rate", Bold(fmt.Sprintf("%.1f%%", stats.ConversionRate))),
		fmt.Sprintf("%s avg. duration", Bold(FormatSeconds(stats.AvgDurationSeconds))),
	}, Dim("  ·  "))
	b.WriteString(RenderBox("Analytics", summary))
	b.WriteString("\n\n")

	if len(sessions) == 0 {
		b.WriteString(Dim("No sessions recorded."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		converted := Dim("-")
		if s.Converted {
			converted = StyleGreen.Render("✔ " + s.ClickedCourse)
		}
		rows[i] = []string{
			shortID(s.SessionID),
			s.ClientTag,
			HumanTimestamp(s.StartTime, now),
			FormatSeconds(s.DurationSeconds),
			formatSearches(s.Searches),
			converted,
		}
	}
	b.WriteString(RenderTable([]string{"SESSION", "CLIENT", "STARTED", "DURATION", "SEARCHES", "CONVERTED"}, rows, 0))
	return b.String()
}

func formatSearches(searches []domain.SearchIntent) string {
	if len(searches) == 0 {
		return Dim("-")
	}
	terms := make([]string, len(searches))
	for i, s := range searches {
		terms[i] = s.Term
		if s.Period != "" && s.Period != domain.DefaultSearchPeriod {
			terms[i] += " (" + s.Period + ")"
		}
	}
	return Truncate(strings.Join(terms, ", "), 48)
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
