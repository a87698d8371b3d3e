package formatter

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/search"
	"github.com/stretchr/testify/assert"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

var testNow = time.Date(2025, 12, 10, 15, 30, 0, 0, time.UTC)

func testCourse() domain.CourseOffering {
	return domain.CourseOffering{
		ID:              7,
		Name:            "SMSTS | Batch A",
		Reference:       "smsts",
		Price:           "£495",
		Venue:           "Stratford",
		StartDate:       "Mon 15th December 2025",
		StartTime:       "08:30",
		AvailableSpaces: "2",
		Link:            "https://example.com/book/7",
		Date:            time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestRelativeDay(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want string
	}{
		{"yesterday", testNow.AddDate(0, 0, -1), "Past"},
		{"today later", time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC), "Today"},
		{"tomorrow", testNow.AddDate(0, 0, 1), "Tomorrow"},
		{"five days", testNow.AddDate(0, 0, 5), "In 5d"},
		{"three weeks", testNow.AddDate(0, 0, 21), "In 3w"},
		{"three months", testNow.AddDate(0, 0, 90), "In 3mo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDay(tt.day, testNow))
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0s", FormatSeconds(0))
	assert.Equal(t, "45s", FormatSeconds(45))
	assert.Equal(t, "3m", FormatSeconds(180))
	assert.Equal(t, "3m 20s", FormatSeconds(200))
	assert.Equal(t, "1h", FormatSeconds(3600))
	assert.Equal(t, "1h 5m", FormatSeconds(3900))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Site Man…", Truncate("Site Management", 9))
	assert.Equal(t, "anything", Truncate("anything", 0))
}

func TestRenderTable_AlignsVisibleWidth(t *testing.T) {
	out := stripANSI(RenderTable(
		[]string{"ID", "NAME"},
		[][]string{{"1", StyleGreen.Render("SMSTS")}, {"22", "SSSTS"}},
		0,
	))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, []string{
		"ID  NAME",
		"──  ─────",
		"1   SMSTS",
		"22  SSSTS",
	}, lines)
}

func TestFormatCourseCard(t *testing.T) {
	out := stripANSI(FormatCourseCard(3, testCourse(), testNow))

	assert.Contains(t, out, "[3] SMSTS  SMSTS")
	assert.Contains(t, out, "Mon 15th December 2025 08:30  In 5d")
	assert.Contains(t, out, "Stratford · £495 · 2 spaces")
	assert.Contains(t, out, "https://example.com/book/7")
	assert.NotContains(t, out, "Batch A")
}

func TestFormatReply_CardsAndOptions(t *testing.T) {
	reply := domain.StructuredReply{
		Reply:                 "Which course did you mean?",
		SuggestedCourseIDs:    []int{7},
		DisambiguationOptions: []string{"SMSTS", "SMSTS Refresher"},
	}
	out := stripANSI(FormatReply(reply, []domain.CourseOffering{testCourse()}, testNow))

	assert.True(t, strings.HasPrefix(out, "Assistant: Which course did you mean?"))
	assert.Contains(t, out, "  [1] SMSTS")
	assert.Contains(t, out, "a) SMSTS\n")
	assert.Contains(t, out, "b) SMSTS Refresher")
}

func TestFormatSearchResult(t *testing.T) {
	empty := stripANSI(FormatSearchResult(search.Result{Courses: []domain.CourseProjection{}, Message: search.NoCoursesMessage}))
	assert.Equal(t, search.NoCoursesMessage+"\n", empty)

	res := search.Result{Courses: []domain.CourseProjection{testCourse().Project()}}
	out := stripANSI(FormatSearchResult(res))
	assert.Contains(t, out, "REF")
	assert.Contains(t, out, "2025-12-15 (Monday)")
	assert.Contains(t, out, "Stratford")
}

func TestFormatCourseDetails(t *testing.T) {
	out := stripANSI(FormatCourseDetails("nebosh general certificate", "NEBOSH GENERAL", "**Duration:** 10 Days", true))
	assert.Contains(t, out, "NEBOSH GENERAL\n")
	assert.Contains(t, out, "Duration: 10 Days")
	assert.Contains(t, out, `(matched "NEBOSH GENERAL" for "nebosh general certificate")`)

	missing := stripANSI(FormatCourseDetails("XYZ", "", "not available", false))
	assert.Equal(t, "not available\n", missing)
}

func TestFormatAnalytics(t *testing.T) {
	end := testNow.Add(-time.Hour)
	sessions := []domain.AnalyticsSession{{
		SessionID:       "0123456789abcdef",
		ClientTag:       "cli",
		StartTime:       testNow.Add(-2 * time.Hour),
		EndTime:         &end,
		DurationSeconds: 200,
		Searches: []domain.SearchIntent{
			{Term: "SMSTS", Period: "Anytime"},
			{Term: "SMSTS", Period: domain.ContentQueryPeriod},
		},
		Converted:     true,
		ClickedCourse: "SMSTS",
	}}
	stats := domain.AnalyticsStats{TotalVisits: 1, TotalConversions: 1, AvgDurationSeconds: 200, ConversionRate: 100}

	out := stripANSI(FormatAnalytics(stats, sessions, testNow))
	assert.Contains(t, out, "1 visits")
	assert.Contains(t, out, "100.0% rate")
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "2h ago")
	assert.Contains(t, out, "3m 20s")
	assert.Contains(t, out, "SMSTS (Anytime), SMSTS (Content Query)")
	assert.Contains(t, out, "✔ SMSTS")

	assert.Contains(t, stripANSI(FormatAnalytics(domain.AnalyticsStats{}, nil, testNow)), "No sessions recorded.")
}
