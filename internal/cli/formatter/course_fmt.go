package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/search"
)

// FormatCourseCard renders one offering as a numbered card. The number is
// what "/open <n>" refers to in the chat view.
func FormatCourseCard(n int, c domain.CourseOffering, now time.Time) string {
	var b strings.Builder

	title := StyleBold.Render(c.DisplayName())
	if c.Reference != "" {
		title += "  " + Dim(strings.ToUpper(c.Reference))
	}
	fmt.Fprintf(&b, "%s %s\n", StylePurple.Render(fmt.Sprintf("[%d]", n)), title)

	when := c.StartDate
	if c.StartTime != "" {
		when += " " + c.StartTime
	}
	if !c.Date.IsZero() {
		when += "  " + StyleBlue.Render(RelativeDay(c.Date, now))
	}
	fmt.Fprintf(&b, "    %s\n", when)

	details := []string{StyleFg.Render(c.Venue)}
	if c.Price != "" {
		details = append(details, StyleYellow.Render(c.Price))
	}
	if c.AvailableSpaces != "" {
		details = append(details, formatSpaces(c.AvailableSpaces))
	}
	fmt.Fprintf(&b, "    %s\n", strings.Join(details, Dim(" · ")))

	if c.Link != "" {
		fmt.Fprintf(&b, "    %s\n", Dim(c.Link))
	}
	return b.String()
}

// FormatCourseCards renders cards numbered from 1.
func FormatCourseCards(cards []domain.CourseOffering, now time.Time) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatCourseCard(i+1, c, now))
	}
	return b.String()
}

func formatSpaces(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Dim(raw + " spaces")
	}
	label := fmt.Sprintf("%d spaces", n)
	if n == 1 {
		label = "1 space"
	}
	return SpacesStyle(n).Render(label)
}

// FormatCourseTable lists offerings in catalog order.
func FormatCourseTable(courses []domain.CourseOffering) string {
	if len(courses) == 0 {
		return Dim(search.NoCoursesMessage) + "\n"
	}
	rows := make([][]string, len(courses))
	for i, c := range courses {
		p := c.Project()
		rows[i] = []string{strconv.Itoa(p.ID), p.Ref, p.Name, p.Date, p.Venue, p.Price}
	}
	return RenderTable([]string{"ID", "REF", "COURSE", "DATE", "VENUE", "PRICE"}, rows, 40)
}

// FormatSearchResult renders the projection list a search produced, with
// the result message when there is one.
func FormatSearchResult(res search.Result) string {
	var b strings.Builder
	if !res.Empty() {
		rows := make([][]string, len(res.Courses))
		for i, p := range res.Courses {
			rows[i] = []string{strconv.Itoa(p.ID), p.Ref, p.Name, p.Date, p.Venue, p.Price}
		}
		b.WriteString(RenderTable([]string{"ID", "REF", "COURSE", "DATE", "VENUE", "PRICE"}, rows, 40))
	}
	if res.Message != "" {
		b.WriteString(Dim(res.Message))
		b.WriteString("\n")
	}
	if !res.Empty() && len(res.Courses) == search.MaxResults {
		b.WriteString(Dim(fmt.Sprintf("Showing the first %d matches; narrow the search for more.", search.MaxResults)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCourseDetails renders a knowledge-base entry. Entries are written in
// light markdown; "**x**" markers become bold.
func FormatCourseDetails(query, key, text string, found bool) string {
	if !found {
		return Dim(text) + "\n"
	}
	var b strings.Builder
	b.WriteString(Header(key))
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		b.WriteString(renderMarkdownLine(line))
		b.WriteString("\n")
	}
	if !strings.EqualFold(strings.TrimSpace(query), key) {
		b.WriteString(Dim(fmt.Sprintf("(matched %q for %q)", key, query)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderMarkdownLine(line string) string {
	parts := strings.Split(line, "**")
	if len(parts) < 3 {
		return line
	}
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 1 {
			b.WriteString(StyleBold.Render(p))
		} else {
			b.WriteString(p)
		}
	}
	return b.String()
}
