package catalog

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+`)
	ordinalSuffix = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)\b`)
)

var courseDateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2006-01-02",
}

// ParseCourseDate turns a feed date such as "Mon 15th December 2025" into a
// UTC midnight date. It strips a leading weekday and the first ordinal
// suffix before parsing with English month names.
func ParseCourseDate(s string) (time.Time, bool) {
	cleaned := weekdayPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	if loc := ordinalSuffix.FindStringSubmatchIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[0]] + cleaned[loc[2]:loc[3]] + cleaned[loc[1]:]
	}
	cleaned = normalizeDateWords(cleaned)
	if cleaned == "" {
		return time.Time{}, false
	}
	for _, layout := range courseDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseISODate parses a YYYY-MM-DD bound as sent by the model.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StartOfDay returns t's calendar date at midnight UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// normalizeDateWords drops commas, collapses whitespace and title-cases
// alphabetic words so "15 DECEMBER 2025" parses like "15 December 2025".
func normalizeDateWords(s string) string {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	for i, f := range fields {
		if f == "" || !unicode.IsLetter(rune(f[0])) {
			continue
		}
		lower := strings.ToLower(f)
		fields[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(fields, " ")
}
