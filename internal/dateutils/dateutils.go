// Package dateutils provides the date parsing and calendar arithmetic used by date facets.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date layouts sent by the backend.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutFrench   = "02/01/2006"
	DateLayoutEuropean = "02.01.2006"
)

// CommonFormats is the list of layouts tried, in order, by ParseDate.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutFull,
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayoutFrench,
	DateLayoutEuropean,
	"02-01-2006",
}

var spacesRe = regexp.MustCompile(`\s+`)

// Period is a calendar window anchored on "now".
type Period int

const (
	PeriodDay Period = iota
	PeriodWeek
	PeriodMonth
	PeriodYear
)

// ParseDate attempts to parse a date string using CommonFormats. Layouts without a zone are
// interpreted in loc (time.Local when nil). Returns the parsed time and the matching layout.
func ParseDate(dateStr string, loc *time.Location) (time.Time, string, error) {
	if loc == nil {
		loc = time.Local
	}
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("unable to parse empty date")
	}

	for _, layout := range CommonFormats {
		if t, err := time.ParseInLocation(layout, dateStr, loc); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return spacesRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// StartOfDay returns midnight of the given day, in the day's location.
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// StartOfWeek returns midnight of the Monday of the ISO week containing date.
func StartOfWeek(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return StartOfDay(date).AddDate(0, 0, -offset)
}

// StartOfMonth returns the first day of the month at midnight.
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// StartOfYear returns January 1st at midnight.
func StartOfYear(date time.Time) time.Time {
	return time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
}

// Bounds returns the half-open window [start, end) of the period containing now.
func Bounds(p Period, now time.Time) (start, end time.Time) {
	switch p {
	case PeriodWeek:
		start = StartOfWeek(now)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = StartOfMonth(now)
		return start, start.AddDate(0, 1, 0)
	case PeriodYear:
		start = StartOfYear(now)
		return start, start.AddDate(1, 0, 0)
	default:
		start = StartOfDay(now)
		return start, start.AddDate(0, 0, 1)
	}
}

// Within reports whether date falls in the period containing now. Dates are compared in
// now's location.
func Within(p Period, date, now time.Time) bool {
	start, end := Bounds(p, now)
	d := date.In(now.Location())
	return !d.Before(start) && d.Before(end)
}
