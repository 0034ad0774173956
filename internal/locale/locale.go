// Package locale picks date layouts from the browser's Accept-Language
// header. This is deliberately minimal: the UI is English-only, and only the
// ordering of date components follows the visitor's locale.
package locale

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.AmericanEnglish, // month-first: December 1, 2024
	language.BritishEnglish,  // day-first: 1 December 2024
}

var matcher = language.NewMatcher(supported)

// Date layouts with long month names.
const (
	LayoutMonthFirst = "January 2, 2006"
	LayoutDayFirst   = "2 January 2006"
)

// DateLayout returns the date layout for the given Accept-Language header.
// Unknown or empty headers fall back to month-first.
func DateLayout(acceptLanguage string) string {
	if acceptLanguage == "" {
		return LayoutMonthFirst
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return LayoutMonthFirst
	}
	_, index, _ := matcher.Match(tags...)
	if supported[index] == language.BritishEnglish {
		return LayoutDayFirst
	}
	return LayoutMonthFirst
}

// dateInputLayouts are the formats the upstream emits for meeting_date.
var dateInputLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// FormatDate renders an upstream date string with the given layout.
// Unparseable input is returned unchanged rather than dropped.
func FormatDate(value, layout string) string {
	for _, in := range dateInputLayouts {
		if t, err := time.Parse(in, value); err == nil {
			return t.Format(layout)
		}
	}
	return value
}

// FormatTime truncates an upstream HH:MM[:SS] time to HH:MM.
func FormatTime(value string) string {
	if value == "" {
		return "N/A"
	}
	if len(value) > 5 && strings.Count(value, ":") == 2 {
		return value[:5]
	}
	return value
}

// datetimeInputLayouts are the formats the upstream emits for timestamps.
// FastAPI omits the zone offset.
var datetimeInputLayouts = []string{"2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", time.RFC3339}

// FormatDateTime renders an upstream timestamp for display.
func FormatDateTime(value string) string {
	if value == "" {
		return "N/A"
	}
	for _, in := range datetimeInputLayouts {
		if t, err := time.Parse(in, value); err == nil {
			return t.Format("Jan 2, 2006 15:04")
		}
	}
	return value
}
