package handler

import (
	"strings"
	"time"
)

// dateLayout is the calendar date format accepted in request bodies
const dateLayout = "2006-01-02"

// parseDate parses an optional YYYY-MM-DD value. Binding has already validated the format.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// dateOr returns the parsed date or fallback when s is empty
func dateOr(s string, fallback time.Time) time.Time {
	if t := parseDate(s); t != nil {
		return *t
	}
	return fallback
}
