// Package temporal turns loosely-specified natural-language date and time
// mentions into absolute UTC instants.
//
// Resolution is deterministic: the reference instant is always an explicit
// parameter, never an ambient clock read, so the same candidate resolved
// against the same reference always yields the same timestamp.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Candidate is one raw, unresolved event mention produced by the extractor.
type Candidate struct {
	Title    string
	RawDate  string
	RawTime  string
	Sentence string
}

// Resolved is a candidate normalized to an absolute UTC instant.
type Resolved struct {
	Title    string
	At       time.Time
	Sentence string
}

// Rejection explains why a candidate did not resolve.
type Rejection int

const (
	// RejectionNone means the candidate resolved to a valid future instant.
	RejectionNone Rejection = iota
	// RejectionUnparseable means the date expression could not be understood.
	RejectionUnparseable
	// RejectionPastEvent means the expression resolved before the start of
	// the reference day.
	RejectionPastEvent
)

// Candidates with no usable time mention default to 09:00.
const defaultHour = 9

var (
	inDaysPattern   = regexp.MustCompile(`^in (\d+) days?$`)
	isoDatePattern  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dayTokenPattern = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?$`)
	timePattern     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

var monthNames = []time.Month{
	time.January, time.February, time.March, time.April,
	time.May, time.June, time.July, time.August,
	time.September, time.October, time.November, time.December,
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Resolve turns one candidate plus a reference instant into an absolute UTC
// timestamp. The result is valid only when it falls on or after the start of
// the reference day; same-day mentions whose hour already passed still
// resolve, since the cutoff is by day, not by instant.
func Resolve(candidate Candidate, referenceNow time.Time) (Resolved, Rejection) {
	now := referenceNow.UTC()

	date, ok := resolveDate(candidate.RawDate, now)
	if !ok {
		return Resolved{}, RejectionUnparseable
	}

	hour, minute := resolveTime(candidate.RawTime)
	at := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(dayStart) {
		return Resolved{}, RejectionPastEvent
	}

	return Resolved{
		Title:    candidate.Title,
		At:       at,
		Sentence: candidate.Sentence,
	}, RejectionNone
}

// resolveDate applies the date-resolution rules in order, first match wins.
func resolveDate(raw string, now time.Time) (time.Time, bool) {
	expr := strings.ToLower(strings.TrimSpace(raw))
	if expr == "" {
		return time.Time{}, false
	}

	// Rule 1: literal relative tokens.
	switch {
	case expr == "today" || expr == "tonight":
		return now, true
	case expr == "tomorrow":
		return now.AddDate(0, 0, 1), true
	case strings.Contains(expr, "next week"):
		return now.AddDate(0, 0, 7), true
	}
	if weekday, ok := strings.CutPrefix(expr, "next "); ok {
		if target, known := weekdayNames[strings.TrimSpace(weekday)]; known {
			offset := (int(target) - int(now.Weekday()) + 7) % 7
			if offset <= 0 {
				offset += 7
			}
			return now.AddDate(0, 0, offset), true
		}
	}
	if match := inDaysPattern.FindStringSubmatch(expr); match != nil {
		days, err := strconv.Atoi(match[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.AddDate(0, 0, days), true
	}

	// ISO dates arrive from extractors that already normalized the mention.
	// Years in the past roll forward, matching the relative-date rules.
	if match := isoDatePattern.FindStringSubmatch(expr); match != nil {
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if date.Year() < now.Year() {
			date = time.Date(now.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
			if date.Before(now) {
				date = date.AddDate(1, 0, 0)
			}
		}
		return date, true
	}

	tokens := splitDateTokens(expr)

	// Rule 2: explicit day + month name, optional year.
	if date, ok := resolveDayMonth(tokens, now); ok {
		return date, true
	}

	// Rule 3: "on the Nth" with no month.
	if date, ok := resolveBareDay(tokens, now); ok {
		return date, true
	}

	return time.Time{}, false
}

// splitDateTokens lowercases and strips filler words from a date expression.
func splitDateTokens(expr string) []string {
	cleaned := strings.NewReplacer(",", " ", ".", " ").Replace(expr)
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		switch field {
		case "on", "the", "of", "at", "by":
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// resolveDayMonth matches "<day> <month> [year]" or "<month> <day> [year]".
func resolveDayMonth(tokens []string, now time.Time) (time.Time, bool) {
	var (
		month    time.Month
		hasMonth bool
		day      int
		hasDay   bool
		year     int
		hasYear  bool
	)
	for _, token := range tokens {
		if m, ok := parseMonthName(token); ok && !hasMonth {
			month = m
			hasMonth = true
			continue
		}
		if match := dayTokenPattern.FindStringSubmatch(token); match != nil && !hasDay {
			value, err := strconv.Atoi(match[1])
			if err != nil || value < 1 || value > 31 {
				return time.Time{}, false
			}
			day = value
			hasDay = true
			continue
		}
		if value, err := strconv.Atoi(token); err == nil && value >= 1000 && !hasYear {
			year = value
			hasYear = true
			continue
		}
	}
	if !hasMonth || !hasDay {
		return time.Time{}, false
	}
	if !hasYear {
		year = now.Year()
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !hasYear && date.Before(dayStart) {
		date = date.AddDate(1, 0, 0)
	}
	return date, true
}

// resolveBareDay matches a lone day-of-month mention like "the 19th".
// The month defaults to the current one unless the day already passed, in
// which case the mention means next month.
func resolveBareDay(tokens []string, now time.Time) (time.Time, bool) {
	if len(tokens) != 1 {
		return time.Time{}, false
	}
	match := dayTokenPattern.FindStringSubmatch(tokens[0])
	if match == nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(match[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	year, month := now.Year(), now.Month()
	if day < now.Day() {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// parseMonthName matches full month names and abbreviations of at least
// three characters, case-insensitive.
func parseMonthName(token string) (time.Month, bool) {
	if len(token) < 3 {
		return 0, false
	}
	for _, month := range monthNames {
		name := strings.ToLower(month.String())
		if strings.HasPrefix(name, token) || strings.HasPrefix(token, name) {
			return month, true
		}
	}
	return 0, false
}

// resolveTime parses an hour mention with optional minutes and meridiem.
// Anything unparseable falls back to the 09:00 default.
func resolveTime(raw string) (hour int, minute int) {
	expr := strings.ToLower(strings.TrimSpace(raw))
	if expr == "" {
		return defaultHour, 0
	}
	match := timePattern.FindStringSubmatch(expr)
	if match == nil {
		return defaultHour, 0
	}

	hour, err := strconv.Atoi(match[1])
	if err != nil || hour < 0 || hour > 23 {
		return defaultHour, 0
	}
	if match[2] != "" {
		minute, err = strconv.Atoi(match[2])
		if err != nil || minute < 0 || minute > 59 {
			return defaultHour, 0
		}
	}
	switch match[3] {
	case "pm":
		if hour < 1 || hour > 12 {
			return defaultHour, 0
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return defaultHour, 0
		}
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute
}
