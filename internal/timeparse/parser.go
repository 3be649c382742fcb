package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status reports the outcome of a parse attempt.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoTimeFound Status = "no_time_found"
	StatusInvalidTime Status = "invalid_time"
)

// Result is the outcome of parsing a message for an appointment time.
// Start and DurationMinutes are nil unless Status is StatusOK.
type Result struct {
	Start           *time.Time
	DurationMinutes *int
	Status          Status
}

// DefaultDurationMinutes is used when the text carries no duration phrase.
const DefaultDurationMinutes = 60

// weekdayAliases maps weekday name fragments to weekdays. Matching is a
// plain substring scan in this exact order; the first alias present in the
// text wins, so a message naming two weekdays resolves to whichever entry
// appears first here, not first in the sentence.
var weekdayAliases = []struct {
	alias string
	day   time.Weekday
}{
	{"monday", time.Monday},
	{"mon", time.Monday},
	{"tuesday", time.Tuesday},
	{"tues", time.Tuesday},
	{"tue", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"wed", time.Wednesday},
	{"thursday", time.Thursday},
	{"thurs", time.Thursday},
	{"thur", time.Thursday},
	{"thu", time.Thursday},
	{"friday", time.Friday},
	{"fri", time.Friday},
	{"saturday", time.Saturday},
	{"sat", time.Saturday},
	{"sunday", time.Sunday},
	{"sun", time.Sunday},
}

var (
	timeTokenRE       = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	durationMinutesRE = regexp.MustCompile(`\b(\d+)\s*min(?:ute)?s?\b`)
	durationHoursRE   = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
)

// Parser extracts appointment start times and durations from free text,
// anchored to a reference "now" in the clinic's fixed local timezone.
type Parser struct {
	loc *time.Location
}

// NewParser builds a parser for the given IANA timezone name.
// Invalid or empty names fall back to UTC.
func NewParser(timezone string) *Parser {
	return &Parser{loc: Location(timezone)}
}

// Location resolves a timezone name, falling back to UTC when it cannot
// be loaded.
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Parse extracts a candidate start timestamp and duration from text.
//
// Day resolution: "tomorrow" wins, else the first weekday alias found
// (same-day occurrences count, so "Friday" on a Friday means today;
// adding "next" pushes a same-day match a full week out), else the
// reference day. Time token: hour[:minute][am|pm], hour 1-23, minute
// 0-59. No token at all yields StatusNoTimeFound; a token with values
// out of range yields StatusInvalidTime.
func (p *Parser) Parse(text string, referenceNow time.Time) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Result{Status: StatusNoTimeFound}
	}

	ref := referenceNow.In(p.loc)
	day := resolveDay(normalized, ref)

	match := timeTokenRE.FindStringSubmatch(normalized)
	if match == nil {
		return Result{Status: StatusNoTimeFound}
	}

	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}
	meridiem := match[3]

	if hour < 1 || hour > 23 || minute < 0 || minute > 59 {
		return Result{Status: StatusInvalidTime}
	}
	if meridiem == "pm" && hour != 12 {
		hour += 12
	} else if meridiem == "am" && hour == 12 {
		hour = 0
	}
	if hour > 23 {
		return Result{Status: StatusInvalidTime}
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, p.loc)
	duration := parseDuration(normalized)

	return Result{Start: &start, DurationMinutes: &duration, Status: StatusOK}
}

// resolveDay picks the calendar day the message refers to, anchored to ref.
func resolveDay(normalized string, ref time.Time) time.Time {
	if strings.Contains(normalized, "tomorrow") {
		return ref.AddDate(0, 0, 1)
	}
	for _, entry := range weekdayAliases {
		if !strings.Contains(normalized, entry.alias) {
			continue
		}
		delta := (int(entry.day) - int(ref.Weekday()) + 7) % 7
		if delta == 0 && strings.Contains(normalized, "next") {
			delta = 7
		}
		return ref.AddDate(0, 0, delta)
	}
	return ref
}

// parseDuration returns the requested visit length in minutes. Explicit
// minute phrases win over hour phrases; hour values round to the nearest
// minute.
func parseDuration(normalized string) int {
	if m := durationMinutesRE.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			return v
		}
	}
	if m := durationHoursRE.FindStringSubmatch(normalized); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return int(math.Round(v * 60))
		}
	}
	return DefaultDurationMinutes
}
