/*
parse.go - Civil date and shift grammar

PURPOSE:
  Leave submissions carry free-text date and shift fields. The reminder
  sweep needs both resolved to an absolute instant, so parsing is
  isolated here as pure functions: structured result or error, no clock,
  no zone until the final resolution step.

GRAMMAR:
  Date:  MM/DD/YYYY, strict. Two-digit years normalize to 2000+YY.
         Month and day are range-checked against the real calendar
         (02/30 is rejected).
  Shift: A leading H[:MM] token with optional am/pm suffix. Twelve-hour
         values normalize to 24-hour: 12am -> 0, 12pm -> 12. Whatever
         follows the token ("9am - 5pm EST") is ignored.

RESOLUTION:
  CivilDate.At combines date, shift start and a zone into an instant via
  time.Date in that zone, which resolves the zone's UTC offset for that
  specific calendar moment. A target date on the far side of a DST
  transition therefore gets the post-transition offset, regardless of
  the offset in effect when the sweep runs.
*/
package leave

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CivilDate is a calendar date with no attached offset.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ShiftStart is a clock time with no attached offset.
type ShiftStart struct {
	Hour   int
	Minute int
}

var shiftTokenRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(?i:(am|pm))?`)

// ParseCivilDate parses a strict MM/DD/YYYY civil date.
func ParseCivilDate(s string) (CivilDate, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return CivilDate{}, &ParseError{Field: "date", Value: s, Why: "want MM/DD/YYYY"}
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" {
			return CivilDate{}, &ParseError{Field: "date", Value: s, Why: "non-numeric component"}
		}
		nums[i] = n
	}

	month, day, year := nums[0], nums[1], nums[2]
	switch len(parts[2]) {
	case 4:
	case 2:
		year += 2000
	default:
		return CivilDate{}, &ParseError{Field: "date", Value: s, Why: "year must be 2 or 4 digits"}
	}

	if month < 1 || month > 12 {
		return CivilDate{}, &ParseError{Field: "date", Value: s, Why: fmt.Sprintf("month %d out of range", month)}
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return CivilDate{}, &ParseError{Field: "date", Value: s, Why: fmt.Sprintf("day %d out of range", day)}
	}

	return CivilDate{Year: year, Month: time.Month(month), Day: day}, nil
}

// ParseShiftStart extracts the leading start-time token from free-text
// shift input.
func ParseShiftStart(s string) (ShiftStart, error) {
	trimmed := strings.TrimSpace(s)
	m := shiftTokenRe.FindStringSubmatch(trimmed)
	if m == nil || m[1] == "" {
		return ShiftStart{}, &ParseError{Field: "shift", Value: s, Why: "no leading time token"}
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return ShiftStart{}, &ParseError{Field: "shift", Value: s, Why: fmt.Sprintf("minute %d out of range", minute)}
	}

	switch strings.ToLower(m[3]) {
	case "am":
		if hour < 1 || hour > 12 {
			return ShiftStart{}, &ParseError{Field: "shift", Value: s, Why: fmt.Sprintf("hour %d out of range for am/pm", hour)}
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return ShiftStart{}, &ParseError{Field: "shift", Value: s, Why: fmt.Sprintf("hour %d out of range for am/pm", hour)}
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return ShiftStart{}, &ParseError{Field: "shift", Value: s, Why: fmt.Sprintf("hour %d out of range", hour)}
		}
	}

	return ShiftStart{Hour: hour, Minute: minute}, nil
}

// At resolves the civil date and shift start to an absolute instant as
// observed in loc.
func (d CivilDate) At(start ShiftStart, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, start.Hour, start.Minute, 0, 0, loc)
}

// ShiftInstant parses a request's date and shift fields and resolves
// them in loc.
func ShiftInstant(r Request, loc *time.Location) (time.Time, error) {
	date, err := ParseCivilDate(r.Date)
	if err != nil {
		return time.Time{}, err
	}
	start, err := ParseShiftStart(r.Shift)
	if err != nil {
		return time.Time{}, err
	}
	return date.At(start, loc), nil
}

func daysIn(year int, month time.Month) int {
	// First day of the next month, minus one day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
