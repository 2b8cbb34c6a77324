package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range (must be H:MM AM/PM-H:MM AM/PM)")

var clockRegex = regexp.MustCompile(`^(\d{1,2})(?::([0-5]\d))?\s*([AaPp][Mm])?$`)

const MinutesPerDay = 24 * 60

// TimeRange is a half-open [Start, End) interval in minutes since midnight.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r TimeRange) Contains(minute int) bool {
	return minute >= r.Start && minute < r.End
}

type clockPart struct {
	hour   int
	minute int
	period string
}

func parseClockPart(s string) (clockPart, error) {
	m := clockRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return clockPart{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	period := strings.ToUpper(m[3])
	if period != "" && (hour < 1 || hour > 12) {
		return clockPart{}, fmt.Errorf("%w: hour out of range in %q", ErrInvalidTimeRange, s)
	}
	if period == "" && hour > 23 {
		return clockPart{}, fmt.Errorf("%w: hour out of range in %q", ErrInvalidTimeRange, s)
	}
	return clockPart{hour: hour, minute: minute, period: period}, nil
}

func (p clockPart) minutes(period string) int {
	h := p.hour
	switch period {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return h*60 + p.minute
}

func opposite(period string) string {
	if period == "AM" {
		return "PM"
	}
	return "AM"
}

// ParseClock parses a single "H:MM AM/PM" value into minutes since midnight.
// Without a period the hour is read on a 24h clock.
func ParseClock(s string) (int, error) {
	p, err := parseClockPart(s)
	if err != nil {
		return 0, err
	}
	return p.minutes(p.period), nil
}

// ParseTimeRange parses "H:MM AM/PM-H:MM AM/PM". A side written without a
// period borrows the other side's period, flipping it when that would put the
// start after the end ("9:00-12:00 PM" is 9:00 AM to noon).
func ParseTimeRange(s string) (TimeRange, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	start, err := parseClockPart(parts[0])
	if err != nil {
		return TimeRange{}, err
	}
	end, err := parseClockPart(parts[1])
	if err != nil {
		return TimeRange{}, err
	}

	var r TimeRange
	switch {
	case start.period != "" && end.period != "":
		r = TimeRange{Start: start.minutes(start.period), End: end.minutes(end.period)}
	case start.period == "" && end.period != "":
		r = TimeRange{Start: start.minutes(end.period), End: end.minutes(end.period)}
		if r.Start > r.End {
			r.Start = start.minutes(opposite(end.period))
		}
	case start.period != "" && end.period == "":
		r = TimeRange{Start: start.minutes(start.period), End: end.minutes(start.period)}
		if r.End <= r.Start {
			r.End = end.minutes(opposite(start.period))
		}
	default:
		r = TimeRange{Start: start.minutes(""), End: end.minutes("")}
	}

	if r.End <= r.Start {
		return TimeRange{}, fmt.Errorf("%w: end must be after start in %q", ErrInvalidTimeRange, s)
	}
	return r, nil
}

// MinuteOfDay returns minutes since midnight of t in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatMinutes renders minutes since midnight as "H:MM AM/PM".
func FormatMinutes(m int) string {
	h, min := m/60, m%60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, min, period)
}
