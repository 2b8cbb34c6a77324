package domain

import (
	"errors"
	"time"
)

var (
	ErrTaskNotScheduled = errors.New("task is not scheduled on that date")
	ErrInvalidDate      = errors.New("invalid date (expected YYYY-MM-DD)")
)

// DailyCompletion maps ISO date -> task id -> done. Entries are created on
// first toggle and never pruned.
type DailyCompletion map[string]map[string]bool

func (d DailyCompletion) IsDone(date, taskID string) bool {
	return d[date][taskID]
}

// Toggle flips a task flag for date and returns the new value.
func (d DailyCompletion) Toggle(date, taskID string) bool {
	day, ok := d[date]
	if !ok {
		day = make(map[string]bool)
		d[date] = day
	}
	day[taskID] = !day[taskID]
	return day[taskID]
}

func (d DailyCompletion) Clone() DailyCompletion {
	if d == nil {
		return nil
	}
	out := make(DailyCompletion, len(d))
	for date, tasks := range d {
		cp := make(map[string]bool, len(tasks))
		for id, done := range tasks {
			cp[id] = done
		}
		out[date] = cp
	}
	return out
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
