package domain

import (
	"sort"
	"time"
)

const DateLayout = "2006-01-02"

// RotationSubjects is the fixed focus cycle; the index advances once a day.
var RotationSubjects = []string{"Physics", "Chemistry", "Math", "Biology", "ICT", "English"}

const (
	SlotMorning   = "morning"
	SlotSelfStudy = "selfStudy"
)

// Task is a concrete, dated instance of a TaskDef.
type Task struct {
	ID    string    `json:"id,omitempty"`
	Name  string    `json:"name"`
	Time  string    `json:"time"`
	Slot  string    `json:"slot,omitempty"`
	Date  string    `json:"date,omitempty"`
	Range TimeRange `json:"range"`
}

// Timed reports whether the task carries a usable interval.
func (t Task) Timed() bool {
	return t.Range.End > t.Range.Start
}

// Toggleable reports whether the task can carry a completion flag.
func (t Task) Toggleable() bool {
	return t.ID != "" && t.Date != ""
}

type DaySchedule struct {
	Date            string  `json:"date"`
	Kind            DayKind `json:"kind"`
	RotationSubject string  `json:"rotationSubject"`
	Morning         []Task  `json:"morning"`
	SelfStudy       []Task  `json:"selfStudy"`
}

// Tasks returns morning and self-study tasks together, ordered by start time.
func (s DaySchedule) Tasks() []Task {
	all := make([]Task, 0, len(s.Morning)+len(s.SelfStudy))
	all = append(all, s.Morning...)
	all = append(all, s.SelfStudy...)
	SortTasks(all)
	return all
}

// Has reports whether a task id is scheduled on this day.
func (s DaySchedule) Has(taskID string) bool {
	for _, t := range s.Morning {
		if t.ID == taskID {
			return true
		}
	}
	for _, t := range s.SelfStudy {
		if t.ID == taskID {
			return true
		}
	}
	return false
}

func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Range.Start < tasks[j].Range.Start
	})
}

func DayKindFor(wd time.Weekday) DayKind {
	switch wd {
	case time.Friday:
		return DayFriday
	case time.Sunday, time.Tuesday, time.Thursday:
		return DaySunTueThu
	default:
		return DaySatMonWed
	}
}

// DaysBetween counts calendar days from a to b using each value's own
// year/month/day, so DST transitions never shift the count.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// RotationIndex is always in [0, len(RotationSubjects)), including for dates
// before rotationStart.
func RotationIndex(date, rotationStart time.Time) int {
	n := len(RotationSubjects)
	d := DaysBetween(rotationStart, date)
	return ((d % n) + n) % n
}

func RotationSubject(date, rotationStart time.Time) string {
	return RotationSubjects[RotationIndex(date, rotationStart)]
}

// ScheduleFor expands the routine for date. The table is never modified.
func ScheduleFor(date, rotationStart time.Time, table RoutineTable) DaySchedule {
	kind := DayKindFor(date.Weekday())
	subject := RotationSubject(date, rotationStart)
	dateStr := date.Format(DateLayout)

	day := table[kind]
	return DaySchedule{
		Date:            dateStr,
		Kind:            kind,
		RotationSubject: subject,
		Morning:         expand(day.Morning, SlotMorning, dateStr, subject),
		SelfStudy:       expand(day.SelfStudy, SlotSelfStudy, dateStr, subject),
	}
}

func expand(defs []TaskDef, slot, date, subject string) []Task {
	tasks := make([]Task, 0, len(defs))
	for _, def := range defs {
		t := Task{
			ID:   def.ID,
			Name: def.Name.Resolve(subject),
			Time: def.Time,
			Slot: slot,
			Date: date,
		}
		if r, err := ParseTimeRange(def.Time); err == nil {
			t.Range = r
		}
		tasks = append(tasks, t)
	}
	return tasks
}
