package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDayKind = errors.New("unknown schedule key")
	ErrTaskIDEmpty    = errors.New("task id cannot be empty")
)

type DayKind string

const (
	DayFriday    DayKind = "friday"
	DaySunTueThu DayKind = "sunTueThu"
	DaySatMonWed DayKind = "satMonWed"
)

var DayKinds = []DayKind{DayFriday, DaySunTueThu, DaySatMonWed}

type PlaceholderKind int

const (
	PlaceholderNone PlaceholderKind = iota
	PlaceholderRotationSubject
)

// RotationPlaceholder is the token a routine file uses inside a task name.
const RotationPlaceholder = "{rotation}"

// TaskName is either a literal or a template resolved against a placeholder
// value at schedule time.
type TaskName struct {
	Text        string
	Placeholder PlaceholderKind
}

func LiteralName(s string) TaskName {
	return TaskName{Text: s}
}

func TemplateName(tmpl string) TaskName {
	return TaskName{Text: tmpl, Placeholder: PlaceholderRotationSubject}
}

func (n TaskName) Resolve(rotationSubject string) string {
	if n.Placeholder == PlaceholderRotationSubject {
		return strings.ReplaceAll(n.Text, RotationPlaceholder, rotationSubject)
	}
	return n.Text
}

func (n TaskName) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Text)
}

func (n *TaskName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.Contains(s, RotationPlaceholder) {
		*n = TemplateName(s)
	} else {
		*n = LiteralName(s)
	}
	return nil
}

type TaskDef struct {
	ID   string   `json:"id"`
	Name TaskName `json:"name"`
	Time string   `json:"time"`
}

type DayRoutine struct {
	Morning   []TaskDef `json:"morning"`
	SelfStudy []TaskDef `json:"selfStudy"`
}

// RoutineTable is the static weekly template keyed by day kind.
type RoutineTable map[DayKind]DayRoutine

// ParseRoutineTable decodes and validates a routine JSON document.
func ParseRoutineTable(data []byte) (RoutineTable, error) {
	var table RoutineTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: routine: %v", ErrDecode, err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (t RoutineTable) Validate() error {
	for kind, day := range t {
		switch kind {
		case DayFriday, DaySunTueThu, DaySatMonWed:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownDayKind, kind)
		}
		seen := make(map[string]bool)
		for _, def := range append(append([]TaskDef(nil), day.Morning...), day.SelfStudy...) {
			if strings.TrimSpace(def.ID) == "" {
				return fmt.Errorf("%w: %s", ErrTaskIDEmpty, kind)
			}
			if seen[def.ID] {
				return fmt.Errorf("%w: duplicate task id %q in %s", ErrValidation, def.ID, kind)
			}
			seen[def.ID] = true
			if _, err := ParseTimeRange(def.Time); err != nil {
				return fmt.Errorf("%s/%s: %w", kind, def.ID, err)
			}
		}
	}
	return nil
}
