package domain

const FreeTimeName = "Free time"

// FreeTime is the sentinel returned when no task is running. It has no id and
// cannot be toggled.
var FreeTime = Task{Name: FreeTimeName}

type HeroTasks struct {
	Previous *Task `json:"previous"`
	Current  Task  `json:"current"`
	Next     *Task `json:"next"`
}

func (h HeroTasks) IsFreeTime() bool {
	return h.Current.ID == ""
}

// Locate finds the previous, current and next task around nowMinutes.
// Tasks without a valid range are ignored and the input slice is left untouched.
func Locate(tasks []Task, nowMinutes int) HeroTasks {
	sorted := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Timed() {
			sorted = append(sorted, t)
		}
	}
	SortTasks(sorted)

	for i := range sorted {
		if sorted[i].Range.Contains(nowMinutes) {
			h := HeroTasks{Current: sorted[i]}
			if i > 0 {
				prev := sorted[i-1]
				h.Previous = &prev
			}
			if i < len(sorted)-1 {
				next := sorted[i+1]
				h.Next = &next
			}
			return h
		}
	}

	h := HeroTasks{Current: FreeTime}
	for i := range sorted {
		if sorted[i].Range.Start > nowMinutes {
			next := sorted[i]
			h.Next = &next
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Range.End <= nowMinutes {
			prev := sorted[i]
			h.Previous = &prev
			break
		}
	}
	return h
}
