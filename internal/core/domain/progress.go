package domain

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidDateRange = errors.New("start date must be before end date")

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() || !r.Start.Before(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

type TimeProgress struct {
	Percentage int `json:"percentage"`
	DaysPassed int `json:"daysPassed"`
	TotalDays  int `json:"totalDays"`
}

type SyllabusProgress struct {
	Percentage int `json:"percentage"`
	Completed  int `json:"completedChapters"`
	Total      int `json:"totalChapters"`
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CalcTimeProgress reports the elapsed fraction of rng at now. A zero-length
// range reads 0% before its start and 100% from then on.
func CalcTimeProgress(now time.Time, rng DateRange) TimeProgress {
	totalDays := ceilDays(rng.End.Sub(rng.Start))
	if totalDays <= 0 {
		if now.Before(rng.Start) {
			return TimeProgress{}
		}
		return TimeProgress{Percentage: 100}
	}

	daysPassed := clamp(ceilDays(now.Sub(rng.Start)), 0, totalDays)
	pct := int(math.Round(100 * float64(daysPassed) / float64(totalDays)))

	return TimeProgress{
		Percentage: clamp(pct, 0, 100),
		DaysPassed: daysPassed,
		TotalDays:  totalDays,
	}
}

func CalcSyllabusProgress(tree SyllabusTree) SyllabusProgress {
	var p SyllabusProgress
	for _, papers := range tree {
		for _, chapters := range papers {
			p.Total += len(chapters)
			for _, ch := range chapters {
				if ch.Done {
					p.Completed++
				}
			}
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
	}
	return p
}
