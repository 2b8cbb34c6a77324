package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

const DefaultHistoryDays = 7

type TrackerConfig struct {
	RotationStart time.Time
	DefaultRange  domain.DateRange
	Location      *time.Location
}

// StatusProvider exposes the current sync status for the dashboard.
type StatusProvider interface {
	Status(ctx context.Context) domain.SyncStatus
}

type TrackerService struct {
	store    *StateStore
	routine  domain.RoutineTable
	defaults SyllabusSource
	events   *Events
	status   StatusProvider
	cfg      TrackerConfig
}

func NewTrackerService(store *StateStore, routine domain.RoutineTable, defaults SyllabusSource, events *Events, cfg TrackerConfig) *TrackerService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &TrackerService{
		store:    store,
		routine:  routine,
		defaults: defaults,
		events:   events,
		cfg:      cfg,
	}
}

func (s *TrackerService) SetStatusProvider(p StatusProvider) {
	s.status = p
}

func (s *TrackerService) Location() *time.Location {
	return s.cfg.Location
}

type TaskView struct {
	domain.Task
	Done bool `json:"done"`
}

type ScheduleView struct {
	Date            string         `json:"date"`
	Kind            domain.DayKind `json:"kind"`
	RotationSubject string         `json:"rotationSubject"`
	Morning         []TaskView     `json:"morning"`
	SelfStudy       []TaskView     `json:"selfStudy"`
}

type HeroView struct {
	Previous *TaskView `json:"previous"`
	Current  TaskView  `json:"current"`
	Next     *TaskView `json:"next"`
	FreeTime bool      `json:"freeTime"`
}

type HistoryRow struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Cells []bool `json:"cells"`
}

type HistoryView struct {
	Columns []string     `json:"columns"`
	TaskIDs []string     `json:"taskIds"`
	Rows    []HistoryRow `json:"rows"`
}

type Dashboard struct {
	Now              time.Time               `json:"now"`
	TimeProgress     domain.TimeProgress     `json:"timeProgress"`
	SyllabusProgress domain.SyllabusProgress `json:"syllabusProgress"`
	DateRange        domain.DateRange        `json:"dateRange"`
	Hero             HeroView                `json:"hero"`
	RotationSubject  string                  `json:"rotationSubject"`
	ShowTasks        bool                    `json:"showTasks"`
	Sync             domain.SyncStatus       `json:"sync"`
}

func (s *TrackerService) changed(reason string) {
	s.events.Publish(Event{Type: EventStateChanged, Origin: OriginLocal, Payload: reason})
}

func (s *TrackerService) dayOf(t time.Time) time.Time {
	t = t.In(s.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *TrackerService) Syllabus(ctx context.Context) (domain.SyllabusTree, error) {
	tree, _, err := s.store.Load(ctx)
	return tree, err
}

func (s *TrackerService) ToggleChapter(ctx context.Context, ref domain.ChapterRef) (bool, error) {
	var done bool
	err := s.store.Update(ctx, func(tree domain.SyllabusTree, _ domain.DailyCompletion) error {
		var err error
		done, err = tree.ToggleChapter(ref)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("tracker: toggle chapter: %w", err)
	}
	s.changed("chapter")
	return done, nil
}

func (s *TrackerService) UpdateNote(ctx context.Context, ref domain.ChapterRef, note string) error {
	err := s.store.Update(ctx, func(tree domain.SyllabusTree, _ domain.DailyCompletion) error {
		return tree.SetNote(ref, note)
	})
	if err != nil {
		return fmt.Errorf("tracker: update note: %w", err)
	}
	s.changed("note")
	return nil
}

func (s *TrackerService) scheduleFor(date time.Time) domain.DaySchedule {
	return domain.ScheduleFor(s.dayOf(date), s.cfg.RotationStart, s.routine)
}

func withDone(tasks []domain.Task, daily domain.DailyCompletion) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskView{Task: t, Done: daily.IsDone(t.Date, t.ID)})
	}
	return out
}

func (s *TrackerService) Schedule(ctx context.Context, date time.Time) (ScheduleView, error) {
	_, daily, err := s.store.Load(ctx)
	if err != nil {
		return ScheduleView{}, err
	}
	sched := s.scheduleFor(date)
	return ScheduleView{
		Date:            sched.Date,
		Kind:            sched.Kind,
		RotationSubject: sched.RotationSubject,
		Morning:         withDone(sched.Morning, daily),
		SelfStudy:       withDone(sched.SelfStudy, daily),
	}, nil
}

// ToggleDailyTask flips a task on a YYYY-MM-DD date. Only ids scheduled on
// that date are accepted.
func (s *TrackerService) ToggleDailyTask(ctx context.Context, date, taskID string) (bool, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(taskID) == "" {
		return false, fmt.Errorf("%w: date and task id are required", domain.ErrValidation)
	}
	d, err := domain.ParseDate(date, s.cfg.Location)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !s.scheduleFor(d).Has(taskID) {
		return false, fmt.Errorf("%w: %s on %s", domain.ErrTaskNotScheduled, taskID, date)
	}

	var done bool
	err = s.store.Update(ctx, func(_ domain.SyllabusTree, daily domain.DailyCompletion) error {
		done = daily.Toggle(date, taskID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("tracker: toggle task: %w", err)
	}
	s.changed("task")
	return done, nil
}

func (s *TrackerService) TaskDone(ctx context.Context, date, taskID string) (bool, error) {
	_, daily, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	return daily.IsDone(date, taskID), nil
}

func (s *TrackerService) hero(now time.Time, daily domain.DailyCompletion) HeroView {
	local := now.In(s.cfg.Location)
	sched := s.scheduleFor(local)
	tasks := sched.Tasks()
	for _, t := range tasks {
		if !t.Timed() {
			log.Printf("[TRACKER] task %s has unparsable time %q, skipping", t.ID, t.Time)
		}
	}

	h := domain.Locate(tasks, domain.MinuteOfDay(local))
	view := HeroView{
		Current:  TaskView{Task: h.Current, Done: daily.IsDone(h.Current.Date, h.Current.ID)},
		FreeTime: h.IsFreeTime(),
	}
	if h.Previous != nil {
		view.Previous = &TaskView{Task: *h.Previous, Done: daily.IsDone(h.Previous.Date, h.Previous.ID)}
	}
	if h.Next != nil {
		view.Next = &TaskView{Task: *h.Next, Done: daily.IsDone(h.Next.Date, h.Next.ID)}
	}
	return view
}

func (s *TrackerService) Hero(ctx context.Context, now time.Time) (HeroView, error) {
	_, daily, err := s.store.Load(ctx)
	if err != nil {
		return HeroView{}, err
	}
	return s.hero(now, daily), nil
}

func shortName(name string) string {
	if i := strings.Index(name, " ("); i > 0 {
		return name[:i]
	}
	return name
}

// History builds a days x tasks grid ending today. Columns are today's tasks;
// a cell is true only when that task was scheduled and ticked on the row's date.
func (s *TrackerService) History(ctx context.Context, now time.Time, days int) (HistoryView, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	_, daily, err := s.store.Load(ctx)
	if err != nil {
		return HistoryView{}, err
	}

	today := s.dayOf(now)
	sample := s.scheduleFor(today)
	columns := append(append([]domain.Task(nil), sample.Morning...), sample.SelfStudy...)

	view := HistoryView{
		Columns: make([]string, 0, len(columns)),
		TaskIDs: make([]string, 0, len(columns)),
		Rows:    make([]HistoryRow, 0, days),
	}
	for _, t := range columns {
		view.Columns = append(view.Columns, shortName(t.Name))
		view.TaskIDs = append(view.TaskIDs, t.ID)
	}

	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		sched := s.scheduleFor(d)
		row := HistoryRow{
			Date:  sched.Date,
			Label: d.Format("Mon, Jan 2"),
			Cells: make([]bool, len(columns)),
		}
		for j, t := range columns {
			row.Cells[j] = sched.Has(t.ID) && daily.IsDone(sched.Date, t.ID)
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// ResetAll restores the selected bundled syllabus and clears every daily tick.
func (s *TrackerService) ResetAll(ctx context.Context) error {
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		return err
	}
	tree, err := s.defaults.Syllabus(prefs.SelectedConfig)
	if err != nil {
		return fmt.Errorf("tracker: reset: %w", err)
	}
	if err := s.store.Save(ctx, tree, domain.DailyCompletion{}); err != nil {
		return fmt.Errorf("tracker: reset: %w", err)
	}
	log.Printf("[TRACKER] progress reset to bundled syllabus %q", prefs.SelectedConfig)
	s.changed("reset")
	return nil
}

// ClearSyllabusCompletion unticks every chapter and drops every note.
func (s *TrackerService) ClearSyllabusCompletion(ctx context.Context) error {
	err := s.store.Update(ctx, func(tree domain.SyllabusTree, _ domain.DailyCompletion) error {
		tree.ClearCompletion()
		return nil
	})
	if err != nil {
		return fmt.Errorf("tracker: clear syllabus: %w", err)
	}
	s.changed("clear-syllabus")
	return nil
}

func (s *TrackerService) DateRange(ctx context.Context) (domain.DateRange, error) {
	return s.store.DateRange(ctx, s.cfg.DefaultRange)
}

func (s *TrackerService) Progress(ctx context.Context, now time.Time) (domain.TimeProgress, domain.SyllabusProgress, error) {
	tree, _, err := s.store.Load(ctx)
	if err != nil {
		return domain.TimeProgress{}, domain.SyllabusProgress{}, err
	}
	rng, err := s.DateRange(ctx)
	if err != nil {
		return domain.TimeProgress{}, domain.SyllabusProgress{}, err
	}
	return domain.CalcTimeProgress(now, rng), domain.CalcSyllabusProgress(tree), nil
}

func (s *TrackerService) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	tree, daily, err := s.store.Load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	rng, err := s.DateRange(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Now:              now.In(s.cfg.Location),
		TimeProgress:     domain.CalcTimeProgress(now, rng),
		SyllabusProgress: domain.CalcSyllabusProgress(tree),
		DateRange:        rng,
		Hero:             s.hero(now, daily),
		RotationSubject:  domain.RotationSubject(s.dayOf(now), s.cfg.RotationStart),
		ShowTasks:        prefs.ShowTasks,
	}
	if s.status != nil {
		d.Sync = s.status.Status(ctx)
	}
	return d, nil
}
