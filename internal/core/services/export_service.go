package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type ExportService struct {
	tracker *TrackerService
	store   *StateStore
}

func NewExportService(tracker *TrackerService, store *StateStore) *ExportService {
	return &ExportService{
		tracker: tracker,
		store:   store,
	}
}

func (s *ExportService) Snapshot(ctx context.Context, now time.Time) (*domain.Snapshot, error) {
	tree, daily, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	rng, err := s.tracker.DateRange(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{
		Exported:         now.UTC(),
		TimeProgress:     domain.CalcTimeProgress(now, rng),
		SyllabusProgress: domain.CalcSyllabusProgress(tree),
		Chapters:         domain.Flatten(tree),
		DailyTasks:       daily,
	}, nil
}

// FileName returns the attachment name for an export download.
func FileName(format string) string {
	return "hsc-study-progress." + format
}

func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Write renders the export in format to w.
func (s *ExportService) Write(ctx context.Context, w io.Writer, format string, now time.Time) error {
	switch format {
	case FormatJSON, "":
		snap, err := s.Snapshot(ctx, now)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatCSV:
		tree, _, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		return domain.WriteCSV(w, domain.Flatten(tree))
	default:
		return fmt.Errorf("%w: unknown export format %q", domain.ErrValidation, format)
	}
}
