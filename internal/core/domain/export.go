package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

var csvHeader = []string{"Subject", "Paper", "Chapter", "Completed", "Note"}

// ChapterRow is one flattened chapter with its position in the tree.
type ChapterRow struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Done    bool   `json:"done"`
	Note    string `json:"note"`
	Subject string `json:"subject"`
	Paper   string `json:"paper"`
}

type Snapshot struct {
	Exported         time.Time        `json:"exported"`
	TimeProgress     TimeProgress     `json:"timeProgress"`
	SyllabusProgress SyllabusProgress `json:"syllabusProgress"`
	Chapters         []ChapterRow     `json:"chapters"`
	DailyTasks       DailyCompletion  `json:"dailyTasks"`
}

// Flatten lists every chapter ordered by subject, then paper, then the
// chapter's position inside its paper.
func Flatten(tree SyllabusTree) []ChapterRow {
	rows := make([]ChapterRow, 0)
	for _, subject := range tree.Subjects() {
		for _, paper := range tree.Papers(subject) {
			for _, ch := range tree[subject][paper] {
				rows = append(rows, ChapterRow{
					ID:      ch.ID,
					Title:   ch.Title,
					Done:    ch.Done,
					Note:    ch.Note,
					Subject: subject,
					Paper:   paper,
				})
			}
		}
	}
	return rows
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// quote also folds CRLF and lone CR into LF, since CSV readers drop the CR
// inside quoted fields.
func quote(s string) string {
	s = lineEndings.Replace(s)
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteCSV writes Subject,Paper,Chapter,Completed,Note. Text columns are always
// quoted with LF line endings; the completion column is a bare Yes/No.
func WriteCSV(w io.Writer, rows []ChapterRow) error {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n",
			quote(r.Subject), quote(r.Paper), quote(r.Title), yesNo(r.Done), quote(r.Note))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ParseCSV reads a file produced by WriteCSV. Chapter ids are not part of the
// CSV, so returned rows carry an empty ID.
func ParseCSV(r io.Reader) ([]ChapterRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", ErrDecode, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv: missing header", ErrDecode)
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			return nil, fmt.Errorf("%w: csv: unexpected header %q", ErrDecode, records[0][i])
		}
	}

	rows := make([]ChapterRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		var done bool
		switch rec[3] {
		case "Yes":
			done = true
		case "No":
		default:
			return nil, fmt.Errorf("%w: csv: completion must be Yes or No, got %q", ErrDecode, rec[3])
		}
		rows = append(rows, ChapterRow{
			Subject: rec[0],
			Paper:   rec[1],
			Title:   rec[2],
			Done:    done,
			Note:    rec[4],
		})
	}
	return rows, nil
}
