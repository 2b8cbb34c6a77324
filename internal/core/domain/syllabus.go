package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrDuplicateChapter = errors.New("duplicate chapter id")
	ErrNoteTooLong      = fmt.Errorf("%w: note is too long (max 2000 chars)", ErrValidation)
)

const MaxNoteLen = 2000

type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
	Note  string `json:"note"`
}

// SyllabusTree maps subject -> paper -> ordered chapters.
type SyllabusTree map[string]map[string][]Chapter

// ChapterRef addresses a chapter inside the tree.
type ChapterRef struct {
	Subject string `json:"subject" binding:"required"`
	Paper   string `json:"paper" binding:"required"`
	ID      string `json:"chapterId" binding:"required"`
}

func (r ChapterRef) key() string {
	return r.Subject + "/" + r.Paper + "/" + r.ID
}

// Clone returns a deep copy so callers never share chapter slices.
func (t SyllabusTree) Clone() SyllabusTree {
	if t == nil {
		return nil
	}
	out := make(SyllabusTree, len(t))
	for subject, papers := range t {
		cp := make(map[string][]Chapter, len(papers))
		for paper, chapters := range papers {
			cp[paper] = append([]Chapter(nil), chapters...)
		}
		out[subject] = cp
	}
	return out
}

// Subjects returns subject names in sorted order.
func (t SyllabusTree) Subjects() []string {
	subjects := make([]string, 0, len(t))
	for s := range t {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}

// Papers returns the paper names of a subject in sorted order.
func (t SyllabusTree) Papers(subject string) []string {
	papers := make([]string, 0, len(t[subject]))
	for p := range t[subject] {
		papers = append(papers, p)
	}
	sort.Strings(papers)
	return papers
}

// Validate checks that chapter ids are unique across the whole tree.
func (t SyllabusTree) Validate() error {
	_, err := t.Index()
	return err
}

// Index builds a global subject/paper/id lookup.
func (t SyllabusTree) Index() (map[string]Chapter, error) {
	idx := make(map[string]Chapter)
	for subject, papers := range t {
		for paper, chapters := range papers {
			for _, ch := range chapters {
				if strings.TrimSpace(ch.ID) == "" {
					return nil, fmt.Errorf("%w: empty chapter id in %s/%s", ErrValidation, subject, paper)
				}
				ref := ChapterRef{Subject: subject, Paper: paper, ID: ch.ID}
				if _, exists := idx[ref.key()]; exists {
					return nil, fmt.Errorf("%w: %s", ErrDuplicateChapter, ref.key())
				}
				idx[ref.key()] = ch
			}
		}
	}
	return idx, nil
}

func (t SyllabusTree) find(ref ChapterRef) (int, error) {
	chapters, ok := t[ref.Subject][ref.Paper]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrChapterNotFound, ref.key())
	}
	for i := range chapters {
		if chapters[i].ID == ref.ID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrChapterNotFound, ref.key())
}

// Chapter returns a copy of the referenced chapter.
func (t SyllabusTree) Chapter(ref ChapterRef) (Chapter, error) {
	i, err := t.find(ref)
	if err != nil {
		return Chapter{}, err
	}
	return t[ref.Subject][ref.Paper][i], nil
}

// ToggleChapter flips the done flag in place and returns the new value.
func (t SyllabusTree) ToggleChapter(ref ChapterRef) (bool, error) {
	i, err := t.find(ref)
	if err != nil {
		return false, err
	}
	ch := &t[ref.Subject][ref.Paper][i]
	ch.Done = !ch.Done
	return ch.Done, nil
}

func (t SyllabusTree) SetNote(ref ChapterRef, note string) error {
	if len(note) > MaxNoteLen {
		return ErrNoteTooLong
	}
	i, err := t.find(ref)
	if err != nil {
		return err
	}
	t[ref.Subject][ref.Paper][i].Note = note
	return nil
}

// ClearCompletion marks every chapter undone and drops every note.
func (t SyllabusTree) ClearCompletion() {
	for _, papers := range t {
		for paper, chapters := range papers {
			for i := range chapters {
				chapters[i].Done = false
				chapters[i].Note = ""
			}
			papers[paper] = chapters
		}
	}
}
