package domain_test

import (
	"strings"
	"testing"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() domain.SyllabusTree {
	return domain.SyllabusTree{
		"Physics": {
			"Paper 1": {
				{ID: "phy1-1", Title: "Vectors"},
				{ID: "phy1-2", Title: "Dynamics", Note: "revise"},
			},
			"Paper 2": {
				{ID: "phy2-1", Title: "Thermodynamics", Done: true},
			},
		},
		"Chemistry": {
			"Paper 1": {
				{ID: "chem1-1", Title: "Lab Safety"},
			},
		},
	}
}

func TestSyllabusTree_ToggleChapter(t *testing.T) {
	ref := domain.ChapterRef{Subject: "Physics", Paper: "Paper 1", ID: "phy1-2"}

	t.Run("Success: Double toggle restores state and keeps note", func(t *testing.T) {
		tree := sampleTree()

		done, err := tree.ToggleChapter(ref)
		require.NoError(t, err)
		assert.True(t, done)

		done, err = tree.ToggleChapter(ref)
		require.NoError(t, err)
		assert.False(t, done)

		ch, err := tree.Chapter(ref)
		require.NoError(t, err)
		assert.Equal(t, "revise", ch.Note)
		assert.Equal(t, sampleTree(), tree)
	})

	t.Run("Error: Unknown chapter", func(t *testing.T) {
		tree := sampleTree()
		_, err := tree.ToggleChapter(domain.ChapterRef{Subject: "Physics", Paper: "Paper 1", ID: "nope"})
		assert.ErrorIs(t, err, domain.ErrChapterNotFound)

		_, err = tree.ToggleChapter(domain.ChapterRef{Subject: "Art", Paper: "Paper 1", ID: "phy1-1"})
		assert.ErrorIs(t, err, domain.ErrChapterNotFound)
	})
}

func TestSyllabusTree_SetNote(t *testing.T) {
	ref := domain.ChapterRef{Subject: "Chemistry", Paper: "Paper 1", ID: "chem1-1"}

	t.Run("Success: Note saved without touching done", func(t *testing.T) {
		tree := sampleTree()
		require.NoError(t, tree.SetNote(ref, "titration"))

		ch, _ := tree.Chapter(ref)
		assert.Equal(t, "titration", ch.Note)
		assert.False(t, ch.Done)
	})

	t.Run("Error: Note too long", func(t *testing.T) {
		tree := sampleTree()
		err := tree.SetNote(ref, strings.Repeat("x", domain.MaxNoteLen+1))
		assert.ErrorIs(t, err, domain.ErrNoteTooLong)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSyllabusTree_Clone(t *testing.T) {
	tree := sampleTree()
	cp := tree.Clone()

	_, err := cp.ToggleChapter(domain.ChapterRef{Subject: "Physics", Paper: "Paper 1", ID: "phy1-1"})
	require.NoError(t, err)

	assert.False(t, tree["Physics"]["Paper 1"][0].Done)
	assert.True(t, cp["Physics"]["Paper 1"][0].Done)
}

func TestSyllabusTree_Validate(t *testing.T) {
	t.Run("Success: Same id in different papers is allowed", func(t *testing.T) {
		tree := domain.SyllabusTree{
			"Math": {
				"Paper 1": {{ID: "c1"}},
				"Paper 2": {{ID: "c1"}},
			},
		}
		assert.NoError(t, tree.Validate())
	})

	t.Run("Error: Duplicate inside a paper", func(t *testing.T) {
		tree := domain.SyllabusTree{"Math": {"Paper 1": {{ID: "c1"}, {ID: "c1"}}}}
		assert.ErrorIs(t, tree.Validate(), domain.ErrDuplicateChapter)
	})

	t.Run("Error: Empty id", func(t *testing.T) {
		tree := domain.SyllabusTree{"Math": {"Paper 1": {{ID: " "}}}}
		assert.ErrorIs(t, tree.Validate(), domain.ErrValidation)
	})
}

func TestSyllabusTree_ClearCompletion(t *testing.T) {
	tree := sampleTree()
	tree.ClearCompletion()

	p := domain.CalcSyllabusProgress(tree)
	assert.Equal(t, 0, p.Completed)
	assert.Equal(t, 4, p.Total)
	assert.Empty(t, tree["Physics"]["Paper 1"][1].Note)
	assert.Equal(t, "Dynamics", tree["Physics"]["Paper 1"][1].Title)
}

func TestSyllabusTree_Ordering(t *testing.T) {
	tree := sampleTree()
	assert.Equal(t, []string{"Chemistry", "Physics"}, tree.Subjects())
	assert.Equal(t, []string{"Paper 1", "Paper 2"}, tree.Papers("Physics"))
	assert.Empty(t, tree.Papers("Art"))
}
