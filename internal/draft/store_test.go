package draft

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursecraft/backend/internal/models"
)

func chapterReq() models.ChapterRequest {
	return models.ChapterRequest{
		Title:       "Linear equations",
		Description: "Equations with one unknown and how to solve them.",
	}
}

func lessonReq() models.LessonRequest {
	return models.LessonRequest{
		Title:       "Intro lesson",
		Description: "What an equation is and why we care.",
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore()

	d := store.Create(7)
	require.NotEmpty(t, d.ID)
	assert.Equal(t, 7, d.OwnerID)
	assert.Empty(t, d.Chapters)

	got, err := store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestStore_Discard(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	require.NoError(t, store.Discard(d.ID))

	_, err := store.Get(d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, store.Discard(d.ID), ErrDraftNotFound)
}

func TestStore_NodeIDsAreUnique(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		_, chapterID, err := store.AddChapter(d.ID, chapterReq())
		require.NoError(t, err)
		assert.False(t, seen[chapterID], "chapter id %q reused", chapterID)
		seen[chapterID] = true

		_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
		require.NoError(t, err)
		assert.False(t, seen[lessonID], "lesson id %q reused", lessonID)
		seen[lessonID] = true
	}

	// Removing a chapter never frees its id for reuse
	snapshot, err := store.Get(d.ID)
	require.NoError(t, err)
	removedID := snapshot.Chapters[0].ID
	_, err = store.RemoveChapter(d.ID, removedID)
	require.NoError(t, err)

	_, newID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)
	assert.NotEqual(t, removedID, newID)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)

	before, err := store.Get(d.ID)
	require.NoError(t, err)
	require.Len(t, before.Chapters, 1)
	assert.Equal(t, "Linear equations", before.Chapters[0].Title)

	_, err = store.UpdateChapter(d.ID, chapterID, models.ChapterRequest{
		Title:       "Quadratic equations",
		Description: "Equations with a squared unknown.",
	})
	require.NoError(t, err)

	// The earlier snapshot is untouched by the mutation
	assert.Equal(t, "Linear equations", before.Chapters[0].Title)

	after, err := store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quadratic equations", after.Chapters[0].Title)
}

func TestStore_FailedMutationLeavesSnapshot(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, _, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)

	before, err := store.Get(d.ID)
	require.NoError(t, err)

	_, err = store.UpdateChapter(d.ID, "missing-chapter", chapterReq())
	assert.ErrorIs(t, err, ErrChapterNotFound)

	after, err := store.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_LessonStartsWithOneSlot(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)
	_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
	require.NoError(t, err)

	snapshot, err := store.Get(d.ID)
	require.NoError(t, err)
	_, l := snapshot.FindLesson(lessonID)
	require.NotNil(t, l)
	require.Len(t, l.Attachments, 1)
	assert.True(t, l.Attachments[0].IsZero())
}

func TestStore_LastAttachmentSlotIsProtected(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)
	_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
	require.NoError(t, err)

	_, err = store.RemoveLessonAttachmentSlot(d.ID, lessonID, 0)
	assert.ErrorIs(t, err, ErrLastSlot)

	// With two slots the removal goes through
	_, err = store.AddLessonAttachmentSlot(d.ID, lessonID)
	require.NoError(t, err)
	_, err = store.RemoveLessonAttachmentSlot(d.ID, lessonID, 1)
	require.NoError(t, err)

	snapshot, err := store.Get(d.ID)
	require.NoError(t, err)
	_, l := snapshot.FindLesson(lessonID)
	assert.Len(t, l.Attachments, 1)
}

func TestStore_SetLessonAttachment(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)
	_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
	require.NoError(t, err)

	file := models.FileRef{Name: "notes.pdf", Size: 1024, MimeType: "application/pdf", ContentRef: "blob-1"}
	snapshot, err := store.SetLessonAttachment(d.ID, lessonID, 0, file)
	require.NoError(t, err)

	_, l := snapshot.FindLesson(lessonID)
	assert.Equal(t, file, l.Attachments[0])

	_, err = store.SetLessonAttachment(d.ID, lessonID, 5, file)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestStore_FillLessonAttachment(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)
	_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
	require.NoError(t, err)

	pdf := func(ref string) models.FileRef {
		return models.FileRef{Name: ref + ".pdf", Size: 1024, MimeType: "application/pdf", ContentRef: ref}
	}

	t.Run("the first file takes the starting empty slot", func(t *testing.T) {
		snapshot, err := store.FillLessonAttachment(d.ID, lessonID, pdf("blob-1"))
		require.NoError(t, err)

		_, l := snapshot.FindLesson(lessonID)
		require.Len(t, l.Attachments, 1)
		assert.Equal(t, "blob-1", l.Attachments[0].ContentRef)
	})

	t.Run("a full lesson grows a new slot", func(t *testing.T) {
		snapshot, err := store.FillLessonAttachment(d.ID, lessonID, pdf("blob-2"))
		require.NoError(t, err)

		_, l := snapshot.FindLesson(lessonID)
		require.Len(t, l.Attachments, 2)
		assert.Equal(t, "blob-2", l.Attachments[1].ContentRef)
	})

	t.Run("overlapping uploads never share a slot", func(t *testing.T) {
		store := NewStore()
		d := store.Create(7)
		_, chapterID, err := store.AddChapter(d.ID, chapterReq())
		require.NoError(t, err)
		_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
		require.NoError(t, err)

		const uploads = 8
		var wg sync.WaitGroup
		for i := 0; i < uploads; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.FillLessonAttachment(d.ID, lessonID, pdf(fmt.Sprintf("blob-%d", i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := store.Get(d.ID)
		require.NoError(t, err)
		_, l := got.FindLesson(lessonID)
		require.Len(t, l.Attachments, uploads)

		refs := make(map[string]struct{}, uploads)
		for _, f := range l.Attachments {
			require.False(t, f.IsZero())
			refs[f.ContentRef] = struct{}{}
		}
		assert.Len(t, refs, uploads)
	})

	_, err = store.FillLessonAttachment(d.ID, "missing", pdf("blob-3"))
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestStore_AssessmentLifecycle(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)

	assessment := models.AssessmentDraft{
		Title:       "Chapter quiz",
		Description: "Ten questions on linear equations.",
		CategoryID:  "gc-1",
	}

	_, assessmentID, err := store.SetAssessment(d.ID, chapterID, assessment)
	require.NoError(t, err)
	assert.NotEmpty(t, assessmentID)

	// A drafted chapter holds at most one assessment
	_, _, err = store.SetAssessment(d.ID, chapterID, assessment)
	assert.ErrorIs(t, err, ErrAssessmentExists)

	// Update keeps the id and attachments
	file := models.FileRef{Name: "rubric.pdf", Size: 50, MimeType: "application/pdf", ContentRef: "blob-9"}
	_, err = store.AddAssessmentAttachment(d.ID, chapterID, file)
	require.NoError(t, err)

	snapshot, err := store.UpdateAssessment(d.ID, chapterID, models.AssessmentDraft{
		Title:       "Chapter exam",
		Description: "Twenty questions on linear equations.",
		CategoryID:  "gc-2",
	})
	require.NoError(t, err)

	ch := snapshot.FindChapter(chapterID)
	require.NotNil(t, ch.Assessment)
	assert.Equal(t, assessmentID, ch.Assessment.ID)
	assert.Equal(t, "Chapter exam", ch.Assessment.Title)
	assert.Len(t, ch.Assessment.Attachments, 1)

	snapshot, err = store.RemoveAssessment(d.ID, chapterID)
	require.NoError(t, err)
	assert.Nil(t, snapshot.FindChapter(chapterID).Assessment)

	_, err = store.RemoveAssessment(d.ID, chapterID)
	assert.ErrorIs(t, err, ErrNoAssessment)
}

func TestStore_RemoveChapterDropsSubtree(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	_, chapterID, err := store.AddChapter(d.ID, chapterReq())
	require.NoError(t, err)
	_, lessonID, err := store.AddLesson(d.ID, chapterID, lessonReq())
	require.NoError(t, err)

	snapshot, err := store.RemoveChapter(d.ID, chapterID)
	require.NoError(t, err)

	assert.Nil(t, snapshot.FindChapter(chapterID))
	_, l := snapshot.FindLesson(lessonID)
	assert.Nil(t, l)
}

func TestStore_SetPeriodsDeduplicates(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	snapshot, err := store.SetPeriods(d.ID, []string{"sem-1", "sem-1", "sem-2"}, []string{"q-1", "q-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"sem-1", "sem-2"}, snapshot.SemesterIDs)
	assert.Equal(t, []string{"q-1"}, snapshot.QuarterIDs)
}

func TestStore_GradingScheme(t *testing.T) {
	store := NewStore()
	d := store.Create(7)

	snapshot, err := store.SetGradingScheme(d.ID, models.GradingScheme{
		Categories: []models.GradingCategory{
			{Name: "Quizzes", Weight: 40},
			{Name: "Exams", Weight: 60},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, snapshot.Grades)
	require.Len(t, snapshot.Grades.Categories, 2)
	assert.NotEmpty(t, snapshot.Grades.Categories[0].ID)
	assert.NotEqual(t, snapshot.Grades.Categories[0].ID, snapshot.Grades.Categories[1].ID)

	t.Run("ensure reuses an existing category by name", func(t *testing.T) {
		id, err := store.EnsureGradingCategory(d.ID, "Quizzes", 40)
		require.NoError(t, err)
		assert.Equal(t, snapshot.Grades.Categories[0].ID, id)
	})

	t.Run("ensure creates a missing category", func(t *testing.T) {
		id, err := store.EnsureGradingCategory(d.ID, "Homework", 20)
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		after, err := store.Get(d.ID)
		require.NoError(t, err)
		assert.Len(t, after.Grades.Categories, 3)
	})
}
