package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/draft"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/validation"
)

// mockCourseAPI is a mock implementation of CourseAPI
type mockCourseAPI struct {
	mu          sync.Mutex
	createCalls int
	lastInput   courseapi.CreateCourseInput

	courseID  string
	createErr error
	// when set, CreateCourse blocks until the channel is closed
	block chan struct{}
}

func (m *mockCourseAPI) CreateCourse(ctx context.Context, in courseapi.CreateCourseInput) (string, error) {
	m.mu.Lock()
	m.createCalls++
	m.lastInput = in
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.courseID, nil
}

func (m *mockCourseAPI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

func (m *mockCourseAPI) input() courseapi.CreateCourseInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInput
}

func (m *mockCourseAPI) CreateChapter(ctx context.Context, courseID, quarterID, title, description string) (string, error) {
	return "", nil
}

func (m *mockCourseAPI) DeleteChapter(ctx context.Context, chapterID string) error { return nil }

func (m *mockCourseAPI) CreateLesson(ctx context.Context, chapterID string, in courseapi.LessonInput) (string, error) {
	return "", nil
}

func (m *mockCourseAPI) UpdateLesson(ctx context.Context, lessonID string, in courseapi.LessonInput) error {
	return nil
}

func (m *mockCourseAPI) DeleteLesson(ctx context.Context, lessonID string) error { return nil }

func (m *mockCourseAPI) CreateChapterAssessment(ctx context.Context, chapterID string, in courseapi.AssessmentInput) (string, error) {
	return "", nil
}

func (m *mockCourseAPI) CreateLessonAssessment(ctx context.Context, lessonID string, in courseapi.AssessmentInput) (string, error) {
	return "", nil
}

func (m *mockCourseAPI) DeleteAssessment(ctx context.Context, assessmentID string) error { return nil }

func (m *mockCourseAPI) CreateAssessmentCategory(ctx context.Context, courseID, name string, weight int) (string, error) {
	return "", nil
}

func (m *mockCourseAPI) GetQuarter(ctx context.Context, quarterID string) (*models.Quarter, error) {
	return &models.Quarter{ID: quarterID}, nil
}

func (m *mockCourseAPI) GetChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error) {
	return nil, nil
}

func (m *mockCourseAPI) GetChapterWithLessons(ctx context.Context, chapterID string) (*models.ChapterContent, error) {
	return nil, nil
}

// stageSubmittableDraft builds a draft that passes the whole submit gate,
// with real staged bytes behind every file ref
func stageSubmittableDraft(t *testing.T, store *draft.Store, stage *draft.BlobStage) *models.CourseDraft {
	t.Helper()

	d := store.Create(7)
	_, err := store.UpdateBasics(d.ID, validBasicsReq())
	require.NoError(t, err)

	pngData := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	pdfData := []byte("%PDF-1.7 fake document body")

	_, err = store.SetThumbnail(d.ID, models.FileRef{
		Name: "cover.png", Size: int64(len(pngData)), MimeType: "image/png", ContentRef: stage.Put(pngData),
	})
	require.NoError(t, err)
	_, err = store.SetSyllabus(d.ID, models.FileRef{
		Name: "syllabus.pdf", Size: int64(len(pdfData)), MimeType: "application/pdf", ContentRef: stage.Put(pdfData),
	})
	require.NoError(t, err)

	_, err = store.SetPeriods(d.ID, []string{"sem-1"}, []string{"q-1"})
	require.NoError(t, err)

	_, chapterID, err := store.AddChapter(d.ID, models.ChapterRequest{
		Title:       "Linear equations",
		Description: "Equations with one unknown and how to solve them.",
	})
	require.NoError(t, err)
	_, lessonID, err := store.AddLesson(d.ID, chapterID, models.LessonRequest{
		Title:       "Intro lesson",
		Description: "What an equation is and why we care.",
	})
	require.NoError(t, err)
	_, err = store.SetLessonAttachment(d.ID, lessonID, 0, models.FileRef{
		Name: "notes.pdf", Size: int64(len(pdfData)), MimeType: "application/pdf", ContentRef: stage.Put(pdfData),
	})
	require.NoError(t, err)

	_, err = store.SetGradingScheme(d.ID, models.GradingScheme{
		Categories: []models.GradingCategory{
			{Name: "Quizzes", Weight: 40},
			{Name: "Exams", Weight: 60},
		},
	})
	require.NoError(t, err)

	got, err := store.Get(d.ID)
	require.NoError(t, err)
	return got
}

func TestSubmitService_SubmitDraft(t *testing.T) {
	t.Run("successful submit commits and discards the draft", func(t *testing.T) {
		store := draft.NewStore()
		stage := draft.NewBlobStage()
		api := &mockCourseAPI{courseID: "course-42"}
		svc := NewSubmitService(api, store, stage, validation.NewEngine(), zap.NewNop())

		d := stageSubmittableDraft(t, store, stage)
		thumbRef := d.Basics.Thumbnail.ContentRef
		attachRef := d.Chapters[0].Lessons[0].Attachments[0].ContentRef

		courseID, err := svc.SubmitDraft(context.Background(), d.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, "course-42", courseID)
		assert.Equal(t, 1, api.calls())

		// The committed draft and its staged bytes are gone
		_, err = store.Get(d.ID)
		assert.ErrorIs(t, err, draft.ErrDraftNotFound)
		_, err = stage.Get(thumbRef)
		assert.ErrorIs(t, err, draft.ErrBlobNotFound)
		_, err = stage.Get(attachRef)
		assert.ErrorIs(t, err, draft.ErrBlobNotFound)
		assert.False(t, svc.InFlight(d.ID))
	})

	t.Run("create input carries the whole tree", func(t *testing.T) {
		store := draft.NewStore()
		stage := draft.NewBlobStage()
		api := &mockCourseAPI{courseID: "course-42"}
		svc := NewSubmitService(api, store, stage, validation.NewEngine(), zap.NewNop())

		d := stageSubmittableDraft(t, store, stage)
		attachRef := d.Chapters[0].Lessons[0].Attachments[0].ContentRef

		_, err := svc.SubmitDraft(context.Background(), d.ID, 7)
		require.NoError(t, err)

		in := api.input()
		assert.Equal(t, "Algebra Fundamentals", in.Title)
		assert.Equal(t, "thumbnail", in.Thumbnail.FieldName)
		assert.Equal(t, "syllabus", in.Syllabus.FieldName)
		assert.Contains(t, in.Chapters, "Linear equations")
		assert.Contains(t, in.Chapters, attachRef)
		assert.True(t, strings.Contains(in.Grades, "Quizzes"))

		// Attachment bytes ride as parts named by their content ref
		require.Len(t, in.Extra, 1)
		assert.Equal(t, "attachments", in.Extra[0].FieldName)
		assert.Equal(t, attachRef, in.Extra[0].Filename)
	})

	t.Run("incomplete draft never reaches the network", func(t *testing.T) {
		store := draft.NewStore()
		stage := draft.NewBlobStage()
		api := &mockCourseAPI{courseID: "course-42"}
		svc := NewSubmitService(api, store, stage, validation.NewEngine(), zap.NewNop())

		d := store.Create(7)

		_, err := svc.SubmitDraft(context.Background(), d.ID, 7)
		verr, ok := AsValidationError(err)
		require.True(t, ok)
		assert.NotEmpty(t, verr.Fields)
		assert.Equal(t, 0, api.calls())

		// The draft is still there for the author to finish
		_, err = store.Get(d.ID)
		assert.NoError(t, err)
	})

	t.Run("failed create leaves the draft untouched", func(t *testing.T) {
		store := draft.NewStore()
		stage := draft.NewBlobStage()
		api := &mockCourseAPI{createErr: errors.New("course service down")}
		svc := NewSubmitService(api, store, stage, validation.NewEngine(), zap.NewNop())

		d := stageSubmittableDraft(t, store, stage)
		thumbRef := d.Basics.Thumbnail.ContentRef

		_, err := svc.SubmitDraft(context.Background(), d.ID, 7)
		require.Error(t, err)

		got, err := store.Get(d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.Basics.Title, got.Basics.Title)
		_, err = stage.Get(thumbRef)
		assert.NoError(t, err)
		assert.False(t, svc.InFlight(d.ID))
	})

	t.Run("only the owner may submit", func(t *testing.T) {
		store := draft.NewStore()
		stage := draft.NewBlobStage()
		api := &mockCourseAPI{courseID: "course-42"}
		svc := NewSubmitService(api, store, stage, validation.NewEngine(), zap.NewNop())

		d := stageSubmittableDraft(t, store, stage)

		_, err := svc.SubmitDraft(context.Background(), d.ID, 8)
		assert.ErrorIs(t, err, ErrDraftAccessDenied)
		assert.Equal(t, 0, api.calls())
	})
}

func TestSubmitService_SingleFlight(t *testing.T) {
	store := draft.NewStore()
	stage := draft.NewBlobStage()
	api := &mockCourseAPI{courseID: "course-42", block: make(chan struct{})}
	svc := NewSubmitService(api, store, stage, validation.NewEngine(), zap.NewNop())

	d := stageSubmittableDraft(t, store, stage)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitDraft(context.Background(), d.ID, 7)
		done <- err
	}()

	// Wait for the first submission to take the slot
	require.Eventually(t, func() bool {
		return svc.InFlight(d.ID)
	}, time.Second, 5*time.Millisecond)

	_, err := svc.SubmitDraft(context.Background(), d.ID, 7)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, api.calls())
	assert.False(t, svc.InFlight(d.ID))
}
