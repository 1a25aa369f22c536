package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/validation"
)

// mockPublishedAPI is a mock implementation of PublishedAPI
type mockPublishedAPI struct {
	periods *models.CoursePeriods
	quarter *models.Quarter

	createdChapterID    string
	createdAssessmentID string
	createdCategoryID   string
	chapters            []models.ChapterInfo
	content             *models.ChapterContent

	createChapterCalled  bool
	updateChapterCalled  bool
	createLessonInput    courseapi.LessonInput
	assessmentInput      courseapi.AssessmentInput
	categoryCreateCalled bool
	refetchCalls         int
}

func (m *mockPublishedAPI) CreateChapter(ctx context.Context, courseID, quarterID, title, description string) (string, error) {
	m.createChapterCalled = true
	return m.createdChapterID, nil
}

func (m *mockPublishedAPI) UpdateChapter(ctx context.Context, chapterID, title, description string) error {
	m.updateChapterCalled = true
	return nil
}

func (m *mockPublishedAPI) DeleteChapter(ctx context.Context, chapterID string) error { return nil }

func (m *mockPublishedAPI) CreateLesson(ctx context.Context, chapterID string, in courseapi.LessonInput) (string, error) {
	m.createLessonInput = in
	return "lesson-1", nil
}

func (m *mockPublishedAPI) UpdateLesson(ctx context.Context, lessonID string, in courseapi.LessonInput) error {
	return nil
}

func (m *mockPublishedAPI) DeleteLesson(ctx context.Context, lessonID string) error { return nil }

func (m *mockPublishedAPI) CreateChapterAssessment(ctx context.Context, chapterID string, in courseapi.AssessmentInput) (string, error) {
	m.assessmentInput = in
	return m.createdAssessmentID, nil
}

func (m *mockPublishedAPI) CreateLessonAssessment(ctx context.Context, lessonID string, in courseapi.AssessmentInput) (string, error) {
	m.assessmentInput = in
	return m.createdAssessmentID, nil
}

func (m *mockPublishedAPI) DeleteAssessment(ctx context.Context, assessmentID string) error {
	return nil
}

func (m *mockPublishedAPI) CreateAssessmentCategory(ctx context.Context, courseID, name string, weight int) (string, error) {
	m.categoryCreateCalled = true
	return m.createdCategoryID, nil
}

func (m *mockPublishedAPI) GetCoursePeriods(ctx context.Context, courseID string) (*models.CoursePeriods, error) {
	return m.periods, nil
}

func (m *mockPublishedAPI) GetQuarter(ctx context.Context, quarterID string) (*models.Quarter, error) {
	return m.quarter, nil
}

func (m *mockPublishedAPI) GetChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error) {
	m.refetchCalls++
	return m.chapters, nil
}

func (m *mockPublishedAPI) GetChapterWithLessons(ctx context.Context, chapterID string) (*models.ChapterContent, error) {
	m.refetchCalls++
	return m.content, nil
}

func TestPublishedService_CreateChapter(t *testing.T) {
	t.Run("invalid fields never reach the remote store", func(t *testing.T) {
		api := &mockPublishedAPI{}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		_, _, err := svc.CreateChapter(context.Background(), "course-1", "q-1", models.ChapterRequest{
			Title: "x",
		})
		verr, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "title")
		assert.False(t, api.createChapterCalled)
	})

	t.Run("a successful create re-fetches the quarter's chapters", func(t *testing.T) {
		api := &mockPublishedAPI{
			createdChapterID: "ch-1",
			chapters:         []models.ChapterInfo{{ID: "ch-1", Title: "Linear equations"}},
		}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		chapterID, chapters, err := svc.CreateChapter(context.Background(), "course-1", "q-1", models.ChapterRequest{
			Title:       "Linear equations",
			Description: "Equations with one unknown and how to solve them.",
		})
		require.NoError(t, err)
		assert.Equal(t, "ch-1", chapterID)
		require.Len(t, chapters, 1)
		assert.Equal(t, 1, api.refetchCalls)
	})
}

func TestPublishedService_CreateLesson(t *testing.T) {
	t.Run("attachments run through the lesson policy", func(t *testing.T) {
		api := &mockPublishedAPI{content: &models.ChapterContent{}}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		pngData := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
		_, _, err := svc.CreateLesson(context.Background(), "ch-1", models.LessonRequest{
			Title:       "Intro lesson",
			Description: "What an equation is and why we care.",
		}, []UploadedFile{{Name: "cover.png", DeclaredType: "application/pdf", Data: pngData}})

		verr, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "files")
	})

	t.Run("accepted files become pdf parts", func(t *testing.T) {
		api := &mockPublishedAPI{content: &models.ChapterContent{}}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		pdfData := []byte("%PDF-1.7 fake document body")
		lessonID, _, err := svc.CreateLesson(context.Background(), "ch-1", models.LessonRequest{
			Title:       "Intro lesson",
			Description: "What an equation is and why we care.",
		}, []UploadedFile{{Name: "notes.pdf", DeclaredType: "application/pdf", Data: pdfData}})
		require.NoError(t, err)
		assert.Equal(t, "lesson-1", lessonID)

		require.Len(t, api.createLessonInput.PDFFiles, 1)
		assert.Equal(t, "notes.pdf", api.createLessonInput.PDFFiles[0].Filename)
		assert.Equal(t, "application/pdf", api.createLessonInput.PDFFiles[0].MimeType)
	})
}

func TestPublishedService_CreateChapterAssessment(t *testing.T) {
	quarter := &models.Quarter{
		ID:        "q-1",
		StartDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}
	periods := &models.CoursePeriods{SemesterIDs: []string{"sem-1"}, QuarterIDs: []string{"q-1"}}

	baseReq := func() models.AssessmentRequest {
		return models.AssessmentRequest{
			Title:       "Chapter quiz",
			Description: "Ten questions on linear equations.",
			CategoryID:  "cat-1",
		}
	}

	t.Run("due date must fall inside a declared quarter", func(t *testing.T) {
		api := &mockPublishedAPI{periods: periods, quarter: quarter, createdAssessmentID: "a-1", content: &models.ChapterContent{}}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		req := baseReq()
		req.QuarterID = "q-1"
		late := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		req.DueDate = &models.DueDate{Date: "2026-05-01", Time: "12:00", Instant: late}

		_, _, err := svc.CreateChapterAssessment(context.Background(), "course-1", "ch-1", req, nil)
		verr, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "dueDate")
	})

	t.Run("a due date without a quarter skips the containment check", func(t *testing.T) {
		api := &mockPublishedAPI{periods: periods, quarter: quarter, createdAssessmentID: "a-1", content: &models.ChapterContent{}}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		req := baseReq()
		due := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		req.DueDate = &models.DueDate{Date: "2026-05-01", Time: "12:00", Instant: due}

		assessmentID, _, err := svc.CreateChapterAssessment(context.Background(), "course-1", "ch-1", req, nil)
		require.NoError(t, err)
		assert.Equal(t, "a-1", assessmentID)
		assert.Equal(t, "2026-05-01T12:00:00Z", api.assessmentInput.DueDate)
	})

	t.Run("an undeclared quarter is rejected", func(t *testing.T) {
		api := &mockPublishedAPI{periods: periods, quarter: quarter}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		req := baseReq()
		req.QuarterID = "q-9"
		req.DueDate = &models.DueDate{Date: "2026-02-15", Time: "12:00", Instant: time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)}

		_, _, err := svc.CreateChapterAssessment(context.Background(), "course-1", "ch-1", req, nil)
		assert.ErrorIs(t, err, ErrQuarterNotAssociated)
	})

	t.Run("a category is created remotely when only a name is given", func(t *testing.T) {
		api := &mockPublishedAPI{
			periods:             periods,
			quarter:             quarter,
			createdAssessmentID: "a-1",
			createdCategoryID:   "cat-9",
			content:             &models.ChapterContent{},
		}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		req := baseReq()
		req.CategoryID = ""
		req.CategoryName = "Quizzes"
		req.CategoryWeight = 20

		assessmentID, _, err := svc.CreateChapterAssessment(context.Background(), "course-1", "ch-1", req, nil)
		require.NoError(t, err)
		assert.Equal(t, "a-1", assessmentID)
		assert.True(t, api.categoryCreateCalled)
		assert.Equal(t, "cat-9", api.assessmentInput.CategoryID)
	})

	t.Run("the due date travels as RFC 3339", func(t *testing.T) {
		api := &mockPublishedAPI{periods: periods, quarter: quarter, createdAssessmentID: "a-1", content: &models.ChapterContent{}}
		svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

		req := baseReq()
		req.QuarterID = "q-1"
		onTime := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
		req.DueDate = &models.DueDate{Date: "2026-02-15", Time: "12:00", Instant: onTime}

		_, _, err := svc.CreateChapterAssessment(context.Background(), "course-1", "ch-1", req, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-02-15T12:00:00Z", api.assessmentInput.DueDate)
	})
}

func TestPublishedService_UpdateChapter(t *testing.T) {
	api := &mockPublishedAPI{content: &models.ChapterContent{
		Chapter: models.ChapterInfo{ID: "ch-1", Title: "Quadratic equations"},
	}}
	svc := NewPublishedService(api, validation.NewEngine(), zap.NewNop())

	content, err := svc.UpdateChapter(context.Background(), "ch-1", models.ChapterRequest{
		Title:       "Quadratic equations",
		Description: "Second degree equations and the quadratic formula.",
	})
	require.NoError(t, err)
	assert.True(t, api.updateChapterCalled)
	assert.Equal(t, "Quadratic equations", content.Chapter.Title)
	assert.Equal(t, 1, api.refetchCalls)
}
