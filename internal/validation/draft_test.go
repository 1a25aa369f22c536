package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coursecraft/backend/internal/models"
)

// submittableDraft builds a draft that passes the full pre-commit gate
func submittableDraft() *models.CourseDraft {
	return &models.CourseDraft{
		ID:      "draft-1",
		OwnerID: 7,
		Basics: models.CourseBasics{
			Title:          "Algebra Fundamentals",
			CategoryID:     "cat-1",
			SubcategoryID:  "sub-1",
			Language:       models.LanguageEnglish,
			Description:    "A full introduction to algebra for first-year students.",
			TeachingPoints: []string{"Solve linear equations"},
			Requirements:   []string{"Basic arithmetic"},
			Thumbnail:      &models.FileRef{Name: "cover.png", Size: 1024, MimeType: "image/png", ContentRef: "blob-1"},
			Syllabus:       &models.FileRef{Name: "syllabus.pdf", Size: 2048, MimeType: "application/pdf", ContentRef: "blob-2"},
		},
		SemesterIDs: []string{"sem-1"},
		QuarterIDs:  []string{"q-1"},
		Chapters: []models.ChapterDraft{
			{
				ID:          "ch-1",
				Title:       "Linear equations",
				Description: "Equations with one unknown and how to solve them.",
				Lessons: []models.LessonDraft{
					{
						ID:          "l-1",
						Title:       "Intro lesson",
						Description: "What an equation is and why we care.",
						Attachments: []models.FileRef{
							{Name: "notes.pdf", Size: 4096, MimeType: "application/pdf", ContentRef: "blob-3"},
						},
					},
				},
				Assessment: &models.AssessmentDraft{
					ID:          "a-1",
					Title:       "Chapter quiz",
					Description: "Ten questions on linear equations.",
					CategoryID:  "gc-1",
				},
			},
		},
		Grades: &models.GradingScheme{
			Categories: []models.GradingCategory{
				{ID: "gc-1", Name: "Quizzes", Weight: 40},
				{ID: "gc-2", Name: "Exams", Weight: 60},
			},
		},
	}
}

func TestEngine_ValidateDraftForSubmit(t *testing.T) {
	engine := NewEngine()

	t.Run("complete draft passes", func(t *testing.T) {
		errs := engine.ValidateDraftForSubmit(submittableDraft())
		assert.Nil(t, errs)
	})

	t.Run("missing thumbnail blocks submit", func(t *testing.T) {
		d := submittableDraft()
		d.Basics.Thumbnail = nil

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "basics.thumbnail")
	})

	t.Run("syllabus with wrong type blocks submit", func(t *testing.T) {
		d := submittableDraft()
		d.Basics.Syllabus.MimeType = "image/png"

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "basics.syllabus")
	})

	t.Run("missing periods block submit", func(t *testing.T) {
		d := submittableDraft()
		d.SemesterIDs = nil
		d.QuarterIDs = nil

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "semesterIds")
		assert.Contains(t, errs, "quarterIds")
	})

	t.Run("invalid nested lesson is reported with its path", func(t *testing.T) {
		d := submittableDraft()
		d.Chapters[0].Lessons[0].Title = "x"

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "chapters[0].lessons[0].title")
	})

	t.Run("invalid assessment is reported with its path", func(t *testing.T) {
		d := submittableDraft()
		d.Chapters[0].Assessment.CategoryID = ""

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "chapters[0].assessment.categoryId")
	})

	t.Run("lesson attachments over the aggregate budget block submit", func(t *testing.T) {
		d := submittableDraft()
		d.Chapters[0].Lessons[0].Attachments = []models.FileRef{
			{Name: "a.pdf", Size: 3 * 1024 * 1024, MimeType: "application/pdf", ContentRef: "b1"},
			{Name: "b.pdf", Size: 3 * 1024 * 1024, MimeType: "application/pdf", ContentRef: "b2"},
		}

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "chapters[0].lessons[0].attachments")
	})

	t.Run("weights not summing to 100 block submit", func(t *testing.T) {
		d := submittableDraft()
		d.Grades.Categories[1].Weight = 40

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "grades.categories")
	})

	t.Run("missing grading scheme blocks submit", func(t *testing.T) {
		d := submittableDraft()
		d.Grades = nil

		errs := engine.ValidateDraftForSubmit(d)
		assert.Contains(t, errs, "grades")
	})

	t.Run("errors accumulate across sections", func(t *testing.T) {
		d := submittableDraft()
		d.Basics.Title = ""
		d.Basics.Thumbnail = nil
		d.Grades = nil

		errs := engine.ValidateDraftForSubmit(d)
		assert.GreaterOrEqual(t, len(errs), 3)
	})
}
