package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coursecraft/backend/internal/models"
)

func validBasics() models.UpdateBasicsRequest {
	return models.UpdateBasicsRequest{
		Title:          "Algebra Fundamentals",
		CategoryID:     "cat-1",
		SubcategoryID:  "sub-1",
		Language:       models.LanguageEnglish,
		Description:    "A full introduction to algebra for first-year students.",
		TeachingPoints: []string{"Solve linear equations"},
		Requirements:   []string{"Basic arithmetic"},
	}
}

func TestEngine_ValidateBasics(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name      string
		mutate    func(*models.UpdateBasicsRequest)
		wantField string
	}{
		{
			name:   "valid request",
			mutate: func(r *models.UpdateBasicsRequest) {},
		},
		{
			name:      "title too short",
			mutate:    func(r *models.UpdateBasicsRequest) { r.Title = "Math" },
			wantField: "title",
		},
		{
			name:      "missing title",
			mutate:    func(r *models.UpdateBasicsRequest) { r.Title = "" },
			wantField: "title",
		},
		{
			name:      "unsupported language",
			mutate:    func(r *models.UpdateBasicsRequest) { r.Language = "klingon" },
			wantField: "language",
		},
		{
			name:      "no teaching points",
			mutate:    func(r *models.UpdateBasicsRequest) { r.TeachingPoints = []string{} },
			wantField: "teachingPoints",
		},
		{
			name:      "empty requirement entry",
			mutate:    func(r *models.UpdateBasicsRequest) { r.Requirements = []string{""} },
			wantField: "requirements[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBasics()
			tt.mutate(&req)

			res := engine.Validate(req)
			if tt.wantField == "" {
				assert.True(t, res.Valid())
				return
			}
			assert.False(t, res.Valid())
			assert.Contains(t, res.Errors, tt.wantField)
		})
	}
}

func TestEngine_ValidateLesson(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name      string
		req       models.LessonRequest
		wantField string
	}{
		{
			name: "valid with youtube watch link",
			req: models.LessonRequest{
				Title:       "Linear equations",
				Description: "Solving equations with one unknown.",
				YoutubeLink: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			},
		},
		{
			name: "valid with short link",
			req: models.LessonRequest{
				Title:       "Linear equations",
				Description: "Solving equations with one unknown.",
				YoutubeLink: "https://youtu.be/dQw4w9WgXcQ",
			},
		},
		{
			name: "valid without links",
			req: models.LessonRequest{
				Title:       "Linear equations",
				Description: "Solving equations with one unknown.",
			},
		},
		{
			name: "non-youtube video link",
			req: models.LessonRequest{
				Title:       "Linear equations",
				Description: "Solving equations with one unknown.",
				YoutubeLink: "https://vimeo.com/123456789",
			},
			wantField: "youtubeLink",
		},
		{
			name: "malformed other link",
			req: models.LessonRequest{
				Title:       "Linear equations",
				Description: "Solving equations with one unknown.",
				OtherLink:   "not a url",
			},
			wantField: "otherLink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Validate(tt.req)
			if tt.wantField == "" {
				assert.True(t, res.Valid(), "unexpected errors: %v", res.Errors)
				return
			}
			assert.Contains(t, res.Errors, tt.wantField)
		})
	}
}

func TestEngine_ValidateAssessmentCategory(t *testing.T) {
	engine := NewEngine()

	t.Run("existing category id is enough", func(t *testing.T) {
		res := engine.Validate(models.AssessmentRequest{
			Title:       "Midterm exam",
			Description: "Covers chapters one through four.",
			CategoryID:  "cat-1",
		})
		assert.True(t, res.Valid(), "unexpected errors: %v", res.Errors)
	})

	t.Run("new category name is enough", func(t *testing.T) {
		res := engine.Validate(models.AssessmentRequest{
			Title:          "Midterm exam",
			Description:    "Covers chapters one through four.",
			CategoryName:   "Exams",
			CategoryWeight: 40,
		})
		assert.True(t, res.Valid(), "unexpected errors: %v", res.Errors)
	})

	t.Run("neither id nor name", func(t *testing.T) {
		res := engine.Validate(models.AssessmentRequest{
			Title:       "Midterm exam",
			Description: "Covers chapters one through four.",
		})
		assert.False(t, res.Valid())
		assert.Contains(t, res.Errors, "categoryId")
		assert.Contains(t, res.Errors, "categoryName")
	})
}

func TestEngine_ValidateGradingScheme(t *testing.T) {
	engine := NewEngine()

	scheme := func(weights ...int) models.GradingSchemeRequest {
		req := models.GradingSchemeRequest{}
		for _, w := range weights {
			req.Categories = append(req.Categories, models.GradingCategoryInput{
				Name:   "Category",
				Weight: w,
			})
		}
		return req
	}

	t.Run("weights summing to 100 pass", func(t *testing.T) {
		res := engine.Validate(scheme(40, 40, 20))
		assert.True(t, res.Valid(), "unexpected errors: %v", res.Errors)
	})

	t.Run("weights summing to 80 are rejected", func(t *testing.T) {
		res := engine.Validate(scheme(40, 40))
		assert.False(t, res.Valid())
		assert.Equal(t, "category weights must sum to 100", res.Errors["categories"])
	})

	t.Run("adding the missing weight unblocks the scheme", func(t *testing.T) {
		res := engine.Validate(scheme(40, 40, 20))
		assert.NotContains(t, res.Errors, "categories")
	})

	t.Run("weights above 100 are rejected per category", func(t *testing.T) {
		res := engine.Validate(scheme(140))
		assert.False(t, res.Valid())
		assert.Contains(t, res.Errors, "categories[0].weight")
	})

	t.Run("empty scheme is rejected", func(t *testing.T) {
		res := engine.Validate(models.GradingSchemeRequest{})
		assert.False(t, res.Valid())
	})
}

func TestValidateDueDate(t *testing.T) {
	quarter := &models.Quarter{
		ID:        "q1",
		StartDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}

	due := func(t time.Time) *models.DueDate {
		return &models.DueDate{
			Date:    t.Format("2006-01-02"),
			Time:    t.Format("15:04"),
			Instant: t,
		}
	}

	tests := []struct {
		name    string
		due     *models.DueDate
		quarter *models.Quarter
		valid   bool
	}{
		{
			name:    "inside the quarter",
			due:     due(time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)),
			quarter: quarter,
			valid:   true,
		},
		{
			name:    "on the first day",
			due:     due(quarter.StartDate),
			quarter: quarter,
			valid:   true,
		},
		{
			name:    "on the last day",
			due:     due(quarter.EndDate),
			quarter: quarter,
			valid:   true,
		},
		{
			name:    "before the quarter",
			due:     due(time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC)),
			quarter: quarter,
			valid:   false,
		},
		{
			name:    "after the quarter",
			due:     due(time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)),
			quarter: quarter,
			valid:   false,
		},
		{
			name:    "nil due date",
			due:     nil,
			quarter: quarter,
			valid:   true,
		},
		{
			name:    "quarter without bounds",
			due:     due(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
			quarter: &models.Quarter{ID: "q2"},
			valid:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateDueDate(tt.due, tt.quarter)
			if tt.valid {
				assert.True(t, res.Valid(), "unexpected errors: %v", res.Errors)
			} else {
				assert.Contains(t, res.Errors, "dueDate")
			}
		})
	}
}
