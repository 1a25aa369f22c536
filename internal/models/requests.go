package models

// UpdateBasicsRequest represents a request to update the basics step of a draft
type UpdateBasicsRequest struct {
	Title          string   `json:"title" validate:"required,min=5,max=100"`
	CategoryID     string   `json:"categoryId" validate:"required"`
	SubcategoryID  string   `json:"subcategoryId" validate:"required"`
	Language       Language `json:"language" validate:"required,language"`
	Description    string   `json:"description" validate:"required,min=5,max=250000"`
	TeachingPoints []string `json:"teachingPoints" validate:"required,min=1,max=20,dive,required,max=200"`
	Requirements   []string `json:"requirements" validate:"required,min=1,max=20,dive,required,max=200"`
}

// SetPeriodsRequest associates the draft with academic periods
type SetPeriodsRequest struct {
	SemesterIDs []string `json:"semesterIds" validate:"required,min=1,dive,required"`
	QuarterIDs  []string `json:"quarterIds" validate:"required,min=1,dive,required"`
}

// ChapterRequest represents a request to create or update a chapter draft
type ChapterRequest struct {
	Title       string `json:"title" validate:"required,min=5,max=100"`
	Description string `json:"description" validate:"required,min=5,max=1000"`
}

// LessonRequest represents a request to create or update a lesson draft
type LessonRequest struct {
	Title       string `json:"title" validate:"required,min=5,max=100"`
	Description string `json:"description" validate:"required,min=5,max=250000"`
	YoutubeLink string `json:"youtubeLink,omitempty" validate:"omitempty,youtubeurl"`
	OtherLink   string `json:"otherLink,omitempty" validate:"omitempty,url"`
}

// AssessmentRequest represents a request to create or update an assessment
// draft. Either CategoryID references an existing grading category, or
// CategoryName+CategoryWeight create one on demand.
type AssessmentRequest struct {
	Title          string   `json:"title" validate:"required,min=5"`
	Description    string   `json:"description" validate:"required,min=5"`
	CategoryID     string   `json:"categoryId,omitempty" validate:"required_without=CategoryName"`
	CategoryName   string   `json:"categoryName,omitempty" validate:"required_without=CategoryID"`
	CategoryWeight int      `json:"categoryWeight,omitempty" validate:"omitempty,gt=0,lte=100"`
	QuarterID      string   `json:"quarterId,omitempty"`
	DueDate        *DueDate `json:"dueDate,omitempty"`
}

// GradingCategoryInput is one category of a grading scheme request
type GradingCategoryInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Weight int    `json:"weight" validate:"required,gt=0,lte=100"`
}

// GradeBandInput is one band of a grading scale request
type GradeBandInput struct {
	Letter       string `json:"letter" validate:"required,max=5"`
	PercentRange string `json:"percentRange" validate:"required,max=20"`
}

// GradingSchemeRequest represents a request to set the grading scheme of a
// draft. Weights must sum to exactly 100; the engine enforces this as a
// struct-level rule.
type GradingSchemeRequest struct {
	Categories []GradingCategoryInput `json:"categories" validate:"required,min=1,dive"`
	Scale      []GradeBandInput       `json:"scale" validate:"omitempty,dive"`
}
