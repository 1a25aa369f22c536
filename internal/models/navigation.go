package models

import "time"

// Semester is the read-side projection of an academic semester
type Semester struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Quarter is the read-side projection of an academic quarter
type Quarter struct {
	ID         string    `json:"id"`
	SemesterID string    `json:"semesterId"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

// CoursePeriods is the set of academic periods a persisted course declared
type CoursePeriods struct {
	SemesterIDs []string `json:"semesterIds"`
	QuarterIDs  []string `json:"quarterIds"`
}

// ChapterInfo is the read-side projection of a persisted chapter
type ChapterInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	QuarterID   string `json:"quarterId,omitempty"`
}

// LessonInfo is the read-side projection of a persisted lesson
type LessonInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	YoutubeLink string   `json:"youtubeLink,omitempty"`
	OtherLink   string   `json:"otherLink,omitempty"`
	PDFFiles    []string `json:"pdfFiles,omitempty"`
}

// AssessmentInfo is the read-side projection of a persisted assessment
type AssessmentInfo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  string     `json:"categoryId,omitempty"`
	LessonID    string     `json:"lessonId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Files       []string   `json:"files,omitempty"`
}

// ChapterContent is a chapter with its lessons and assessments, as returned
// by the chapter-and-lessons read endpoint
type ChapterContent struct {
	Chapter     ChapterInfo      `json:"chapter"`
	Lessons     []LessonInfo     `json:"lessons"`
	Assessments []AssessmentInfo `json:"assessments"`
}
