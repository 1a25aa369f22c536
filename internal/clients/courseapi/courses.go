package courseapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coursecraft/backend/internal/models"
)

// CreateCourseInput is the full draft serialized for the atomic create.
// Scalars travel as form fields, id and string lists as JSON-encoded
// fields, binaries as parts; the server accepts or rejects the whole
// structure.
type CreateCourseInput struct {
	Title          string
	CategoryID     string
	SubcategoryID  string
	Language       string
	Description    string
	TeachingPoints []string
	Requirements   []string
	SemesterIDs    []string
	QuarterIDs     []string
	Chapters       string // JSON-encoded chapter tree
	Grades         string // JSON-encoded grading scheme
	Thumbnail      FilePart
	Syllabus       FilePart
	Extra          []FilePart // attachment parts referenced from Chapters
}

// CreateCourse atomically persists a whole course draft and returns the
// server-assigned course id
func (c *Client) CreateCourse(ctx context.Context, in CreateCourseInput) (string, error) {
	semesters, err := json.Marshal(in.SemesterIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode semester ids: %w", err)
	}
	quarters, err := json.Marshal(in.QuarterIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode quarter ids: %w", err)
	}
	teachingPoints, err := json.Marshal(in.TeachingPoints)
	if err != nil {
		return "", fmt.Errorf("failed to encode teaching points: %w", err)
	}
	requirements, err := json.Marshal(in.Requirements)
	if err != nil {
		return "", fmt.Errorf("failed to encode requirements: %w", err)
	}

	fields := map[string]string{
		"courseTitle":       in.Title,
		"category":          in.CategoryID,
		"subcategory":       in.SubcategoryID,
		"language":          in.Language,
		"courseDescription": in.Description,
		"semester":          string(semesters),
		"quarter":           string(quarters),
		"teachingPoints":    string(teachingPoints),
		"requirements":      string(requirements),
		"chapters":          in.Chapters,
		"grades":            in.Grades,
	}

	in.Thumbnail.FieldName = "thumbnail"
	in.Syllabus.FieldName = "syllabus"
	files := append([]FilePart{in.Thumbnail, in.Syllabus}, in.Extra...)

	var resp struct {
		CourseID string `json:"courseId"`
		Message  string `json:"message"`
	}
	if err := c.postMultipart(ctx, http.MethodPost, "/courses", fields, files, &resp); err != nil {
		return "", err
	}
	return resp.CourseID, nil
}

// CreateChapter creates a chapter on a persisted course
func (c *Client) CreateChapter(ctx context.Context, courseID, quarterID, title, description string) (string, error) {
	body := map[string]string{
		"title":       title,
		"description": description,
	}
	var resp struct {
		ChapterID string `json:"chapterId"`
	}
	path := fmt.Sprintf("/courses/%s/quarters/%s/chapters", url.PathEscape(courseID), url.PathEscape(quarterID))
	if err := c.postJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.ChapterID, nil
}

// UpdateChapter updates a persisted chapter
func (c *Client) UpdateChapter(ctx context.Context, chapterID, title, description string) error {
	body := map[string]string{
		"title":       title,
		"description": description,
	}
	return c.postJSON(ctx, http.MethodPut, "/chapters/"+url.PathEscape(chapterID), body, nil)
}

// DeleteChapter removes a persisted chapter
func (c *Client) DeleteChapter(ctx context.Context, chapterID string) error {
	return c.postJSON(ctx, http.MethodDelete, "/chapters/"+url.PathEscape(chapterID), nil, nil)
}

// LessonInput is a lesson serialized for a per-node create or update
type LessonInput struct {
	Title       string
	Description string
	YoutubeLink string
	OtherLink   string
	PDFFiles    []FilePart
}

// CreateLesson creates a lesson under a persisted chapter
func (c *Client) CreateLesson(ctx context.Context, chapterID string, in LessonInput) (string, error) {
	var resp struct {
		LessonID string `json:"lessonId"`
	}
	path := "/chapters/" + url.PathEscape(chapterID) + "/lessons"
	if err := c.postMultipart(ctx, http.MethodPost, path, lessonFields(in), lessonFiles(in), &resp); err != nil {
		return "", err
	}
	return resp.LessonID, nil
}

// UpdateLesson updates a persisted lesson
func (c *Client) UpdateLesson(ctx context.Context, lessonID string, in LessonInput) error {
	path := "/lessons/" + url.PathEscape(lessonID)
	return c.postMultipart(ctx, http.MethodPut, path, lessonFields(in), lessonFiles(in), nil)
}

// DeleteLesson removes a persisted lesson
func (c *Client) DeleteLesson(ctx context.Context, lessonID string) error {
	return c.postJSON(ctx, http.MethodDelete, "/lessons/"+url.PathEscape(lessonID), nil, nil)
}

func lessonFields(in LessonInput) map[string]string {
	return map[string]string{
		"title":        in.Title,
		"description":  in.Description,
		"youtubeLinks": in.YoutubeLink,
		"otherLink":    in.OtherLink,
	}
}

func lessonFiles(in LessonInput) []FilePart {
	files := make([]FilePart, 0, len(in.PDFFiles))
	for _, f := range in.PDFFiles {
		f.FieldName = "pdfFiles"
		files = append(files, f)
	}
	return files
}

// AssessmentInput is an assessment serialized for a per-node create
type AssessmentInput struct {
	Title       string
	Description string
	CategoryID  string
	DueDate     string // RFC 3339
	Files       []FilePart
}

// CreateChapterAssessment creates an assessment on a persisted chapter
func (c *Client) CreateChapterAssessment(ctx context.Context, chapterID string, in AssessmentInput) (string, error) {
	return c.createAssessment(ctx, "/chapters/"+url.PathEscape(chapterID)+"/assessments", in)
}

// CreateLessonAssessment creates an assessment on a persisted lesson
func (c *Client) CreateLessonAssessment(ctx context.Context, lessonID string, in AssessmentInput) (string, error) {
	return c.createAssessment(ctx, "/lessons/"+url.PathEscape(lessonID)+"/assessments", in)
}

func (c *Client) createAssessment(ctx context.Context, path string, in AssessmentInput) (string, error) {
	fields := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"categoryId":  in.CategoryID,
		"dueDate":     in.DueDate,
	}
	files := make([]FilePart, 0, len(in.Files))
	for _, f := range in.Files {
		f.FieldName = "files"
		files = append(files, f)
	}

	var resp struct {
		AssessmentID string `json:"assessmentId"`
	}
	if err := c.postMultipart(ctx, http.MethodPost, path, fields, files, &resp); err != nil {
		return "", err
	}
	return resp.AssessmentID, nil
}

// DeleteAssessment removes a persisted assessment
func (c *Client) DeleteAssessment(ctx context.Context, assessmentID string) error {
	return c.postJSON(ctx, http.MethodDelete, "/assessments/"+url.PathEscape(assessmentID), nil, nil)
}

// CreateAssessmentCategory creates a grading category on a persisted course
func (c *Client) CreateAssessmentCategory(ctx context.Context, courseID, name string, weight int) (string, error) {
	body := map[string]any{
		"name":   name,
		"weight": weight,
	}
	var resp struct {
		CategoryID string `json:"categoryId"`
	}
	path := "/courses/" + url.PathEscape(courseID) + "/assessment-categories"
	if err := c.postJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.CategoryID, nil
}

// GetCoursePeriods returns the semester/quarter sets a course declared
func (c *Client) GetCoursePeriods(ctx context.Context, courseID string) (*models.CoursePeriods, error) {
	var out models.CoursePeriods
	if err := c.getJSON(ctx, "/courses/"+url.PathEscape(courseID)+"/periods", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSemesters lists the semesters visible to a course
func (c *Client) GetSemesters(ctx context.Context, courseID string) ([]models.Semester, error) {
	var out []models.Semester
	if err := c.getJSON(ctx, "/courses/"+url.PathEscape(courseID)+"/semesters", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetQuarters lists the quarters of a semester
func (c *Client) GetQuarters(ctx context.Context, semesterID string) ([]models.Quarter, error) {
	var out []models.Quarter
	if err := c.getJSON(ctx, "/semesters/"+url.PathEscape(semesterID)+"/quarters", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetQuarter fetches one quarter, used for due-date containment checks
func (c *Client) GetQuarter(ctx context.Context, quarterID string) (*models.Quarter, error) {
	var out models.Quarter
	if err := c.getJSON(ctx, "/quarters/"+url.PathEscape(quarterID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChapters lists the chapters of a course within a quarter
func (c *Client) GetChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error) {
	var out []models.ChapterInfo
	path := fmt.Sprintf("/courses/%s/quarters/%s/chapters", url.PathEscape(courseID), url.PathEscape(quarterID))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChapterWithLessons fetches one chapter with its lessons and assessments
func (c *Client) GetChapterWithLessons(ctx context.Context, chapterID string) (*models.ChapterContent, error) {
	var out models.ChapterContent
	if err := c.getJSON(ctx, "/chapters/"+url.PathEscape(chapterID)+"/content", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
