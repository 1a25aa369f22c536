package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/validation"
)

// PublishedAPI is the remote contract for editing an already committed
// course node by node
type PublishedAPI interface {
	CreateChapter(ctx context.Context, courseID, quarterID, title, description string) (string, error)
	UpdateChapter(ctx context.Context, chapterID, title, description string) error
	DeleteChapter(ctx context.Context, chapterID string) error
	CreateLesson(ctx context.Context, chapterID string, in courseapi.LessonInput) (string, error)
	UpdateLesson(ctx context.Context, lessonID string, in courseapi.LessonInput) error
	DeleteLesson(ctx context.Context, lessonID string) error
	CreateChapterAssessment(ctx context.Context, chapterID string, in courseapi.AssessmentInput) (string, error)
	CreateLessonAssessment(ctx context.Context, lessonID string, in courseapi.AssessmentInput) (string, error)
	DeleteAssessment(ctx context.Context, assessmentID string) error
	CreateAssessmentCategory(ctx context.Context, courseID, name string, weight int) (string, error)
	GetCoursePeriods(ctx context.Context, courseID string) (*models.CoursePeriods, error)
	GetQuarter(ctx context.Context, quarterID string) (*models.Quarter, error)
	GetChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error)
	GetChapterWithLessons(ctx context.Context, chapterID string) (*models.ChapterContent, error)
}

// PublishedService applies node edits to a committed course. Every mutation
// goes straight to the remote store and the affected subtree is re-fetched
// afterwards, so callers always render server state, never a local patch.
type PublishedService struct {
	api    PublishedAPI
	engine *validation.Engine
	logger *zap.Logger
}

// NewPublishedService creates a service for editing committed courses
func NewPublishedService(api PublishedAPI, engine *validation.Engine, logger *zap.Logger) *PublishedService {
	return &PublishedService{api: api, engine: engine, logger: logger}
}

// CreateChapter creates a chapter on a committed course and returns the new
// chapter id together with the refreshed chapter list of the quarter
func (s *PublishedService) CreateChapter(ctx context.Context, courseID, quarterID string, req models.ChapterRequest) (string, []models.ChapterInfo, error) {
	if res := s.engine.Validate(req); !res.Valid() {
		return "", nil, &ValidationError{Fields: res.Errors}
	}

	chapterID, err := s.api.CreateChapter(ctx, courseID, quarterID, req.Title, req.Description)
	if err != nil {
		return "", nil, err
	}

	chapters, err := s.api.GetChapters(ctx, courseID, quarterID)
	if err != nil {
		return "", nil, err
	}
	return chapterID, chapters, nil
}

// UpdateChapter updates a committed chapter and returns its refreshed content
func (s *PublishedService) UpdateChapter(ctx context.Context, chapterID string, req models.ChapterRequest) (*models.ChapterContent, error) {
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}

	if err := s.api.UpdateChapter(ctx, chapterID, req.Title, req.Description); err != nil {
		return nil, err
	}
	return s.api.GetChapterWithLessons(ctx, chapterID)
}

// DeleteChapter removes a committed chapter and returns the refreshed chapter
// list of its quarter
func (s *PublishedService) DeleteChapter(ctx context.Context, courseID, quarterID, chapterID string) ([]models.ChapterInfo, error) {
	if err := s.api.DeleteChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	return s.api.GetChapters(ctx, courseID, quarterID)
}

// CreateLesson validates the lesson and its attachments, creates it on a
// committed chapter and returns the new lesson id with the refreshed chapter
// content
func (s *PublishedService) CreateLesson(ctx context.Context, chapterID string, req models.LessonRequest, files []UploadedFile) (string, *models.ChapterContent, error) {
	if res := s.engine.Validate(req); !res.Valid() {
		return "", nil, &ValidationError{Fields: res.Errors}
	}
	parts, err := acceptUploads(validation.LessonAttachmentPolicy, files, "pdfFiles")
	if err != nil {
		return "", nil, err
	}

	lessonID, err := s.api.CreateLesson(ctx, chapterID, courseapi.LessonInput{
		Title:       req.Title,
		Description: req.Description,
		YoutubeLink: req.YoutubeLink,
		OtherLink:   req.OtherLink,
		PDFFiles:    parts,
	})
	if err != nil {
		return "", nil, err
	}

	content, err := s.api.GetChapterWithLessons(ctx, chapterID)
	if err != nil {
		return "", nil, err
	}
	return lessonID, content, nil
}

// UpdateLesson updates a committed lesson and returns the refreshed content
// of its chapter
func (s *PublishedService) UpdateLesson(ctx context.Context, chapterID, lessonID string, req models.LessonRequest, files []UploadedFile) (*models.ChapterContent, error) {
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}
	parts, err := acceptUploads(validation.LessonAttachmentPolicy, files, "pdfFiles")
	if err != nil {
		return nil, err
	}

	if err := s.api.UpdateLesson(ctx, lessonID, courseapi.LessonInput{
		Title:       req.Title,
		Description: req.Description,
		YoutubeLink: req.YoutubeLink,
		OtherLink:   req.OtherLink,
		PDFFiles:    parts,
	}); err != nil {
		return nil, err
	}
	return s.api.GetChapterWithLessons(ctx, chapterID)
}

// DeleteLesson removes a committed lesson and returns the refreshed content
// of its chapter
func (s *PublishedService) DeleteLesson(ctx context.Context, chapterID, lessonID string) (*models.ChapterContent, error) {
	if err := s.api.DeleteLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return s.api.GetChapterWithLessons(ctx, chapterID)
}

// CreateChapterAssessment creates an assessment on a committed chapter and
// returns the new assessment id with the refreshed chapter content
func (s *PublishedService) CreateChapterAssessment(ctx context.Context, courseID, chapterID string, req models.AssessmentRequest, files []UploadedFile) (string, *models.ChapterContent, error) {
	in, err := s.prepareAssessment(ctx, courseID, req, files)
	if err != nil {
		return "", nil, err
	}

	assessmentID, err := s.api.CreateChapterAssessment(ctx, chapterID, in)
	if err != nil {
		return "", nil, err
	}

	content, err := s.api.GetChapterWithLessons(ctx, chapterID)
	if err != nil {
		return "", nil, err
	}
	return assessmentID, content, nil
}

// CreateLessonAssessment creates an assessment on a committed lesson and
// returns the new assessment id with the refreshed content of the enclosing
// chapter
func (s *PublishedService) CreateLessonAssessment(ctx context.Context, courseID, chapterID, lessonID string, req models.AssessmentRequest, files []UploadedFile) (string, *models.ChapterContent, error) {
	in, err := s.prepareAssessment(ctx, courseID, req, files)
	if err != nil {
		return "", nil, err
	}

	assessmentID, err := s.api.CreateLessonAssessment(ctx, lessonID, in)
	if err != nil {
		return "", nil, err
	}

	content, err := s.api.GetChapterWithLessons(ctx, chapterID)
	if err != nil {
		return "", nil, err
	}
	return assessmentID, content, nil
}

// DeleteAssessment removes a committed assessment and returns the refreshed
// content of its chapter
func (s *PublishedService) DeleteAssessment(ctx context.Context, chapterID, assessmentID string) (*models.ChapterContent, error) {
	if err := s.api.DeleteAssessment(ctx, assessmentID); err != nil {
		return nil, err
	}
	return s.api.GetChapterWithLessons(ctx, chapterID)
}

// prepareAssessment validates the request, checks a quarter-bound due date
// against the bounds of a quarter the course declares, resolves the grading
// category (creating it remotely when only a name is given) and packages the
// attachments
func (s *PublishedService) prepareAssessment(ctx context.Context, courseID string, req models.AssessmentRequest, files []UploadedFile) (courseapi.AssessmentInput, error) {
	var in courseapi.AssessmentInput

	if res := s.engine.Validate(req); !res.Valid() {
		return in, &ValidationError{Fields: res.Errors}
	}

	if req.DueDate != nil && req.QuarterID != "" {
		periods, err := s.api.GetCoursePeriods(ctx, courseID)
		if err != nil {
			return in, err
		}
		if !containsID(periods.QuarterIDs, req.QuarterID) {
			return in, ErrQuarterNotAssociated
		}
		quarter, err := s.api.GetQuarter(ctx, req.QuarterID)
		if err != nil {
			return in, err
		}
		if res := validation.ValidateDueDate(req.DueDate, quarter); !res.Valid() {
			return in, &ValidationError{Fields: res.Errors}
		}
	}

	categoryID := req.CategoryID
	if categoryID == "" {
		id, err := s.api.CreateAssessmentCategory(ctx, courseID, req.CategoryName, req.CategoryWeight)
		if err != nil {
			return in, err
		}
		categoryID = id
	}

	parts, err := acceptUploads(validation.AssessmentAttachmentPolicy, files, "files")
	if err != nil {
		return in, err
	}

	in = courseapi.AssessmentInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  categoryID,
		Files:       parts,
	}
	if req.DueDate != nil {
		in.DueDate = req.DueDate.Instant.Format("2006-01-02T15:04:05Z07:00")
	}
	return in, nil
}

// acceptUploads runs every upload through the policy, accumulating the
// accepted set so aggregate and count limits apply across the batch
func acceptUploads(policy validation.AttachmentPolicy, files []UploadedFile, fieldName string) ([]courseapi.FilePart, error) {
	accepted := make([]models.FileRef, 0, len(files))
	parts := make([]courseapi.FilePart, 0, len(files))

	for _, f := range files {
		ref := models.FileRef{
			Name:     f.Name,
			Size:     int64(len(f.Data)),
			MimeType: validation.SniffMimeType(f.Data, f.DeclaredType),
		}
		if err := policy.Accept(ref, accepted); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"files": err.Error()}}
		}
		accepted = append(accepted, ref)
		parts = append(parts, courseapi.FilePart{
			FieldName: fieldName,
			Filename:  ref.Name,
			MimeType:  ref.MimeType,
			Content:   f.Data,
		})
	}
	return parts, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
