package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/draft"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/validation"
)

// CourseAPI is the remote course store contract the coordinator depends on
type CourseAPI interface {
	CreateCourse(ctx context.Context, in courseapi.CreateCourseInput) (string, error)
	CreateChapter(ctx context.Context, courseID, quarterID, title, description string) (string, error)
	DeleteChapter(ctx context.Context, chapterID string) error
	CreateLesson(ctx context.Context, chapterID string, in courseapi.LessonInput) (string, error)
	UpdateLesson(ctx context.Context, lessonID string, in courseapi.LessonInput) error
	DeleteLesson(ctx context.Context, lessonID string) error
	CreateChapterAssessment(ctx context.Context, chapterID string, in courseapi.AssessmentInput) (string, error)
	CreateLessonAssessment(ctx context.Context, lessonID string, in courseapi.AssessmentInput) (string, error)
	DeleteAssessment(ctx context.Context, assessmentID string) error
	CreateAssessmentCategory(ctx context.Context, courseID, name string, weight int) (string, error)
	GetQuarter(ctx context.Context, quarterID string) (*models.Quarter, error)
	GetChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error)
	GetChapterWithLessons(ctx context.Context, chapterID string) (*models.ChapterContent, error)
}

// UploadedFile is a file received from an editing surface, before policy
// checks have run
type UploadedFile struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// SubmitService is the submission coordinator. Pre-commit it owns the one
// atomic create of a whole draft; post-commit every node edit becomes an
// independent remote call followed by a re-fetch of the affected subtree, so
// client and server state never drift apart.
type SubmitService struct {
	api    CourseAPI
	store  *draft.Store
	stage  *draft.BlobStage
	engine *validation.Engine
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSubmitService creates a submission coordinator
func NewSubmitService(api CourseAPI, store *draft.Store, stage *draft.BlobStage, engine *validation.Engine, logger *zap.Logger) *SubmitService {
	return &SubmitService{
		api:      api,
		store:    store,
		stage:    stage,
		engine:   engine,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// InFlight reports whether a submission for the draft is currently running.
// Editing surfaces derive their busy signal from this, never from their own
// bookkeeping.
func (s *SubmitService) InFlight(draftID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[draftID]
	return busy
}

// SubmitDraft validates the whole draft and commits it atomically to the
// remote store. At most one submission per draft may be in flight; a second
// call while one runs returns ErrSubmitInFlight without touching the
// network. A failed submit leaves the draft exactly as it was.
func (s *SubmitService) SubmitDraft(ctx context.Context, draftID string, userID int) (string, error) {
	s.mu.Lock()
	if _, busy := s.inFlight[draftID]; busy {
		s.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	s.inFlight[draftID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, draftID)
		s.mu.Unlock()
	}()

	d, err := s.store.Get(draftID)
	if err != nil {
		return "", err
	}
	if d.OwnerID != userID {
		return "", ErrDraftAccessDenied
	}

	if errs := s.engine.ValidateDraftForSubmit(d); errs != nil {
		return "", &ValidationError{Fields: errs}
	}

	input, err := s.buildCreateInput(d)
	if err != nil {
		return "", err
	}

	courseID, err := s.api.CreateCourse(ctx, input)
	if err != nil {
		// The draft stays untouched so the author can retry
		s.logger.Error("course submit failed", zap.String("draft_id", draftID), zap.Error(err))
		return "", err
	}

	// The server representation replaces the local draft from here on
	for _, ref := range collectContentRefs(d) {
		s.stage.Delete(ref)
	}
	if err := s.store.Discard(draftID); err != nil {
		s.logger.Warn("failed to discard committed draft", zap.String("draft_id", draftID), zap.Error(err))
	}

	s.logger.Info("course committed",
		zap.String("draft_id", draftID),
		zap.String("course_id", courseID),
	)
	return courseID, nil
}

// chapterPayload is the transport shape of a chapter inside the atomic
// create. Attachments are referenced by content ref; the bytes ride as
// multipart parts keyed by the same ref.
type chapterPayload struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Lessons     []lessonPayload    `json:"lessons"`
	Assessment  *assessmentPayload `json:"assessment,omitempty"`
}

type lessonPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	YoutubeLink string   `json:"youtubeLink,omitempty"`
	OtherLink   string   `json:"otherLink,omitempty"`
	Attachments []string `json:"attachments"`
}

type assessmentPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	QuarterID   string   `json:"quarterId,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Attachments []string `json:"attachments"`
}

type gradesPayload struct {
	Categories []models.GradingCategory `json:"categories"`
	Scale      []models.GradeBand       `json:"scale"`
}

// buildCreateInput serializes the draft for the atomic create, resolving
// every staged blob into a multipart part
func (s *SubmitService) buildCreateInput(d *models.CourseDraft) (courseapi.CreateCourseInput, error) {
	in := courseapi.CreateCourseInput{
		Title:          d.Basics.Title,
		CategoryID:     d.Basics.CategoryID,
		SubcategoryID:  d.Basics.SubcategoryID,
		Language:       string(d.Basics.Language),
		Description:    d.Basics.Description,
		TeachingPoints: d.Basics.TeachingPoints,
		Requirements:   d.Basics.Requirements,
		SemesterIDs:    d.SemesterIDs,
		QuarterIDs:     d.QuarterIDs,
	}

	var err error
	if in.Thumbnail, err = s.resolvePart("thumbnail", d.Basics.Thumbnail); err != nil {
		return in, err
	}
	if in.Syllabus, err = s.resolvePart("syllabus", d.Basics.Syllabus); err != nil {
		return in, err
	}

	chapters := make([]chapterPayload, 0, len(d.Chapters))
	for _, ch := range d.Chapters {
		cp := chapterPayload{
			Title:       ch.Title,
			Description: ch.Description,
			Lessons:     make([]lessonPayload, 0, len(ch.Lessons)),
		}
		for _, l := range ch.Lessons {
			lp := lessonPayload{
				Title:       l.Title,
				Description: l.Description,
				YoutubeLink: l.YoutubeLink,
				OtherLink:   l.OtherLink,
				Attachments: []string{},
			}
			for _, f := range l.Attachments {
				if f.IsZero() {
					continue
				}
				part, err := s.resolvePart("attachments", &f)
				if err != nil {
					return in, err
				}
				in.Extra = append(in.Extra, part)
				lp.Attachments = append(lp.Attachments, f.ContentRef)
			}
			cp.Lessons = append(cp.Lessons, lp)
		}
		if a := ch.Assessment; a != nil {
			ap := &assessmentPayload{
				Title:       a.Title,
				Description: a.Description,
				Category:    a.CategoryID,
				QuarterID:   a.QuarterID,
				Attachments: []string{},
			}
			if a.DueDate != nil {
				ap.DueDate = a.DueDate.Instant.Format("2006-01-02T15:04:05Z07:00")
			}
			for _, f := range a.Attachments {
				if f.IsZero() {
					continue
				}
				part, err := s.resolvePart("attachments", &f)
				if err != nil {
					return in, err
				}
				in.Extra = append(in.Extra, part)
				ap.Attachments = append(ap.Attachments, f.ContentRef)
			}
			cp.Assessment = ap
		}
		chapters = append(chapters, cp)
	}

	chaptersJSON, err := json.Marshal(chapters)
	if err != nil {
		return in, fmt.Errorf("failed to encode chapters: %w", err)
	}
	in.Chapters = string(chaptersJSON)

	if d.Grades != nil {
		gradesJSON, err := json.Marshal(gradesPayload{
			Categories: d.Grades.Categories,
			Scale:      d.Grades.Scale,
		})
		if err != nil {
			return in, fmt.Errorf("failed to encode grading scheme: %w", err)
		}
		in.Grades = string(gradesJSON)
	}

	return in, nil
}

// resolvePart loads a staged blob into a multipart part. Attachment parts
// carry their content ref as filename so the server can match them to the
// chapters payload.
func (s *SubmitService) resolvePart(fieldName string, f *models.FileRef) (courseapi.FilePart, error) {
	data, err := s.stage.Get(f.ContentRef)
	if err != nil {
		return courseapi.FilePart{}, fmt.Errorf("blob for %s %q is missing: %w", fieldName, f.Name, err)
	}

	filename := f.Name
	if fieldName == "attachments" {
		filename = f.ContentRef
	}
	return courseapi.FilePart{
		FieldName: fieldName,
		Filename:  filename,
		MimeType:  f.MimeType,
		Content:   data,
	}, nil
}
