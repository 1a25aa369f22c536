package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coursecraft/backend/internal/draft"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/validation"
)

// QuarterReader fetches quarter bounds for due-date containment checks
//
// "ctx" is the context for the request.
// "quarterID" is the ID of the quarter to fetch.
//
// Returns the quarter and an error if any.
type QuarterReader interface {
	GetQuarter(ctx context.Context, quarterID string) (*models.Quarter, error)
}

// DraftService backs every editing surface of a course draft. Each operation
// is a bounded session: validate the candidate value, and only on success
// apply the store mutation. Validation failures never mutate the tree.
type DraftService struct {
	store    *draft.Store
	stage    *draft.BlobStage
	engine   *validation.Engine
	quarters QuarterReader
	logger   *zap.Logger
}

// NewDraftService creates a draft service
func NewDraftService(store *draft.Store, stage *draft.BlobStage, engine *validation.Engine, quarters QuarterReader, logger *zap.Logger) *DraftService {
	return &DraftService{
		store:    store,
		stage:    stage,
		engine:   engine,
		quarters: quarters,
		logger:   logger,
	}
}

// CreateDraft starts a new empty draft for the user
func (s *DraftService) CreateDraft(userID int) *models.CourseDraft {
	d := s.store.Create(userID)
	s.logger.Info("draft created", zap.String("draft_id", d.ID), zap.Int("user_id", userID))
	return d
}

// GetDraft returns the latest snapshot of the user's draft
func (s *DraftService) GetDraft(draftID string, userID int) (*models.CourseDraft, error) {
	return s.authorize(draftID, userID)
}

// DiscardDraft drops the draft and every blob staged for it
func (s *DraftService) DiscardDraft(draftID string, userID int) error {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return err
	}

	for _, ref := range collectContentRefs(d) {
		s.stage.Delete(ref)
	}
	if err := s.store.Discard(draftID); err != nil {
		return err
	}

	s.logger.Info("draft discarded", zap.String("draft_id", draftID))
	return nil
}

// UpdateBasics validates and applies the basics step fields
func (s *DraftService) UpdateBasics(draftID string, userID int, req models.UpdateBasicsRequest) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}
	return s.store.UpdateBasics(draftID, req)
}

// SetThumbnail stages the thumbnail image and attaches its descriptor.
// Only PNG and JPEG content is accepted; the type is sniffed from the bytes.
func (s *DraftService) SetThumbnail(draftID string, userID int, filename, declaredType string, data []byte) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}

	mimeType := validation.SniffMimeType(data, declaredType)
	if mimeType != "image/png" && mimeType != "image/jpeg" {
		return nil, &ValidationError{Fields: map[string]string{
			"thumbnail": "thumbnail must be a PNG or JPEG image",
		}}
	}

	file := models.FileRef{
		Name:       filename,
		Size:       int64(len(data)),
		MimeType:   mimeType,
		ContentRef: s.stage.Put(data),
	}
	return s.replaceBasicsBlob(draftID, file, true)
}

// SetSyllabus stages the syllabus and attaches its descriptor. PDF only.
func (s *DraftService) SetSyllabus(draftID string, userID int, filename, declaredType string, data []byte) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}

	mimeType := validation.SniffMimeType(data, declaredType)
	if mimeType != "application/pdf" {
		return nil, &ValidationError{Fields: map[string]string{
			"syllabus": "syllabus must be a PDF",
		}}
	}

	file := models.FileRef{
		Name:       filename,
		Size:       int64(len(data)),
		MimeType:   mimeType,
		ContentRef: s.stage.Put(data),
	}
	return s.replaceBasicsBlob(draftID, file, false)
}

// replaceBasicsBlob swaps a basics blob ref, unstaging the previous one
func (s *DraftService) replaceBasicsBlob(draftID string, file models.FileRef, thumbnail bool) (*models.CourseDraft, error) {
	prev, err := s.store.Get(draftID)
	if err != nil {
		s.stage.Delete(file.ContentRef)
		return nil, err
	}

	var old *models.FileRef
	var next *models.CourseDraft
	if thumbnail {
		old = prev.Basics.Thumbnail
		next, err = s.store.SetThumbnail(draftID, file)
	} else {
		old = prev.Basics.Syllabus
		next, err = s.store.SetSyllabus(draftID, file)
	}
	if err != nil {
		s.stage.Delete(file.ContentRef)
		return nil, err
	}
	if old != nil {
		s.stage.Delete(old.ContentRef)
	}
	return next, nil
}

// SetPeriods validates and applies the semester/quarter association
func (s *DraftService) SetPeriods(draftID string, userID int, req models.SetPeriodsRequest) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}
	return s.store.SetPeriods(draftID, req.SemesterIDs, req.QuarterIDs)
}

// AddChapter validates and appends a new chapter
func (s *DraftService) AddChapter(draftID string, userID int, req models.ChapterRequest) (*models.CourseDraft, string, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, "", err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, "", &ValidationError{Fields: res.Errors}
	}
	return s.store.AddChapter(draftID, req)
}

// UpdateChapter validates and applies chapter field changes
func (s *DraftService) UpdateChapter(draftID string, userID int, chapterID string, req models.ChapterRequest) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}
	return s.store.UpdateChapter(draftID, chapterID, req)
}

// RemoveChapter deletes a chapter, unstaging the blobs beneath it
func (s *DraftService) RemoveChapter(draftID string, userID int, chapterID string) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}

	if ch := d.FindChapter(chapterID); ch != nil {
		for _, ref := range collectChapterRefs(*ch) {
			s.stage.Delete(ref)
		}
	}
	return s.store.RemoveChapter(draftID, chapterID)
}

// AddLesson validates and appends a new lesson to a chapter
func (s *DraftService) AddLesson(draftID string, userID int, chapterID string, req models.LessonRequest) (*models.CourseDraft, string, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, "", err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, "", &ValidationError{Fields: res.Errors}
	}
	return s.store.AddLesson(draftID, chapterID, req)
}

// UpdateLesson validates and applies lesson field changes
func (s *DraftService) UpdateLesson(draftID string, userID int, lessonID string, req models.LessonRequest) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}
	return s.store.UpdateLesson(draftID, lessonID, req)
}

// RemoveLesson deletes a lesson, unstaging its attachments
func (s *DraftService) RemoveLesson(draftID string, userID int, lessonID string) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}

	if _, l := d.FindLesson(lessonID); l != nil {
		for _, f := range l.Attachments {
			if !f.IsZero() {
				s.stage.Delete(f.ContentRef)
			}
		}
	}
	return s.store.RemoveLesson(draftID, lessonID)
}

// AddLessonAttachment runs the lesson attachment policy and, on acceptance,
// stages the file and fills the first empty slot (appending one if needed)
func (s *DraftService) AddLessonAttachment(draftID string, userID int, lessonID, filename, declaredType string, data []byte) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}
	_, l := d.FindLesson(lessonID)
	if l == nil {
		return nil, draft.ErrLessonNotFound
	}

	candidate := models.FileRef{
		Name:     filename,
		Size:     int64(len(data)),
		MimeType: validation.SniffMimeType(data, declaredType),
	}
	if err := validation.LessonAttachmentPolicy.Accept(candidate, l.Attachments); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"attachments": err.Error()}}
	}

	candidate.ContentRef = s.stage.Put(data)

	// Slot selection happens inside the store mutation, so staged bytes
	// cannot be orphaned by overlapping uploads to the same lesson
	next, err := s.store.FillLessonAttachment(draftID, lessonID, candidate)
	if err != nil {
		s.stage.Delete(candidate.ContentRef)
		return nil, err
	}
	return next, nil
}

// AddLessonAttachmentSlot appends an empty attachment slot to a lesson
func (s *DraftService) AddLessonAttachmentSlot(draftID string, userID int, lessonID string) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}
	return s.store.AddLessonAttachmentSlot(draftID, lessonID)
}

// RemoveLessonAttachmentSlot removes an attachment slot. The last slot is
// protected both here and structurally in the store.
func (s *DraftService) RemoveLessonAttachmentSlot(draftID string, userID int, lessonID string, slot int) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}
	_, l := d.FindLesson(lessonID)
	if l == nil {
		return nil, draft.ErrLessonNotFound
	}

	if err := validation.LessonAttachmentPolicy.CanRemoveSlot(l.Attachments); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"attachments": err.Error()}}
	}

	var removed models.FileRef
	if slot >= 0 && slot < len(l.Attachments) {
		removed = l.Attachments[slot]
	}

	next, err := s.store.RemoveLessonAttachmentSlot(draftID, lessonID, slot)
	if err != nil {
		return nil, err
	}
	if !removed.IsZero() {
		s.stage.Delete(removed.ContentRef)
	}
	return next, nil
}

// SetAssessment validates and creates a chapter's assessment. A quarter-bound
// due date is checked against the quarter's window before any write leaves
// this process; the grading category is created on demand when only a name
// is given.
func (s *DraftService) SetAssessment(ctx context.Context, draftID string, userID int, chapterID string, req models.AssessmentRequest) (*models.CourseDraft, string, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, "", err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, "", &ValidationError{Fields: res.Errors}
	}
	if err := s.checkDueDate(ctx, d, req); err != nil {
		return nil, "", err
	}

	categoryID, err := s.resolveCategory(d, req)
	if err != nil {
		return nil, "", err
	}

	return s.store.SetAssessment(draftID, chapterID, models.AssessmentDraft{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  categoryID,
		QuarterID:   req.QuarterID,
		DueDate:     req.DueDate,
	})
}

// UpdateAssessment validates and applies assessment field changes
func (s *DraftService) UpdateAssessment(ctx context.Context, draftID string, userID int, chapterID string, req models.AssessmentRequest) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}
	if err := s.checkDueDate(ctx, d, req); err != nil {
		return nil, err
	}

	categoryID, err := s.resolveCategory(d, req)
	if err != nil {
		return nil, err
	}

	return s.store.UpdateAssessment(draftID, chapterID, models.AssessmentDraft{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  categoryID,
		QuarterID:   req.QuarterID,
		DueDate:     req.DueDate,
	})
}

// RemoveAssessment deletes a chapter's assessment, unstaging its files
func (s *DraftService) RemoveAssessment(draftID string, userID int, chapterID string) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}

	if ch := d.FindChapter(chapterID); ch != nil && ch.Assessment != nil {
		for _, f := range ch.Assessment.Attachments {
			if !f.IsZero() {
				s.stage.Delete(f.ContentRef)
			}
		}
	}
	return s.store.RemoveAssessment(draftID, chapterID)
}

// AddAssessmentAttachment runs the assessment attachment policy and, on
// acceptance, stages the file and appends it
func (s *DraftService) AddAssessmentAttachment(draftID string, userID int, chapterID, filename, declaredType string, data []byte) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}
	ch := d.FindChapter(chapterID)
	if ch == nil {
		return nil, draft.ErrChapterNotFound
	}
	if ch.Assessment == nil {
		return nil, draft.ErrNoAssessment
	}

	candidate := models.FileRef{
		Name:     filename,
		Size:     int64(len(data)),
		MimeType: validation.SniffMimeType(data, declaredType),
	}
	if err := validation.AssessmentAttachmentPolicy.Accept(candidate, ch.Assessment.Attachments); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"attachments": err.Error()}}
	}

	candidate.ContentRef = s.stage.Put(data)
	next, err := s.store.AddAssessmentAttachment(draftID, chapterID, candidate)
	if err != nil {
		s.stage.Delete(candidate.ContentRef)
		return nil, err
	}
	return next, nil
}

// RemoveAssessmentAttachment drops a file from a chapter's assessment
func (s *DraftService) RemoveAssessmentAttachment(draftID string, userID int, chapterID string, idx int) (*models.CourseDraft, error) {
	d, err := s.authorize(draftID, userID)
	if err != nil {
		return nil, err
	}

	var removed models.FileRef
	if ch := d.FindChapter(chapterID); ch != nil && ch.Assessment != nil {
		if idx >= 0 && idx < len(ch.Assessment.Attachments) {
			removed = ch.Assessment.Attachments[idx]
		}
	}

	next, err := s.store.RemoveAssessmentAttachment(draftID, chapterID, idx)
	if err != nil {
		return nil, err
	}
	if !removed.IsZero() {
		s.stage.Delete(removed.ContentRef)
	}
	return next, nil
}

// SetGradingScheme validates and replaces the grading scheme. The weight-sum
// rule is part of the schema, so a scheme that doesn't sum to 100 never
// reaches the store.
func (s *DraftService) SetGradingScheme(draftID string, userID int, req models.GradingSchemeRequest) (*models.CourseDraft, error) {
	if _, err := s.authorize(draftID, userID); err != nil {
		return nil, err
	}
	if res := s.engine.Validate(req); !res.Valid() {
		return nil, &ValidationError{Fields: res.Errors}
	}

	scheme := models.GradingScheme{
		Categories: make([]models.GradingCategory, 0, len(req.Categories)),
		Scale:      make([]models.GradeBand, 0, len(req.Scale)),
	}
	for _, c := range req.Categories {
		scheme.Categories = append(scheme.Categories, models.GradingCategory{
			Name:   c.Name,
			Weight: c.Weight,
		})
	}
	for _, b := range req.Scale {
		scheme.Scale = append(scheme.Scale, models.GradeBand{
			Letter:       b.Letter,
			PercentRange: b.PercentRange,
		})
	}

	return s.store.SetGradingScheme(draftID, scheme)
}

// authorize returns the draft snapshot if it belongs to the user
func (s *DraftService) authorize(draftID string, userID int) (*models.CourseDraft, error) {
	d, err := s.store.Get(draftID)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != userID {
		return nil, ErrDraftAccessDenied
	}
	return d, nil
}

// checkDueDate enforces due-date containment for quarter-bound assessments.
// The quarter must be one the draft declared; its window comes from a remote
// read, but a violation fails here, before any write call is made.
func (s *DraftService) checkDueDate(ctx context.Context, d *models.CourseDraft, req models.AssessmentRequest) error {
	if req.QuarterID == "" || req.DueDate == nil {
		return nil
	}

	declared := false
	for _, id := range d.QuarterIDs {
		if id == req.QuarterID {
			declared = true
			break
		}
	}
	if !declared {
		return ErrQuarterNotAssociated
	}

	quarter, err := s.quarters.GetQuarter(ctx, req.QuarterID)
	if err != nil {
		return fmt.Errorf("failed to fetch quarter bounds: %w", err)
	}

	if res := validation.ValidateDueDate(req.DueDate, quarter); !res.Valid() {
		return &ValidationError{Fields: res.Errors}
	}
	return nil
}

// resolveCategory maps an assessment request to a grading category id,
// creating the category on demand when only a name was provided
func (s *DraftService) resolveCategory(d *models.CourseDraft, req models.AssessmentRequest) (string, error) {
	if req.CategoryID != "" {
		if d.Grades != nil {
			for _, c := range d.Grades.Categories {
				if c.ID == req.CategoryID {
					return c.ID, nil
				}
			}
		}
		return "", ErrUnknownGradingCategory
	}
	return s.store.EnsureGradingCategory(d.ID, req.CategoryName, req.CategoryWeight)
}

// collectContentRefs gathers every staged blob ref reachable from a draft
func collectContentRefs(d *models.CourseDraft) []string {
	var refs []string
	if d.Basics.Thumbnail != nil {
		refs = append(refs, d.Basics.Thumbnail.ContentRef)
	}
	if d.Basics.Syllabus != nil {
		refs = append(refs, d.Basics.Syllabus.ContentRef)
	}
	for _, ch := range d.Chapters {
		refs = append(refs, collectChapterRefs(ch)...)
	}
	return refs
}

func collectChapterRefs(ch models.ChapterDraft) []string {
	var refs []string
	for _, l := range ch.Lessons {
		for _, f := range l.Attachments {
			if !f.IsZero() {
				refs = append(refs, f.ContentRef)
			}
		}
	}
	if ch.Assessment != nil {
		for _, f := range ch.Assessment.Attachments {
			if !f.IsZero() {
				refs = append(refs, f.ContentRef)
			}
		}
	}
	return refs
}
