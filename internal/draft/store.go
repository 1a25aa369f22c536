// Package draft implements the in-memory store for courses under
// construction. Each mutation produces a fresh deep-copied snapshot, so an
// editor holding an older snapshot never observes a partial write; the store
// itself is the single pre-commit source of truth.
//
// The store is deliberately invariant-agnostic: field and attachment rules
// live in the validation package and gate every mutation at the service
// layer. The store only protects its own structure (existing, non-duplicate
// node ids and the minimum attachment slot).
package draft

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/backend/internal/models"
)

// Store errors, distinguishable with errors.Is
var (
	ErrDraftNotFound    = errors.New("draft not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrAssessmentExists = errors.New("chapter already has an assessment")
	ErrNoAssessment     = errors.New("chapter has no assessment")
	ErrSlotNotFound     = errors.New("attachment slot not found")
	ErrLastSlot         = errors.New("the last attachment slot cannot be removed")
)

// Store holds every draft currently being authored, keyed by draft id
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*models.CourseDraft
}

// NewStore creates an empty draft store
func NewStore() *Store {
	return &Store{drafts: make(map[string]*models.CourseDraft)}
}

// Create starts a new empty draft owned by the given user
func (s *Store) Create(ownerID int) *models.CourseDraft {
	now := time.Now().UTC()
	d := &models.CourseDraft{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Chapters:  []models.ChapterDraft{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()

	return d
}

// Get returns the latest snapshot of a draft. Callers must treat the
// snapshot as read-only; all writes go through store mutations.
func (s *Store) Get(draftID string) (*models.CourseDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// Discard removes a draft entirely (cancel, or replacement by the server
// representation after a successful commit)
func (s *Store) Discard(draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[draftID]; !ok {
		return ErrDraftNotFound
	}
	delete(s.drafts, draftID)
	return nil
}

// mutate clones the latest snapshot, applies fn to the clone, and publishes
// the clone as the new snapshot. fn returning an error leaves the previous
// snapshot in place untouched.
func (s *Store) mutate(draftID string, fn func(d *models.CourseDraft) error) (*models.CourseDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	s.drafts[draftID] = next
	return next, nil
}

// UpdateBasics replaces the scalar basics fields, keeping blob refs intact
func (s *Store) UpdateBasics(draftID string, req models.UpdateBasicsRequest) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		d.Basics.Title = req.Title
		d.Basics.CategoryID = req.CategoryID
		d.Basics.SubcategoryID = req.SubcategoryID
		d.Basics.Language = req.Language
		d.Basics.Description = req.Description
		d.Basics.TeachingPoints = append([]string(nil), req.TeachingPoints...)
		d.Basics.Requirements = append([]string(nil), req.Requirements...)
		return nil
	})
}

// SetThumbnail replaces the thumbnail blob ref
func (s *Store) SetThumbnail(draftID string, file models.FileRef) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		d.Basics.Thumbnail = &file
		return nil
	})
}

// SetSyllabus replaces the syllabus blob ref
func (s *Store) SetSyllabus(draftID string, file models.FileRef) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		d.Basics.Syllabus = &file
		return nil
	})
}

// SetPeriods replaces the associated semester and quarter id sets,
// de-duplicating while preserving order
func (s *Store) SetPeriods(draftID string, semesterIDs, quarterIDs []string) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		d.SemesterIDs = dedupe(semesterIDs)
		d.QuarterIDs = dedupe(quarterIDs)
		return nil
	})
}

// AddChapter appends a new chapter and returns the new snapshot and the
// generated chapter id. Ids are generated once and never reused.
func (s *Store) AddChapter(draftID string, req models.ChapterRequest) (*models.CourseDraft, string, error) {
	id := uuid.NewString()
	d, err := s.mutate(draftID, func(d *models.CourseDraft) error {
		d.Chapters = append(d.Chapters, models.ChapterDraft{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			Lessons:     []models.LessonDraft{},
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return d, id, nil
}

// UpdateChapter replaces a chapter's scalar fields
func (s *Store) UpdateChapter(draftID, chapterID string, req models.ChapterRequest) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		ch.Title = req.Title
		ch.Description = req.Description
		return nil
	})
}

// RemoveChapter deletes a chapter and everything beneath it
func (s *Store) RemoveChapter(draftID, chapterID string) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		for i := range d.Chapters {
			if d.Chapters[i].ID == chapterID {
				d.Chapters = append(d.Chapters[:i], d.Chapters[i+1:]...)
				return nil
			}
		}
		return ErrChapterNotFound
	})
}

// AddLesson appends a new lesson to a chapter. The lesson starts with one
// empty attachment slot, which can be filled but never removed below one.
func (s *Store) AddLesson(draftID, chapterID string, req models.LessonRequest) (*models.CourseDraft, string, error) {
	id := uuid.NewString()
	d, err := s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		ch.Lessons = append(ch.Lessons, models.LessonDraft{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			YoutubeLink: req.YoutubeLink,
			OtherLink:   req.OtherLink,
			Attachments: make([]models.FileRef, 1),
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return d, id, nil
}

// UpdateLesson replaces a lesson's scalar fields
func (s *Store) UpdateLesson(draftID, lessonID string, req models.LessonRequest) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		_, l := d.FindLesson(lessonID)
		if l == nil {
			return ErrLessonNotFound
		}
		l.Title = req.Title
		l.Description = req.Description
		l.YoutubeLink = req.YoutubeLink
		l.OtherLink = req.OtherLink
		return nil
	})
}

// RemoveLesson deletes a lesson from its chapter
func (s *Store) RemoveLesson(draftID, lessonID string) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		for i := range d.Chapters {
			lessons := d.Chapters[i].Lessons
			for j := range lessons {
				if lessons[j].ID == lessonID {
					d.Chapters[i].Lessons = append(lessons[:j], lessons[j+1:]...)
					return nil
				}
			}
		}
		return ErrLessonNotFound
	})
}

// AddLessonAttachmentSlot appends an empty attachment slot to a lesson
func (s *Store) AddLessonAttachmentSlot(draftID, lessonID string) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		_, l := d.FindLesson(lessonID)
		if l == nil {
			return ErrLessonNotFound
		}
		l.Attachments = append(l.Attachments, models.FileRef{})
		return nil
	})
}

// SetLessonAttachment fills an attachment slot with a file ref
func (s *Store) SetLessonAttachment(draftID, lessonID string, slot int, file models.FileRef) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		_, l := d.FindLesson(lessonID)
		if l == nil {
			return ErrLessonNotFound
		}
		if slot < 0 || slot >= len(l.Attachments) {
			return ErrSlotNotFound
		}
		l.Attachments[slot] = file
		return nil
	})
}

// FillLessonAttachment places a file in the first empty slot of a lesson,
// appending a new slot when none is free. The slot is picked inside the
// mutation, so overlapping uploads land in distinct slots.
func (s *Store) FillLessonAttachment(draftID, lessonID string, file models.FileRef) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		_, l := d.FindLesson(lessonID)
		if l == nil {
			return ErrLessonNotFound
		}
		for i := range l.Attachments {
			if l.Attachments[i].IsZero() {
				l.Attachments[i] = file
				return nil
			}
		}
		l.Attachments = append(l.Attachments, file)
		return nil
	})
}

// RemoveLessonAttachmentSlot drops an attachment slot, whether filled or
// empty. The last remaining slot is protected.
func (s *Store) RemoveLessonAttachmentSlot(draftID, lessonID string, slot int) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		_, l := d.FindLesson(lessonID)
		if l == nil {
			return ErrLessonNotFound
		}
		if slot < 0 || slot >= len(l.Attachments) {
			return ErrSlotNotFound
		}
		if len(l.Attachments) <= 1 {
			return ErrLastSlot
		}
		l.Attachments = append(l.Attachments[:slot], l.Attachments[slot+1:]...)
		return nil
	})
}

// SetAssessment creates a chapter's assessment. During authoring a chapter
// carries at most one; the relaxation to many happens server-side after
// commit.
func (s *Store) SetAssessment(draftID, chapterID string, a models.AssessmentDraft) (*models.CourseDraft, string, error) {
	id := uuid.NewString()
	d, err := s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		if ch.Assessment != nil {
			return ErrAssessmentExists
		}
		a.ID = id
		if a.Attachments == nil {
			a.Attachments = []models.FileRef{}
		}
		ch.Assessment = &a
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return d, id, nil
}

// UpdateAssessment replaces the scalar fields of a chapter's assessment
func (s *Store) UpdateAssessment(draftID, chapterID string, a models.AssessmentDraft) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		if ch.Assessment == nil {
			return ErrNoAssessment
		}
		a.ID = ch.Assessment.ID
		a.Attachments = ch.Assessment.Attachments
		ch.Assessment = &a
		return nil
	})
}

// RemoveAssessment deletes a chapter's assessment
func (s *Store) RemoveAssessment(draftID, chapterID string) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		if ch.Assessment == nil {
			return ErrNoAssessment
		}
		ch.Assessment = nil
		return nil
	})
}

// AddAssessmentAttachment appends a file to a chapter's assessment
func (s *Store) AddAssessmentAttachment(draftID, chapterID string, file models.FileRef) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		if ch.Assessment == nil {
			return ErrNoAssessment
		}
		ch.Assessment.Attachments = append(ch.Assessment.Attachments, file)
		return nil
	})
}

// RemoveAssessmentAttachment drops a file from a chapter's assessment
func (s *Store) RemoveAssessmentAttachment(draftID, chapterID string, idx int) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		ch := d.FindChapter(chapterID)
		if ch == nil {
			return ErrChapterNotFound
		}
		if ch.Assessment == nil {
			return ErrNoAssessment
		}
		att := ch.Assessment.Attachments
		if idx < 0 || idx >= len(att) {
			return ErrSlotNotFound
		}
		ch.Assessment.Attachments = append(att[:idx], att[idx+1:]...)
		return nil
	})
}

// SetGradingScheme replaces the draft's grading scheme, assigning ids to
// categories that don't have one yet
func (s *Store) SetGradingScheme(draftID string, scheme models.GradingScheme) (*models.CourseDraft, error) {
	return s.mutate(draftID, func(d *models.CourseDraft) error {
		for i := range scheme.Categories {
			if scheme.Categories[i].ID == "" {
				scheme.Categories[i].ID = uuid.NewString()
			}
		}
		d.Grades = &scheme
		return nil
	})
}

// EnsureGradingCategory returns the id of the named grading category,
// creating both the category and, if needed, the scheme on demand. Weight
// may be zero for a category created implicitly by an assessment editor; the
// weight-sum gate at submit time forces the author back to the grading step.
func (s *Store) EnsureGradingCategory(draftID, name string, weight int) (string, error) {
	var id string
	_, err := s.mutate(draftID, func(d *models.CourseDraft) error {
		if d.Grades == nil {
			d.Grades = &models.GradingScheme{}
		}
		for _, c := range d.Grades.Categories {
			if c.Name == name {
				id = c.ID
				return nil
			}
		}
		id = uuid.NewString()
		d.Grades.Categories = append(d.Grades.Categories, models.GradingCategory{
			ID:     id,
			Name:   name,
			Weight: weight,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// dedupe removes duplicate ids while preserving first-seen order
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
