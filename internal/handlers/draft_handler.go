package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/coursecraft/backend/libs/auth/middleware"
	"github.com/coursecraft/backend/libs/handlers"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/draft"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/services"
)

// maxUploadMemory bounds how much of a multipart body is buffered in memory
const maxUploadMemory = 20 << 20 // 20MB

// DraftService is the interface that wraps draft composition operations
type DraftService interface {
	// Method CreateDraft opens a fresh draft owned by the user.
	CreateDraft(userID int) *models.CourseDraft
	// Method GetDraft retrieves the current snapshot of a draft.
	//
	// If the draft does not exist or belongs to another user, an error is returned together with "nil" value.
	GetDraft(draftID string, userID int) (*models.CourseDraft, error)
	// Method DiscardDraft drops a draft and releases its staged files.
	//
	// If the draft does not exist or belongs to another user, an error is returned.
	DiscardDraft(draftID string, userID int) error
	// Method UpdateBasics validates and replaces the basic course fields of a draft.
	//
	// If validation fails, the returned error carries the per-field messages and the draft stays unchanged.
	UpdateBasics(draftID string, userID int, req models.UpdateBasicsRequest) (*models.CourseDraft, error)
	// Method SetThumbnail stages an image as the course thumbnail.
	//
	// "declaredType" parameter is the content type the upload claimed; the real type is sniffed from the bytes.
	SetThumbnail(draftID string, userID int, filename, declaredType string, data []byte) (*models.CourseDraft, error)
	// Method SetSyllabus stages a PDF as the course syllabus.
	//
	// "declaredType" parameter is the content type the upload claimed; the real type is sniffed from the bytes.
	SetSyllabus(draftID string, userID int, filename, declaredType string, data []byte) (*models.CourseDraft, error)
	// Method SetPeriods replaces the semesters and quarters the course is taught in.
	SetPeriods(draftID string, userID int, req models.SetPeriodsRequest) (*models.CourseDraft, error)
	// Method AddChapter appends a chapter to the draft and returns its id.
	AddChapter(draftID string, userID int, req models.ChapterRequest) (*models.CourseDraft, string, error)
	// Method UpdateChapter replaces the title and description of a chapter.
	UpdateChapter(draftID string, userID int, chapterID string, req models.ChapterRequest) (*models.CourseDraft, error)
	// Method RemoveChapter drops a chapter with everything nested under it.
	RemoveChapter(draftID string, userID int, chapterID string) (*models.CourseDraft, error)
	// Method AddLesson appends a lesson to a chapter and returns its id.
	AddLesson(draftID string, userID int, chapterID string, req models.LessonRequest) (*models.CourseDraft, string, error)
	// Method UpdateLesson replaces the editable fields of a lesson.
	UpdateLesson(draftID string, userID int, lessonID string, req models.LessonRequest) (*models.CourseDraft, error)
	// Method RemoveLesson drops a lesson with its attachments.
	RemoveLesson(draftID string, userID int, lessonID string) (*models.CourseDraft, error)
	// Method AddLessonAttachment checks the file against the lesson policy and stores it in the first free slot.
	//
	// If the policy rejects the file, the returned error carries the reason and nothing is stored.
	AddLessonAttachment(draftID string, userID int, lessonID, filename, declaredType string, data []byte) (*models.CourseDraft, error)
	// Method AddLessonAttachmentSlot appends an empty attachment slot to a lesson.
	AddLessonAttachmentSlot(draftID string, userID int, lessonID string) (*models.CourseDraft, error)
	// Method RemoveLessonAttachmentSlot removes an attachment slot.
	//
	// The last remaining slot cannot be removed.
	RemoveLessonAttachmentSlot(draftID string, userID int, lessonID string, slot int) (*models.CourseDraft, error)
	// Method SetAssessment validates and creates the assessment of a chapter, returning its id.
	//
	// A chapter holds at most one assessment while drafting.
	SetAssessment(ctx context.Context, draftID string, userID int, chapterID string, req models.AssessmentRequest) (*models.CourseDraft, string, error)
	// Method UpdateAssessment validates and replaces the assessment of a chapter.
	UpdateAssessment(ctx context.Context, draftID string, userID int, chapterID string, req models.AssessmentRequest) (*models.CourseDraft, error)
	// Method RemoveAssessment drops the assessment of a chapter.
	RemoveAssessment(draftID string, userID int, chapterID string) (*models.CourseDraft, error)
	// Method AddAssessmentAttachment checks the file against the assessment policy and appends it.
	AddAssessmentAttachment(draftID string, userID int, chapterID, filename, declaredType string, data []byte) (*models.CourseDraft, error)
	// Method RemoveAssessmentAttachment removes an assessment attachment by index.
	RemoveAssessmentAttachment(draftID string, userID int, chapterID string, idx int) (*models.CourseDraft, error)
	// Method SetGradingScheme validates and replaces the grading scheme of a draft.
	//
	// Category weights must sum to exactly 100.
	SetGradingScheme(draftID string, userID int, req models.GradingSchemeRequest) (*models.CourseDraft, error)
}

// DraftHandler handles draft composition HTTP requests
type DraftHandler struct {
	handlers.BaseHandler
	service DraftService
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(svc DraftService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		service:     svc,
		BaseHandler: handlers.BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all draft handler routes
// Note: This assumes the router is already scoped to /api/v1 and behind auth
func (h *DraftHandler) RegisterRoutes(r chi.Router) {
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{draftID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Discard)
			r.Put("/basics", h.UpdateBasics)
			r.Post("/thumbnail", h.UploadThumbnail)
			r.Post("/syllabus", h.UploadSyllabus)
			r.Put("/periods", h.SetPeriods)
			r.Put("/grades", h.SetGradingScheme)

			r.Post("/chapters", h.AddChapter)
			r.Route("/chapters/{chapterID}", func(r chi.Router) {
				r.Patch("/", h.UpdateChapter)
				r.Delete("/", h.RemoveChapter)
				r.Post("/lessons", h.AddLesson)
				r.Post("/assessment", h.SetAssessment)
				r.Patch("/assessment", h.UpdateAssessment)
				r.Delete("/assessment", h.RemoveAssessment)
				r.Post("/assessment/attachments", h.AddAssessmentAttachment)
				r.Delete("/assessment/attachments/{index}", h.RemoveAssessmentAttachment)
			})

			r.Route("/lessons/{lessonID}", func(r chi.Router) {
				r.Patch("/", h.UpdateLesson)
				r.Delete("/", h.RemoveLesson)
				r.Post("/attachments", h.AddLessonAttachment)
				r.Post("/attachments/slots", h.AddLessonAttachmentSlot)
				r.Delete("/attachments/{slot}", h.RemoveLessonAttachmentSlot)
			})
		})
	})
}

// Create handles POST /drafts
// @Summary Open a new course draft
// @Description Create an empty course draft owned by the authenticated teacher
// @Tags drafts
// @Accept json
// @Produce json
// @Success 201 {object} models.CourseDraft "Created draft"
// @Failure 401 {object} map[string]string "Authentication required"
// @Router /drafts [post]
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	d := h.service.CreateDraft(userID)
	h.RespondJSON(w, http.StatusCreated, d)
}

// Get handles GET /drafts/{draftID}
// @Summary Get a draft
// @Description Retrieve the current snapshot of a course draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Success 200 {object} models.CourseDraft "Draft snapshot"
// @Failure 403 {object} map[string]string "Draft owned by another user"
// @Failure 404 {object} map[string]string "Draft not found"
// @Router /drafts/{draftID} [get]
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	d, err := h.service.GetDraft(chi.URLParam(r, "draftID"), userID)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// Discard handles DELETE /drafts/{draftID}
// @Summary Discard a draft
// @Description Drop a course draft and release its staged files
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Success 204 "Draft discarded"
// @Failure 403 {object} map[string]string "Draft owned by another user"
// @Failure 404 {object} map[string]string "Draft not found"
// @Router /drafts/{draftID} [delete]
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.service.DiscardDraft(chi.URLParam(r, "draftID"), userID); err != nil {
		h.respondDraftError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateBasics handles PUT /drafts/{draftID}/basics
// @Summary Update course basics
// @Description Validate and replace the basic course fields of a draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param request body models.UpdateBasicsRequest true "Course basics"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/basics [put]
func (h *DraftHandler) UpdateBasics(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.UpdateBasicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.UpdateBasics(chi.URLParam(r, "draftID"), userID, req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// UploadThumbnail handles POST /drafts/{draftID}/thumbnail
// @Summary Upload the course thumbnail
// @Description Stage a PNG or JPEG image as the course thumbnail
// @Tags drafts
// @Accept multipart/form-data
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param file formData file true "Thumbnail image"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 422 {object} map[string]interface{} "File rejected"
// @Router /drafts/{draftID}/thumbnail [post]
func (h *DraftHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	name, declaredType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	d, err := h.service.SetThumbnail(chi.URLParam(r, "draftID"), userID, name, declaredType, data)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// UploadSyllabus handles POST /drafts/{draftID}/syllabus
// @Summary Upload the course syllabus
// @Description Stage a PDF document as the course syllabus
// @Tags drafts
// @Accept multipart/form-data
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param file formData file true "Syllabus PDF"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 422 {object} map[string]interface{} "File rejected"
// @Router /drafts/{draftID}/syllabus [post]
func (h *DraftHandler) UploadSyllabus(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	name, declaredType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	d, err := h.service.SetSyllabus(chi.URLParam(r, "draftID"), userID, name, declaredType, data)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// SetPeriods handles PUT /drafts/{draftID}/periods
// @Summary Set course periods
// @Description Replace the semesters and quarters the course is taught in
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param request body models.SetPeriodsRequest true "Declared periods"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/periods [put]
func (h *DraftHandler) SetPeriods(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.SetPeriodsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.SetPeriods(chi.URLParam(r, "draftID"), userID, req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// SetGradingScheme handles PUT /drafts/{draftID}/grades
// @Summary Set the grading scheme
// @Description Validate and replace the grading categories and grade scale of a draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param request body models.GradingSchemeRequest true "Grading scheme"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/grades [put]
func (h *DraftHandler) SetGradingScheme(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.GradingSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.SetGradingScheme(chi.URLParam(r, "draftID"), userID, req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// AddChapter handles POST /drafts/{draftID}/chapters
// @Summary Add a chapter
// @Description Validate and append a chapter to a draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param request body models.ChapterRequest true "Chapter fields"
// @Success 201 {object} map[string]interface{} "Chapter id and updated draft"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/chapters [post]
func (h *DraftHandler) AddChapter(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, chapterID, err := h.service.AddChapter(chi.URLParam(r, "draftID"), userID, req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"chapterId": chapterID,
		"draft":     d,
	})
}

// UpdateChapter handles PATCH /drafts/{draftID}/chapters/{chapterID}
// @Summary Update a chapter
// @Description Validate and replace the title and description of a chapter
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Param request body models.ChapterRequest true "Chapter fields"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Chapter not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/chapters/{chapterID} [patch]
func (h *DraftHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.UpdateChapter(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"), req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// RemoveChapter handles DELETE /drafts/{draftID}/chapters/{chapterID}
// @Summary Remove a chapter
// @Description Drop a chapter with everything nested under it
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Chapter not found"
// @Router /drafts/{draftID}/chapters/{chapterID} [delete]
func (h *DraftHandler) RemoveChapter(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	d, err := h.service.RemoveChapter(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"))
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// AddLesson handles POST /drafts/{draftID}/chapters/{chapterID}/lessons
// @Summary Add a lesson
// @Description Validate and append a lesson to a chapter
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Param request body models.LessonRequest true "Lesson fields"
// @Success 201 {object} map[string]interface{} "Lesson id and updated draft"
// @Failure 404 {object} map[string]string "Chapter not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/chapters/{chapterID}/lessons [post]
func (h *DraftHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.LessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, lessonID, err := h.service.AddLesson(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"), req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"lessonId": lessonID,
		"draft":    d,
	})
}

// UpdateLesson handles PATCH /drafts/{draftID}/lessons/{lessonID}
// @Summary Update a lesson
// @Description Validate and replace the editable fields of a lesson
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param lessonID path string true "Lesson ID"
// @Param request body models.LessonRequest true "Lesson fields"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/lessons/{lessonID} [patch]
func (h *DraftHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.LessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.UpdateLesson(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "lessonID"), req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// RemoveLesson handles DELETE /drafts/{draftID}/lessons/{lessonID}
// @Summary Remove a lesson
// @Description Drop a lesson with its attachments
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param lessonID path string true "Lesson ID"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /drafts/{draftID}/lessons/{lessonID} [delete]
func (h *DraftHandler) RemoveLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	d, err := h.service.RemoveLesson(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "lessonID"))
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// AddLessonAttachment handles POST /drafts/{draftID}/lessons/{lessonID}/attachments
// @Summary Attach a file to a lesson
// @Description Check the file against the lesson attachment policy and store it in the first free slot
// @Tags drafts
// @Accept multipart/form-data
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param lessonID path string true "Lesson ID"
// @Param file formData file true "PDF attachment"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 422 {object} map[string]interface{} "File rejected"
// @Router /drafts/{draftID}/lessons/{lessonID}/attachments [post]
func (h *DraftHandler) AddLessonAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	name, declaredType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	d, err := h.service.AddLessonAttachment(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "lessonID"), name, declaredType, data)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// AddLessonAttachmentSlot handles POST /drafts/{draftID}/lessons/{lessonID}/attachments/slots
// @Summary Add an attachment slot
// @Description Append an empty attachment slot to a lesson
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param lessonID path string true "Lesson ID"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /drafts/{draftID}/lessons/{lessonID}/attachments/slots [post]
func (h *DraftHandler) AddLessonAttachmentSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	d, err := h.service.AddLessonAttachmentSlot(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "lessonID"))
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// RemoveLessonAttachmentSlot handles DELETE /drafts/{draftID}/lessons/{lessonID}/attachments/{slot}
// @Summary Remove an attachment slot
// @Description Remove an attachment slot from a lesson; the last slot is protected
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param lessonID path string true "Lesson ID"
// @Param slot path int true "Slot index"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Slot not found"
// @Failure 409 {object} map[string]string "Last slot cannot be removed"
// @Router /drafts/{draftID}/lessons/{lessonID}/attachments/{slot} [delete]
func (h *DraftHandler) RemoveLessonAttachmentSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid slot index")
		return
	}

	d, err := h.service.RemoveLessonAttachmentSlot(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "lessonID"), slot)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// SetAssessment handles POST /drafts/{draftID}/chapters/{chapterID}/assessment
// @Summary Create the chapter assessment
// @Description Validate and create the assessment of a chapter; a drafted chapter holds at most one
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Param request body models.AssessmentRequest true "Assessment fields"
// @Success 201 {object} map[string]interface{} "Assessment id and updated draft"
// @Failure 404 {object} map[string]string "Chapter not found"
// @Failure 409 {object} map[string]string "Chapter already has an assessment"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/chapters/{chapterID}/assessment [post]
func (h *DraftHandler) SetAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, assessmentID, err := h.service.SetAssessment(r.Context(), chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"), req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"assessmentId": assessmentID,
		"draft":        d,
	})
}

// UpdateAssessment handles PATCH /drafts/{draftID}/chapters/{chapterID}/assessment
// @Summary Update the chapter assessment
// @Description Validate and replace the assessment of a chapter
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Param request body models.AssessmentRequest true "Assessment fields"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Assessment not found"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /drafts/{draftID}/chapters/{chapterID}/assessment [patch]
func (h *DraftHandler) UpdateAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.service.UpdateAssessment(r.Context(), chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"), req)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// RemoveAssessment handles DELETE /drafts/{draftID}/chapters/{chapterID}/assessment
// @Summary Remove the chapter assessment
// @Description Drop the assessment of a chapter with its attachments
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Assessment not found"
// @Router /drafts/{draftID}/chapters/{chapterID}/assessment [delete]
func (h *DraftHandler) RemoveAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	d, err := h.service.RemoveAssessment(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"))
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// AddAssessmentAttachment handles POST /drafts/{draftID}/chapters/{chapterID}/assessment/attachments
// @Summary Attach a file to the chapter assessment
// @Description Check the file against the assessment attachment policy and append it
// @Tags drafts
// @Accept multipart/form-data
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Param file formData file true "Attachment (PNG, JPEG or PDF)"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Assessment not found"
// @Failure 422 {object} map[string]interface{} "File rejected"
// @Router /drafts/{draftID}/chapters/{chapterID}/assessment/attachments [post]
func (h *DraftHandler) AddAssessmentAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	name, declaredType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	d, err := h.service.AddAssessmentAttachment(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"), name, declaredType, data)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// RemoveAssessmentAttachment handles DELETE /drafts/{draftID}/chapters/{chapterID}/assessment/attachments/{index}
// @Summary Remove an assessment attachment
// @Description Remove an attachment of the chapter assessment by index
// @Tags drafts
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param chapterID path string true "Chapter ID"
// @Param index path int true "Attachment index"
// @Success 200 {object} models.CourseDraft "Updated draft"
// @Failure 404 {object} map[string]string "Attachment not found"
// @Router /drafts/{draftID}/chapters/{chapterID}/assessment/attachments/{index} [delete]
func (h *DraftHandler) RemoveAssessmentAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid attachment index")
		return
	}

	d, err := h.service.RemoveAssessmentAttachment(chi.URLParam(r, "draftID"), userID, chi.URLParam(r, "chapterID"), idx)
	if err != nil {
		h.respondDraftError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, d)
}

// readUpload parses the multipart body and reads the "file" part into memory.
// It writes the error response itself and reports success via the bool.
func (h *DraftHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return "", "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return "", "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Error("failed to read uploaded file", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read file")
		return "", "", nil, false
	}

	return header.Filename, header.Header.Get("Content-Type"), data, true
}

// respondDraftError maps service errors onto HTTP statuses
func (h *DraftHandler) respondDraftError(w http.ResponseWriter, err error) {
	if verr, ok := services.AsValidationError(err); ok {
		h.RespondFieldErrors(w, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrDraftAccessDenied):
		h.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, draft.ErrDraftNotFound),
		errors.Is(err, draft.ErrChapterNotFound),
		errors.Is(err, draft.ErrLessonNotFound),
		errors.Is(err, draft.ErrNoAssessment),
		errors.Is(err, draft.ErrSlotNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, draft.ErrAssessmentExists),
		errors.Is(err, draft.ErrLastSlot):
		h.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrQuarterNotAssociated),
		errors.Is(err, services.ErrUnknownGradingCategory):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		var apiErr *courseapi.APIError
		if errors.As(err, &apiErr) {
			h.Logger.Error("course service request failed", zap.Int("status", apiErr.StatusCode), zap.Error(err))
			h.RespondError(w, http.StatusBadGateway, "course service request failed")
			return
		}
		h.Logger.Error("draft operation failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
