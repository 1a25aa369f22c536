package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/coursecraft/backend/libs/auth/middleware"
	"github.com/coursecraft/backend/libs/handlers"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/models"
	"github.com/coursecraft/backend/internal/services"
)

// PublishedService is the interface that wraps node edits on committed courses
type PublishedService interface {
	// Method CreateChapter creates a chapter on a committed course and returns its id with the refreshed chapter list.
	CreateChapter(ctx context.Context, courseID, quarterID string, req models.ChapterRequest) (string, []models.ChapterInfo, error)
	// Method UpdateChapter updates a committed chapter and returns its refreshed content.
	UpdateChapter(ctx context.Context, chapterID string, req models.ChapterRequest) (*models.ChapterContent, error)
	// Method DeleteChapter removes a committed chapter and returns the refreshed chapter list of its quarter.
	DeleteChapter(ctx context.Context, courseID, quarterID, chapterID string) ([]models.ChapterInfo, error)
	// Method CreateLesson creates a lesson on a committed chapter and returns its id with the refreshed chapter content.
	//
	// Attachments are checked against the lesson policy before anything is sent.
	CreateLesson(ctx context.Context, chapterID string, req models.LessonRequest, files []services.UploadedFile) (string, *models.ChapterContent, error)
	// Method UpdateLesson updates a committed lesson and returns the refreshed content of its chapter.
	UpdateLesson(ctx context.Context, chapterID, lessonID string, req models.LessonRequest, files []services.UploadedFile) (*models.ChapterContent, error)
	// Method DeleteLesson removes a committed lesson and returns the refreshed content of its chapter.
	DeleteLesson(ctx context.Context, chapterID, lessonID string) (*models.ChapterContent, error)
	// Method CreateChapterAssessment creates an assessment on a committed chapter.
	//
	// The due date must fall inside a quarter the course declares; a grading
	// category is created remotely when only a name is given.
	CreateChapterAssessment(ctx context.Context, courseID, chapterID string, req models.AssessmentRequest, files []services.UploadedFile) (string, *models.ChapterContent, error)
	// Method CreateLessonAssessment creates an assessment on a committed lesson.
	CreateLessonAssessment(ctx context.Context, courseID, chapterID, lessonID string, req models.AssessmentRequest, files []services.UploadedFile) (string, *models.ChapterContent, error)
	// Method DeleteAssessment removes a committed assessment and returns the refreshed content of its chapter.
	DeleteAssessment(ctx context.Context, chapterID, assessmentID string) (*models.ChapterContent, error)
}

// PublishedHandler handles node edits on committed courses
type PublishedHandler struct {
	handlers.BaseHandler
	service PublishedService
}

// NewPublishedHandler creates a new published-course handler
func NewPublishedHandler(svc PublishedService, logger *zap.Logger) *PublishedHandler {
	return &PublishedHandler{
		service:     svc,
		BaseHandler: handlers.BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all published-course handler routes
// Note: This assumes the router is already scoped to /api/v1 and behind auth
func (h *PublishedHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses/{courseID}", func(r chi.Router) {
		r.Post("/quarters/{quarterID}/chapters", h.CreateChapter)
		r.Delete("/quarters/{quarterID}/chapters/{chapterID}", h.DeleteChapter)
		r.Post("/chapters/{chapterID}/assessment", h.CreateChapterAssessment)
		r.Post("/chapters/{chapterID}/lessons/{lessonID}/assessment", h.CreateLessonAssessment)
	})
	r.Route("/chapters/{chapterID}", func(r chi.Router) {
		r.Patch("/", h.UpdateChapter)
		r.Post("/lessons", h.CreateLesson)
		r.Patch("/lessons/{lessonID}", h.UpdateLesson)
		r.Delete("/lessons/{lessonID}", h.DeleteLesson)
		r.Delete("/assessments/{assessmentID}", h.DeleteAssessment)
	})
}

// CreateChapter handles POST /courses/{courseID}/quarters/{quarterID}/chapters
// @Summary Create a chapter on a committed course
// @Description Validate and create a chapter, then return the refreshed chapter list of the quarter
// @Tags courses
// @Accept json
// @Produce json
// @Param courseID path string true "Course ID"
// @Param quarterID path string true "Quarter ID"
// @Param request body models.ChapterRequest true "Chapter fields"
// @Success 201 {object} map[string]interface{} "Chapter id and refreshed chapter list"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /courses/{courseID}/quarters/{quarterID}/chapters [post]
func (h *PublishedHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chapterID, chapters, err := h.service.CreateChapter(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "quarterID"), req)
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"chapterId": chapterID,
		"chapters":  chapters,
	})
}

// UpdateChapter handles PATCH /chapters/{chapterID}
// @Summary Update a committed chapter
// @Description Validate and update a chapter, then return its refreshed content
// @Tags courses
// @Accept json
// @Produce json
// @Param chapterID path string true "Chapter ID"
// @Param request body models.ChapterRequest true "Chapter fields"
// @Success 200 {object} models.ChapterContent "Refreshed chapter content"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /chapters/{chapterID} [patch]
func (h *PublishedHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.service.UpdateChapter(r.Context(), chi.URLParam(r, "chapterID"), req)
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, content)
}

// DeleteChapter handles DELETE /courses/{courseID}/quarters/{quarterID}/chapters/{chapterID}
// @Summary Delete a committed chapter
// @Description Remove a chapter, then return the refreshed chapter list of the quarter
// @Tags courses
// @Accept json
// @Produce json
// @Param courseID path string true "Course ID"
// @Param quarterID path string true "Quarter ID"
// @Param chapterID path string true "Chapter ID"
// @Success 200 {object} map[string]interface{} "Refreshed chapter list"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /courses/{courseID}/quarters/{quarterID}/chapters/{chapterID} [delete]
func (h *PublishedHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chapters, err := h.service.DeleteChapter(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "quarterID"), chi.URLParam(r, "chapterID"))
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]any{"chapters": chapters})
}

// CreateLesson handles POST /chapters/{chapterID}/lessons
// @Summary Create a lesson on a committed chapter
// @Description Validate the lesson and its attachments, create it, then return the refreshed chapter content
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param chapterID path string true "Chapter ID"
// @Param title formData string true "Lesson title"
// @Param description formData string true "Lesson description"
// @Param youtubeLink formData string false "YouTube link"
// @Param otherLink formData string false "External link"
// @Param files formData file false "PDF attachments"
// @Success 201 {object} map[string]interface{} "Lesson id and refreshed chapter content"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /chapters/{chapterID}/lessons [post]
func (h *PublishedHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, files, ok := h.readLessonForm(w, r)
	if !ok {
		return
	}

	lessonID, content, err := h.service.CreateLesson(r.Context(), chi.URLParam(r, "chapterID"), req, files)
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"lessonId": lessonID,
		"chapter":  content,
	})
}

// UpdateLesson handles PATCH /chapters/{chapterID}/lessons/{lessonID}
// @Summary Update a committed lesson
// @Description Validate and update a lesson, then return the refreshed content of its chapter
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param chapterID path string true "Chapter ID"
// @Param lessonID path string true "Lesson ID"
// @Param title formData string true "Lesson title"
// @Param description formData string true "Lesson description"
// @Param youtubeLink formData string false "YouTube link"
// @Param otherLink formData string false "External link"
// @Param files formData file false "PDF attachments"
// @Success 200 {object} models.ChapterContent "Refreshed chapter content"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /chapters/{chapterID}/lessons/{lessonID} [patch]
func (h *PublishedHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, files, ok := h.readLessonForm(w, r)
	if !ok {
		return
	}

	content, err := h.service.UpdateLesson(r.Context(), chi.URLParam(r, "chapterID"), chi.URLParam(r, "lessonID"), req, files)
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, content)
}

// DeleteLesson handles DELETE /chapters/{chapterID}/lessons/{lessonID}
// @Summary Delete a committed lesson
// @Description Remove a lesson, then return the refreshed content of its chapter
// @Tags courses
// @Accept json
// @Produce json
// @Param chapterID path string true "Chapter ID"
// @Param lessonID path string true "Lesson ID"
// @Success 200 {object} models.ChapterContent "Refreshed chapter content"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /chapters/{chapterID}/lessons/{lessonID} [delete]
func (h *PublishedHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	content, err := h.service.DeleteLesson(r.Context(), chi.URLParam(r, "chapterID"), chi.URLParam(r, "lessonID"))
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, content)
}

// CreateChapterAssessment handles POST /courses/{courseID}/chapters/{chapterID}/assessment
// @Summary Create an assessment on a committed chapter
// @Description Validate and create the assessment, then return the refreshed chapter content
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param courseID path string true "Course ID"
// @Param chapterID path string true "Chapter ID"
// @Param title formData string true "Assessment title"
// @Param description formData string true "Assessment description"
// @Param categoryId formData string false "Existing grading category id"
// @Param categoryName formData string false "New grading category name"
// @Param categoryWeight formData int false "New grading category weight"
// @Param quarterId formData string false "Quarter the due date falls in"
// @Param dueDate formData string false "Due date, RFC 3339"
// @Param files formData file false "Attachments (PNG, JPEG or PDF)"
// @Success 201 {object} map[string]interface{} "Assessment id and refreshed chapter content"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /courses/{courseID}/chapters/{chapterID}/assessment [post]
func (h *PublishedHandler) CreateChapterAssessment(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, files, ok := h.readAssessmentForm(w, r)
	if !ok {
		return
	}

	assessmentID, content, err := h.service.CreateChapterAssessment(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "chapterID"), req, files)
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"assessmentId": assessmentID,
		"chapter":      content,
	})
}

// CreateLessonAssessment handles POST /courses/{courseID}/chapters/{chapterID}/lessons/{lessonID}/assessment
// @Summary Create an assessment on a committed lesson
// @Description Validate and create the assessment, then return the refreshed content of the enclosing chapter
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param courseID path string true "Course ID"
// @Param chapterID path string true "Chapter ID"
// @Param lessonID path string true "Lesson ID"
// @Param title formData string true "Assessment title"
// @Param description formData string true "Assessment description"
// @Param categoryId formData string false "Existing grading category id"
// @Param categoryName formData string false "New grading category name"
// @Param categoryWeight formData int false "New grading category weight"
// @Param quarterId formData string false "Quarter the due date falls in"
// @Param dueDate formData string false "Due date, RFC 3339"
// @Param files formData file false "Attachments (PNG, JPEG or PDF)"
// @Success 201 {object} map[string]interface{} "Assessment id and refreshed chapter content"
// @Failure 422 {object} map[string]interface{} "Validation failed"
// @Router /courses/{courseID}/chapters/{chapterID}/lessons/{lessonID}/assessment [post]
func (h *PublishedHandler) CreateLessonAssessment(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, files, ok := h.readAssessmentForm(w, r)
	if !ok {
		return
	}

	assessmentID, content, err := h.service.CreateLessonAssessment(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "chapterID"), chi.URLParam(r, "lessonID"), req, files)
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"assessmentId": assessmentID,
		"chapter":      content,
	})
}

// DeleteAssessment handles DELETE /chapters/{chapterID}/assessments/{assessmentID}
// @Summary Delete a committed assessment
// @Description Remove an assessment, then return the refreshed content of its chapter
// @Tags courses
// @Accept json
// @Produce json
// @Param chapterID path string true "Chapter ID"
// @Param assessmentID path string true "Assessment ID"
// @Success 200 {object} models.ChapterContent "Refreshed chapter content"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /chapters/{chapterID}/assessments/{assessmentID} [delete]
func (h *PublishedHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	content, err := h.service.DeleteAssessment(r.Context(), chi.URLParam(r, "chapterID"), chi.URLParam(r, "assessmentID"))
	if err != nil {
		h.respondPublishedError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, content)
}

// readLessonForm parses a multipart lesson body into the request and its
// attachment files
func (h *PublishedHandler) readLessonForm(w http.ResponseWriter, r *http.Request) (models.LessonRequest, []services.UploadedFile, bool) {
	var req models.LessonRequest

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return req, nil, false
	}

	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.YoutubeLink = r.FormValue("youtubeLink")
	req.OtherLink = r.FormValue("otherLink")

	files, ok := h.readFormFiles(w, r)
	return req, files, ok
}

// readAssessmentForm parses a multipart assessment body into the request and
// its attachment files
func (h *PublishedHandler) readAssessmentForm(w http.ResponseWriter, r *http.Request) (models.AssessmentRequest, []services.UploadedFile, bool) {
	var req models.AssessmentRequest

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return req, nil, false
	}

	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.CategoryID = r.FormValue("categoryId")
	req.CategoryName = r.FormValue("categoryName")
	req.QuarterID = r.FormValue("quarterId")

	if weight := r.FormValue("categoryWeight"); weight != "" {
		n, err := strconv.Atoi(weight)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid category weight")
			return req, nil, false
		}
		req.CategoryWeight = n
	}

	if due := r.FormValue("dueDate"); due != "" {
		instant, err := time.Parse(time.RFC3339, due)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid due date")
			return req, nil, false
		}
		req.DueDate = &models.DueDate{
			Date:    instant.Format("2006-01-02"),
			Time:    instant.Format("15:04"),
			Instant: instant,
		}
	}

	files, ok := h.readFormFiles(w, r)
	return req, files, ok
}

// readFormFiles reads every "files" part of an already parsed multipart body
func (h *PublishedHandler) readFormFiles(w http.ResponseWriter, r *http.Request) ([]services.UploadedFile, bool) {
	if r.MultipartForm == nil {
		return nil, true
	}

	headers := r.MultipartForm.File["files"]
	files := make([]services.UploadedFile, 0, len(headers))
	for _, header := range headers {
		data, ok := h.readFormFile(w, header)
		if !ok {
			return nil, false
		}
		files = append(files, services.UploadedFile{
			Name:         header.Filename,
			DeclaredType: header.Header.Get("Content-Type"),
			Data:         data,
		})
	}
	return files, true
}

func (h *PublishedHandler) readFormFile(w http.ResponseWriter, header *multipart.FileHeader) ([]byte, bool) {
	file, err := header.Open()
	if err != nil {
		h.Logger.Error("failed to open uploaded file", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read file")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Error("failed to read uploaded file", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read file")
		return nil, false
	}
	return data, true
}

func (h *PublishedHandler) respondPublishedError(w http.ResponseWriter, err error) {
	if verr, ok := services.AsValidationError(err); ok {
		h.RespondFieldErrors(w, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrQuarterNotAssociated):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		var apiErr *courseapi.APIError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				h.RespondError(w, apiErr.StatusCode, apiErr.Message)
				return
			}
			h.Logger.Error("course service request failed", zap.Int("status", apiErr.StatusCode), zap.Error(err))
			h.RespondError(w, http.StatusBadGateway, "course service request failed")
			return
		}
		h.Logger.Error("course edit failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
