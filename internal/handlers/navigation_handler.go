package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/coursecraft/backend/libs/auth/middleware"
	"github.com/coursecraft/backend/libs/handlers"

	"github.com/coursecraft/backend/internal/clients/courseapi"
	"github.com/coursecraft/backend/internal/models"
)

// NavigationService is the interface that wraps course navigation reads
type NavigationService interface {
	// Method LoadSemesters returns the semesters a course is taught in.
	LoadSemesters(ctx context.Context, courseID string) ([]models.Semester, error)
	// Method LoadQuarters returns the quarters of a semester, narrowed to the ones the course declares.
	LoadQuarters(ctx context.Context, courseID, semesterID string) ([]models.Quarter, error)
	// Method LoadChapters returns the chapters of a quarter within a course.
	LoadChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error)
	// Method LoadChapterContent returns the lessons and assessments of a chapter.
	LoadChapterContent(ctx context.Context, chapterID string) (*models.ChapterContent, error)
}

// NavigationHandler handles course navigation HTTP requests
type NavigationHandler struct {
	handlers.BaseHandler
	service NavigationService
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(svc NavigationService, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{
		service:     svc,
		BaseHandler: handlers.BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all navigation handler routes
// Note: This assumes the router is already scoped to /api/v1 and behind auth
func (h *NavigationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses/{courseID}/navigation", func(r chi.Router) {
		r.Get("/semesters", h.GetSemesters)
		r.Get("/semesters/{semesterID}/quarters", h.GetQuarters)
		r.Get("/quarters/{quarterID}/chapters", h.GetChapters)
	})
	r.Get("/chapters/{chapterID}/content", h.GetChapterContent)
}

// GetSemesters handles GET /courses/{courseID}/navigation/semesters
// @Summary List course semesters
// @Description Get the semesters a committed course is taught in
// @Tags navigation
// @Accept json
// @Produce json
// @Param courseID path string true "Course ID"
// @Success 200 {array} models.Semester "Semesters"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /courses/{courseID}/navigation/semesters [get]
func (h *NavigationHandler) GetSemesters(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	semesters, err := h.service.LoadSemesters(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		h.respondNavigationError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, semesters)
}

// GetQuarters handles GET /courses/{courseID}/navigation/semesters/{semesterID}/quarters
// @Summary List semester quarters
// @Description Get the quarters of a semester, narrowed to the ones the course declares
// @Tags navigation
// @Accept json
// @Produce json
// @Param courseID path string true "Course ID"
// @Param semesterID path string true "Semester ID"
// @Success 200 {array} models.Quarter "Quarters"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /courses/{courseID}/navigation/semesters/{semesterID}/quarters [get]
func (h *NavigationHandler) GetQuarters(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	quarters, err := h.service.LoadQuarters(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "semesterID"))
	if err != nil {
		h.respondNavigationError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, quarters)
}

// GetChapters handles GET /courses/{courseID}/navigation/quarters/{quarterID}/chapters
// @Summary List quarter chapters
// @Description Get the chapters of a quarter within a committed course
// @Tags navigation
// @Accept json
// @Produce json
// @Param courseID path string true "Course ID"
// @Param quarterID path string true "Quarter ID"
// @Success 200 {array} models.ChapterInfo "Chapters"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /courses/{courseID}/navigation/quarters/{quarterID}/chapters [get]
func (h *NavigationHandler) GetChapters(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chapters, err := h.service.LoadChapters(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "quarterID"))
	if err != nil {
		h.respondNavigationError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, chapters)
}

// GetChapterContent handles GET /chapters/{chapterID}/content
// @Summary Get chapter content
// @Description Get the lessons and assessments of a committed chapter
// @Tags navigation
// @Accept json
// @Produce json
// @Param chapterID path string true "Chapter ID"
// @Success 200 {object} models.ChapterContent "Chapter content"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /chapters/{chapterID}/content [get]
func (h *NavigationHandler) GetChapterContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	content, err := h.service.LoadChapterContent(r.Context(), chi.URLParam(r, "chapterID"))
	if err != nil {
		h.respondNavigationError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, content)
}

func (h *NavigationHandler) respondNavigationError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The caller went away; there is nobody left to render for
		h.RespondError(w, http.StatusRequestTimeout, "request cancelled")
		return
	}

	var apiErr *courseapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound {
			h.RespondError(w, http.StatusNotFound, apiErr.Message)
			return
		}
		h.Logger.Error("course service request failed", zap.Int("status", apiErr.StatusCode), zap.Error(err))
		h.RespondError(w, http.StatusBadGateway, "course service request failed")
		return
	}

	h.Logger.Error("navigation load failed", zap.Error(err))
	h.RespondError(w, http.StatusInternalServerError, "internal server error")
}
