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
	"github.com/coursecraft/backend/internal/draft"
	"github.com/coursecraft/backend/internal/services"
)

// SubmitService is the interface that wraps draft submission operations
type SubmitService interface {
	// Method SubmitDraft validates the whole draft and commits it atomically, returning the server course id.
	//
	// While a submission for the draft is running, further calls are rejected.
	// A failed submission leaves the draft unchanged.
	SubmitDraft(ctx context.Context, draftID string, userID int) (string, error)
	// Method InFlight reports whether a submission for the draft is currently running.
	InFlight(draftID string) bool
}

// SubmitHandler handles draft submission HTTP requests
type SubmitHandler struct {
	handlers.BaseHandler
	service SubmitService
}

// NewSubmitHandler creates a new submit handler
func NewSubmitHandler(svc SubmitService, logger *zap.Logger) *SubmitHandler {
	return &SubmitHandler{
		service:     svc,
		BaseHandler: handlers.BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all submit handler routes
// Note: This assumes the router is already scoped to /api/v1 and behind auth
func (h *SubmitHandler) RegisterRoutes(r chi.Router) {
	r.Post("/drafts/{draftID}/submit", h.Submit)
	r.Get("/drafts/{draftID}/submit", h.Status)
}

// Submit handles POST /drafts/{draftID}/submit
// @Summary Submit a draft
// @Description Validate the whole draft and commit it to the course service in one atomic request
// @Tags submit
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Success 201 {object} map[string]string "Server-assigned course id"
// @Failure 403 {object} map[string]string "Draft owned by another user"
// @Failure 404 {object} map[string]string "Draft not found"
// @Failure 409 {object} map[string]string "Submission already in flight"
// @Failure 422 {object} map[string]interface{} "Draft is not complete"
// @Failure 502 {object} map[string]string "Course service unavailable"
// @Router /drafts/{draftID}/submit [post]
func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	draftID := chi.URLParam(r, "draftID")
	courseID, err := h.service.SubmitDraft(r.Context(), draftID, userID)
	if err != nil {
		h.respondSubmitError(w, draftID, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]string{"courseId": courseID})
}

// Status handles GET /drafts/{draftID}/submit
// @Summary Get submission status
// @Description Report whether a submission for the draft is currently in flight
// @Tags submit
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Success 200 {object} map[string]bool "In-flight flag"
// @Router /drafts/{draftID}/submit [get]
func (h *SubmitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.GetUserID(r.Context()); !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	inFlight := h.service.InFlight(chi.URLParam(r, "draftID"))
	h.RespondJSON(w, http.StatusOK, map[string]bool{"inFlight": inFlight})
}

// StatusInternal reports in-flight state to sibling services. Registered
// outside the user-auth tree, behind the shared service API key.
func (h *SubmitHandler) StatusInternal(w http.ResponseWriter, r *http.Request) {
	inFlight := h.service.InFlight(chi.URLParam(r, "draftID"))
	h.RespondJSON(w, http.StatusOK, map[string]bool{"inFlight": inFlight})
}

func (h *SubmitHandler) respondSubmitError(w http.ResponseWriter, draftID string, err error) {
	if verr, ok := services.AsValidationError(err); ok {
		h.RespondFieldErrors(w, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrSubmitInFlight):
		h.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrDraftAccessDenied):
		h.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, draft.ErrDraftNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	default:
		var apiErr *courseapi.APIError
		if errors.As(err, &apiErr) {
			// The server rejected the payload; surface its verdict once
			if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				h.RespondError(w, apiErr.StatusCode, apiErr.Message)
				return
			}
			h.Logger.Error("course submit failed upstream", zap.String("draft_id", draftID), zap.Error(err))
			h.RespondError(w, http.StatusBadGateway, "course service request failed")
			return
		}
		h.Logger.Error("course submit failed", zap.String("draft_id", draftID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
