package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"stride-sync-server/internal/domain"
	"stride-sync-server/internal/middleware"
	"stride-sync-server/internal/service"
	"stride-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type ConflictHandler struct {
	conflicts *service.ConflictService
	validate  *validator.Validate
}

func NewConflictHandler(conflicts *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{
		conflicts: conflicts,
		validate:  validator.New(),
	}
}

func (h *ConflictHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.conflicts.ActiveConflicts())
}

func (h *ConflictHandler) ListResolved(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.conflicts.ResolvedConflicts())
}

// Report accepts a (local, server, baseline) snapshot triple from the sync
// layer. 201 with the active record (new or re-detected), 204 when nothing
// diverged.
func (h *ConflictHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req domain.ReportConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	record, err := h.conflicts.Report(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	if record == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response.Created(w, record)
}

func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	vars := mux.Vars(r)
	conflictID := vars["id"]

	var req domain.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	record, err := h.conflicts.Resolve(r.Context(), userID, conflictID, req.Strategy, req.Manual)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, record)
}

func (h *ConflictHandler) AutoResolveAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	outcomes := h.conflicts.AutoResolveAll(r.Context(), userID)
	response.Success(w, outcomes)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var strategyErr *service.StrategyFailedError
	var validationErr *service.ValidationError
	var writeBackErr *service.WriteBackError

	switch {
	case errors.Is(err, service.ErrConflictNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(w, err.Error())
	case errors.As(err, &strategyErr):
		response.ErrorWithFields(w, http.StatusConflict, err.Error(), strategyErr.Fields)
	case errors.As(err, &validationErr):
		response.ErrorWithFields(w, http.StatusUnprocessableEntity, err.Error(), validationErr.Missing)
	case errors.As(err, &writeBackErr):
		response.ErrorWithFields(w, http.StatusBadGateway, err.Error(), []string{string(writeBackErr.Target)})
	default:
		response.InternalError(w, err.Error())
	}
}
