package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/models"
	"lyceum/internal/services"
	"lyceum/internal/storage"
)

// ModerationHandler wraps report filing plus the admin moderation surface.
type ModerationHandler struct {
	ModerationService services.ModerationService
}

// NewModerationHandler creates a new ModerationHandler instance.
func NewModerationHandler(moderationService services.ModerationService) *ModerationHandler {
	return &ModerationHandler{ModerationService: moderationService}
}

// FileReportRequest is the body for reporting content or a user.
type FileReportRequest struct {
	TargetType models.ReportTargetType `json:"targetType"`
	TargetID   uint                    `json:"targetId"`
	Reason     string                  `json:"reason"`
}

var validReportTargets = map[models.ReportTargetType]bool{
	models.ReportTargetPost:     true,
	models.ReportTargetComment:  true,
	models.ReportTargetTestbank: true,
	models.ReportTargetUser:     true,
	models.ReportTargetMessage:  true,
}

// FileReport handles POST /reports.
func (h *ModerationHandler) FileReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req FileReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !validReportTargets[req.TargetType] {
		writeJSONError(w, "invalid report target type", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		writeJSONError(w, "report reason is required", http.StatusBadRequest)
		return
	}

	report, err := h.ModerationService.FileReport(r.Context(), userID, req.TargetType, req.TargetID, req.Reason)
	if err != nil {
		writeJSONError(w, "failed to file report", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, report)
}

// ListPendingReports handles GET /admin/reports.
func (h *ModerationHandler) ListPendingReports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	reports, err := h.ModerationService.ListPendingReports(r.Context(), limit, offset)
	if err != nil {
		writeJSONError(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, reports)
}

// ResolveReportRequest is the body for closing a report.
type ResolveReportRequest struct {
	Status models.ReportStatus `json:"status"`
}

// ResolveReport handles POST /admin/reports/{reportId}/resolve.
func (h *ModerationHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	reportID, err := pathID(r, "reportId")
	if err != nil {
		writeJSONError(w, "invalid report id", http.StatusBadRequest)
		return
	}

	var req ResolveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.ModerationService.ResolveReport(r.Context(), reportID, adminID, req.Status); err != nil {
		writeModerationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "report closed"})
}

// BanUser handles POST /admin/users/{userId}/ban.
func (h *ModerationHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.ModerationService.BanUser(r.Context(), userID); err != nil {
		writeModerationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "user banned"})
}

// UnbanUser handles POST /admin/users/{userId}/unban.
func (h *ModerationHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.ModerationService.UnbanUser(r.Context(), userID); err != nil {
		writeModerationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "user unbanned"})
}

// AdjustCreditsRequest is the body for a manual credit adjustment.
type AdjustCreditsRequest struct {
	Delta int64 `json:"delta"`
}

// AdjustCredits handles POST /admin/users/{userId}/credits.
func (h *ModerationHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req AdjustCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.ModerationService.AdjustCredits(r.Context(), userID, req.Delta); err != nil {
		writeModerationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "credits adjusted"})
}

func writeModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrReportNotFound),
		errors.Is(err, storage.ErrUserNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidReportStatus),
		errors.Is(err, services.ErrZeroDelta):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrReportAlreadyResolved),
		errors.Is(err, services.ErrAlreadyBanned),
		errors.Is(err, services.ErrNotBanned):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrCannotModerateAdmin):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInsufficientCredits):
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		writeJSONError(w, "operation failed", http.StatusInternalServerError)
	}
}
