package apiserver

import (
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
)

// CreditsHandler wraps the credits balance and history endpoints.
type CreditsHandler struct {
	CreditsService services.CreditsService
}

// NewCreditsHandler creates a new CreditsHandler instance.
func NewCreditsHandler(creditsService services.CreditsService) *CreditsHandler {
	return &CreditsHandler{CreditsService: creditsService}
}

// Balance handles GET /me/credits.
func (h *CreditsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	balance, err := h.CreditsService.Balance(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to load balance", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int64{"credits": balance})
}

// History handles GET /me/credits/history.
func (h *CreditsHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, err := h.CreditsService.History(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSONError(w, "failed to load credit history", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, entries)
}
