package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
	"lyceum/internal/storage"
)

// ClubHandler wraps club and membership endpoints.
type ClubHandler struct {
	ClubService services.ClubService
}

// NewClubHandler creates a new ClubHandler instance.
func NewClubHandler(clubService services.ClubService) *ClubHandler {
	return &ClubHandler{ClubService: clubService}
}

// CreateClubRequest is the body for creating a club.
type CreateClubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateClub handles POST /clubs.
func (h *ClubHandler) CreateClub(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreateClubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	club, err := h.ClubService.CreateClub(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrClubNameTaken) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSONError(w, "failed to create club", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, club)
}

// GetClub handles GET /clubs/{clubId}.
func (h *ClubHandler) GetClub(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubId")
	if err != nil {
		writeJSONError(w, "invalid club id", http.StatusBadRequest)
		return
	}
	club, err := h.ClubService.GetClub(r.Context(), clubID)
	if err != nil {
		writeClubError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, club)
}

// ListClubs handles GET /clubs.
func (h *ClubHandler) ListClubs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	clubs, err := h.ClubService.ListClubs(r.Context(), limit, offset)
	if err != nil {
		writeJSONError(w, "failed to list clubs", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, clubs)
}

// JoinClub handles POST /clubs/{clubId}/join.
func (h *ClubHandler) JoinClub(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	clubID, err := pathID(r, "clubId")
	if err != nil {
		writeJSONError(w, "invalid club id", http.StatusBadRequest)
		return
	}

	if err := h.ClubService.JoinClub(r.Context(), clubID, userID); err != nil {
		writeClubError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "joined"})
}

// LeaveClub handles POST /clubs/{clubId}/leave.
func (h *ClubHandler) LeaveClub(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	clubID, err := pathID(r, "clubId")
	if err != nil {
		writeJSONError(w, "invalid club id", http.StatusBadRequest)
		return
	}

	if err := h.ClubService.LeaveClub(r.Context(), clubID, userID); err != nil {
		writeClubError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "left"})
}

// ListMembers handles GET /clubs/{clubId}/members.
func (h *ClubHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubId")
	if err != nil {
		writeJSONError(w, "invalid club id", http.StatusBadRequest)
		return
	}
	members, err := h.ClubService.ListMembers(r.Context(), clubID)
	if err != nil {
		writeClubError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, members)
}

func writeClubError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrClubNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrAlreadyClubMember):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNotClubMember):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrOwnerCannotLeave):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	default:
		writeJSONError(w, "operation failed", http.StatusInternalServerError)
	}
}
