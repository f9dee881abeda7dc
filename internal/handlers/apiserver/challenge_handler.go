package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
	"lyceum/internal/storage"
)

// ChallengeHandler wraps the challenge endpoints.
type ChallengeHandler struct {
	ChallengeService services.ChallengeService
}

// NewChallengeHandler creates a new ChallengeHandler instance.
func NewChallengeHandler(challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{ChallengeService: challengeService}
}

// CreateChallengeRequest is the body for creating a challenge.
type CreateChallengeRequest struct {
	OpponentID uint  `json:"opponentId"`
	CourseID   uint  `json:"courseId"`
	CreditPot  int64 `json:"creditPot"`
}

// CreateChallenge handles POST /challenges.
func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	challenge, err := h.ChallengeService.CreateChallenge(r.Context(), userID, req.OpponentID, req.CourseID, req.CreditPot)
	if err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, challenge)
}

// AcceptChallenge handles POST /challenges/{challengeId}/accept.
func (h *ChallengeHandler) AcceptChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	challengeID, err := pathID(r, "challengeId")
	if err != nil {
		writeJSONError(w, "invalid challenge id", http.StatusBadRequest)
		return
	}

	if err := h.ChallengeService.AcceptChallenge(r.Context(), userID, challengeID); err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "accepted"})
}

// DeclineChallenge handles POST /challenges/{challengeId}/decline.
func (h *ChallengeHandler) DeclineChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	challengeID, err := pathID(r, "challengeId")
	if err != nil {
		writeJSONError(w, "invalid challenge id", http.StatusBadRequest)
		return
	}

	if err := h.ChallengeService.DeclineChallenge(r.Context(), userID, challengeID); err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "declined"})
}

// CompleteChallenge handles POST /challenges/{challengeId}/complete.
func (h *ChallengeHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathID(r, "challengeId")
	if err != nil {
		writeJSONError(w, "invalid challenge id", http.StatusBadRequest)
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.ChallengeService.CompleteChallenge(r.Context(), challengeID, userID); err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "completed"})
}

// ListChallenges handles GET /challenges.
func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	challenges, err := h.ChallengeService.ListChallenges(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list challenges", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, challenges)
}

func writeChallengeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSelfRelationship),
		errors.Is(err, services.ErrInvalidCreditPot):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrTargetUserNotFound),
		errors.Is(err, storage.ErrChallengeNotFound),
		errors.Is(err, storage.ErrCourseNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotChallengeOpponent):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrChallengeNotPending):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrCompletionUnsupported):
		writeJSONError(w, err.Error(), http.StatusNotImplemented)
	default:
		writeJSONError(w, "operation failed", http.StatusInternalServerError)
	}
}
