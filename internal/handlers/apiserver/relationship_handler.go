package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
)

// RelationshipHandler wraps the follow and friendship HTTP endpoints.
type RelationshipHandler struct {
	RelationshipService services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler instance.
func NewRelationshipHandler(relationshipService services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{RelationshipService: relationshipService}
}

// Follow handles POST /users/{userId}/follow.
func (h *RelationshipHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	followingID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.RelationshipService.Follow(r.Context(), followerID, followingID); err != nil {
		writeRelationshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "following"})
}

// Unfollow handles DELETE /users/{userId}/follow.
func (h *RelationshipHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	followingID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.RelationshipService.Unfollow(r.Context(), followerID, followingID); err != nil {
		writeRelationshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "unfollowed"})
}

// ListFollowers handles GET /users/{userId}/followers.
func (h *RelationshipHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	followers, err := h.RelationshipService.ListFollowers(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list followers", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, followers)
}

// ListFollowing handles GET /users/{userId}/following.
func (h *RelationshipHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	following, err := h.RelationshipService.ListFollowing(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list following", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, following)
}

// SendFriendRequestBody is the body for sending a friend request.
type SendFriendRequestBody struct {
	ReceiverID uint `json:"receiverId"`
}

// SendFriendRequest handles POST /friends/requests.
func (h *RelationshipHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var body SendFriendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	request, err := h.RelationshipService.SendFriendRequest(r.Context(), senderID, body.ReceiverID)
	if err != nil {
		writeRelationshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, request)
}

// AcceptFriendRequest handles POST /friends/requests/{requestId}/accept.
func (h *RelationshipHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respondToRequest(w, r, h.RelationshipService.AcceptFriendRequest, "accepted")
}

// DeclineFriendRequest handles POST /friends/requests/{requestId}/decline.
func (h *RelationshipHandler) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respondToRequest(w, r, h.RelationshipService.DeclineFriendRequest, "declined")
}

// CancelFriendRequest handles DELETE /friends/requests/{requestId}.
func (h *RelationshipHandler) CancelFriendRequest(w http.ResponseWriter, r *http.Request) {
	h.respondToRequest(w, r, h.RelationshipService.CancelFriendRequest, "cancelled")
}

func (h *RelationshipHandler) respondToRequest(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, userID, requestID uint) error,
	verb string,
) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		writeJSONError(w, "invalid request id", http.StatusBadRequest)
		return
	}

	if err := action(r.Context(), userID, requestID); err != nil {
		writeRelationshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": verb})
}

// ListPendingRequests handles GET /friends/requests.
func (h *RelationshipHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	requests, err := h.RelationshipService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list friend requests", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// ListFriends handles GET /friends.
func (h *RelationshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	friends, err := h.RelationshipService.ListFriends(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list friends", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// Unfriend handles DELETE /friends/{userId}.
func (h *RelationshipHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	friendID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.RelationshipService.Unfriend(r.Context(), userID, friendID); err != nil {
		writeRelationshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "unfriended"})
}

func writeRelationshipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSelfRelationship):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrTargetUserNotFound),
		errors.Is(err, services.ErrFriendRequestNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrAlreadyFollowing),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrFriendRequestExists),
		errors.Is(err, services.ErrRequestNotPending):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNotFollowing),
		errors.Is(err, services.ErrNotFriends):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotReceiverOfRequest),
		errors.Is(err, services.ErrNotSenderOfRequest):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	default:
		writeJSONError(w, "operation failed", http.StatusInternalServerError)
	}
}
