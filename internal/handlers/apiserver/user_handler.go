package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
	"lyceum/internal/storage"
)

// UserHandler wraps user profile, search, and leaderboard endpoints.
type UserHandler struct {
	UserService   services.UserService
	MaxUploadSize int64
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(userService services.UserService, maxUploadSize int64) *UserHandler {
	return &UserHandler{UserService: userService, MaxUploadSize: maxUploadSize}
}

// GetProfile handles GET /users/{userId}.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	profile, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// GetMe handles GET /me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	profile, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// UpdateProfileRequest is the body for profile updates.
type UpdateProfileRequest struct {
	FullName *string `json:"fullName,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// UpdateMe handles PATCH /me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.UserService.UpdateProfile(r.Context(), userID, req.FullName, req.Bio)
	if err != nil {
		writeJSONError(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// Search handles GET /users?q=...
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 20)

	users, err := h.UserService.SearchUsers(r.Context(), query, limit)
	if err != nil {
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, users)
}

// Leaderboard handles GET /leaderboard.
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	users, err := h.UserService.Leaderboard(r.Context(), limit)
	if err != nil {
		writeJSONError(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, users)
}

// UploadAvatar handles POST /me/avatar (multipart form with an "avatar" file).
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		writeJSONError(w, "file too large or malformed form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSONError(w, "missing avatar file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.UserService.UploadAvatar(r.Context(), userID, file, header.Size, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeJSONError(w, "failed to upload avatar", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"avatarUrl": url})
}
