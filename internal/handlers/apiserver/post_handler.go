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

// PostHandler wraps feed, upvote, and comment endpoints.
type PostHandler struct {
	PostService services.PostService
}

// NewPostHandler creates a new PostHandler instance.
func NewPostHandler(postService services.PostService) *PostHandler {
	return &PostHandler{PostService: postService}
}

// CreatePostRequest is the body for creating a post.
type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	post, err := h.PostService.CreatePost(r.Context(), userID, req.Content, req.ImageURL)
	if err != nil {
		if errors.Is(err, services.ErrEmptyPost) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSONError(w, "failed to create post", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, post)
}

// GetPost handles GET /posts/{postId}.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}
	post, err := h.PostService.GetPost(r.Context(), postID)
	if err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, post)
}

// Feed handles GET /feed.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	feed, err := h.PostService.Feed(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSONError(w, "failed to load feed", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, feed)
}

// DeletePost handles DELETE /posts/{postId}.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	postID, err := pathID(r, "postId")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	role, _ := middleware.GetRoleFromContext(r.Context())
	if err := h.PostService.DeletePost(r.Context(), postID, userID, role == models.RoleAdmin); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Upvote handles POST /posts/{postId}/upvote.
func (h *PostHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	postID, err := pathID(r, "postId")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.PostService.Upvote(r.Context(), postID, userID); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "upvoted"})
}

// RemoveUpvote handles DELETE /posts/{postId}/upvote.
func (h *PostHandler) RemoveUpvote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	postID, err := pathID(r, "postId")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.PostService.RemoveUpvote(r.Context(), postID, userID); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "upvote removed"})
}

// AddCommentRequest is the body for commenting on a post.
type AddCommentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /posts/{postId}/comments.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	postID, err := pathID(r, "postId")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	comment, err := h.PostService.AddComment(r.Context(), postID, userID, req.Content)
	if err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, comment)
}

// ListComments handles GET /posts/{postId}/comments.
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}
	comments, err := h.PostService.ListComments(r.Context(), postID)
	if err != nil {
		writeJSONError(w, "failed to list comments", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, comments)
}

func writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrPostNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrEmptyPost):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotPostOwner):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrAlreadyUpvoted):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrUpvoteNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		writeJSONError(w, "operation failed", http.StatusInternalServerError)
	}
}
