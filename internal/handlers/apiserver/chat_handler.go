package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
)

// ChatHandler wraps the chat and messaging HTTP endpoints.
type ChatHandler struct {
	ChatService services.ChatService
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{ChatService: chatService}
}

// OpenDirectChatRequest is the body for opening a direct chat.
type OpenDirectChatRequest struct {
	UserID uint `json:"userId"`
}

// OpenDirectChat handles POST /chats/direct.
func (h *ChatHandler) OpenDirectChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req OpenDirectChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	chat, err := h.ChatService.GetOrCreateDirectChat(r.Context(), userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfRelationship):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrDirectChatRequiresFriendship):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			writeJSONError(w, "failed to open chat", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, chat)
}

// ListChats handles GET /chats.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	chats, err := h.ChatService.ListChats(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list chats", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, chats)
}

// SendMessageRequest is the body for sending a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage handles POST /chats/{chatId}/messages.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	chatID, err := pathID(r, "chatId")
	if err != nil {
		writeJSONError(w, "invalid chat id", http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	message, err := h.ChatService.SendMessage(r.Context(), chatID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrChatNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotChatParticipant):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			writeJSONError(w, "failed to send message", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, message)
}

// GetMessages handles GET /chats/{chatId}/messages.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	chatID, err := pathID(r, "chatId")
	if err != nil {
		writeJSONError(w, "invalid chat id", http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	messages, err := h.ChatService.GetMessages(r.Context(), chatID, userID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrNotChatParticipant) {
			writeJSONError(w, err.Error(), http.StatusForbidden)
			return
		}
		writeJSONError(w, "failed to load messages", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, messages)
}
