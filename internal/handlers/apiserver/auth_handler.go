package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/models"
	"lyceum/internal/services"
)

// AuthHandler wraps the authentication HTTP endpoints.
type AuthHandler struct {
	AuthService services.AuthService
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

// RegisterRequest is the body for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// LoginRequest is the body for user login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Password, req.Email, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken),
			errors.Is(err, services.ErrEmailTaken):
			writeJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, services.ErrWeakPassword):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			writeJSONError(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, user)
}

// Login handles user login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			writeJSONError(w, "invalid username or password", http.StatusUnauthorized)
		case errors.Is(err, services.ErrUserBanned):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			writeJSONError(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Logout blacklists the current token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	if err := h.AuthService.Logout(r.Context(), claims); err != nil {
		writeJSONError(w, "logout failed", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
