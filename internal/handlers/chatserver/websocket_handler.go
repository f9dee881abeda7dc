package chatserver

import (
	"log"
	"net/http"
	"strings"

	"lyceum/internal/auth"
	"lyceum/internal/config"
	"lyceum/internal/websocket"
)

// WebSocketHandler authenticates incoming stream connections and hands them to
// the hub. Browsers cannot set headers on websocket handshakes, so the token
// is also accepted as a query parameter.
type WebSocketHandler struct {
	hub       *websocket.Hub
	authCfg   config.AuthConfig
	wsCfg     config.WebSocketConfig
	blacklist auth.TokenBlacklist
	revoker   auth.SessionRevoker
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(
	hub *websocket.Hub,
	authCfg config.AuthConfig,
	wsCfg config.WebSocketConfig,
	blacklist auth.TokenBlacklist,
	revoker auth.SessionRevoker,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		authCfg:   authCfg,
		wsCfg:     wsCfg,
		blacklist: blacklist,
		revoker:   revoker,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if tokenString == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), tokenString, h.authCfg.JWTSecretKey, h.blacklist)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if h.revoker != nil {
		revoked, err := h.revoker.IsRevoked(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "session check failed", http.StatusInternalServerError)
			return
		}
		if revoked {
			http.Error(w, "session has been revoked", http.StatusForbidden)
			return
		}
	}

	websocket.ServeWs(h.hub, claims.UserID, w, r, h.wsCfg)
}
