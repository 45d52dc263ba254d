package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// RealtimeHandler serves the HTTP surface of the creation orchestrator:
// session issuance, status snapshots and out-of-band cancellation.
type RealtimeHandler struct {
	creator interfaces.ProjectCreator
	auth    *AuthHandler
	logger  arbor.ILogger
}

// NewRealtimeHandler creates the realtime session handler
func NewRealtimeHandler(projectCreator interfaces.ProjectCreator, auth *AuthHandler, logger arbor.ILogger) *RealtimeHandler {
	return &RealtimeHandler{
		creator: projectCreator,
		auth:    auth,
		logger:  logger,
	}
}

// CreateSession handles POST /api/realtime/sessions. It issues a session id
// for a subsequent websocket connection.
func (h *RealtimeHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if user := h.auth.RequireUser(w, r); user == nil {
		return
	}

	sessionID := common.NewSessionID()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"session_id":    sessionID,
		"websocket_url": fmt.Sprintf("/ws/project-creation/%s", sessionID),
		"message":       "Session created. Connect to WebSocket to start real-time project creation.",
	})
}

// Session handles GET and POST under /api/realtime/sessions/{id}:
//   - GET  /api/realtime/sessions/{id}/status
//   - POST /api/realtime/sessions/{id}/cancel
func (h *RealtimeHandler) Session(w http.ResponseWriter, r *http.Request) {
	if user := h.auth.RequireUser(w, r); user == nil {
		return
	}

	sessionID, action := PathSuffix(r, "/api/realtime/sessions/")
	if sessionID == "" {
		WriteError(w, http.StatusBadRequest, "session id is required")
		return
	}

	switch action {
	case "status":
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		session, ok := h.creator.Status(sessionID)
		if !ok {
			WriteError(w, http.StatusNotFound, "Session not found or expired")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"session_id": sessionID,
			"status":     session,
		})

	case "cancel":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		h.creator.Cancel(r.Context(), sessionID)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"session_id": sessionID,
			"message":    "Creation session cancelled",
		})

	default:
		WriteError(w, http.StatusNotFound, "Unknown session operation")
	}
}
