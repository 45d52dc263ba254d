package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/appforge/internal/creator"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/appforge/internal/services/analyzer"
	"github.com/ternarybob/arbor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsConn adapts a gorilla websocket connection to the creator's ClientConn.
// All writes (creator pushes and handler replies) go through Send, which
// serializes them with one mutex per connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// wsRequest is the inbound control message envelope
type wsRequest struct {
	Type        string             `json:"type"`
	Token       string             `json:"token,omitempty"`
	ProjectData *models.ProjectData `json:"project_data,omitempty"`
	Timestamp   interface{}        `json:"timestamp,omitempty"`
}

// WebSocketHandler serves the real-time project creation channel
type WebSocketHandler struct {
	creator  interfaces.ProjectCreator
	auth     interfaces.AuthService
	analyzer *analyzer.Service
	logger   arbor.ILogger
}

// NewWebSocketHandler creates the websocket handler. analyzerService may be
// nil; in that case create_project requests run with their supplied analysis.
func NewWebSocketHandler(projectCreator interfaces.ProjectCreator, authService interfaces.AuthService, analyzerService *analyzer.Service, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		creator:  projectCreator,
		auth:     authService,
		analyzer: analyzerService,
		logger:   logger,
	}
}

// HandleProjectCreation upgrades /ws/project-creation/{session_id} and runs
// the control message loop:
//  1. Connect with a session id
//  2. Send an authenticate message with a bearer token
//  3. Send create_project to start the pipeline
//  4. Receive progress events until the terminal event
func (h *WebSocketHandler) HandleProjectCreation(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/project-creation/"), "/")
	if sessionID == "" {
		WriteError(w, http.StatusBadRequest, "session id is required")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn := &wsConn{conn: ws}
	ctx := r.Context()

	h.creator.Connect(ctx, sessionID, conn)
	h.logger.Info().Str("session_id", sessionID).Msg("Creation channel opened")

	var user *models.User

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			h.creator.Disconnect(sessionID)
			h.logger.Debug().Err(err).Str("session_id", sessionID).Msg("Creation channel closed")
			return
		}

		var msg wsRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(conn, map[string]interface{}{
				"type":    "error",
				"message": "Invalid JSON format",
			})
			continue
		}

		switch msg.Type {
		case "authenticate":
			user = h.handleAuthenticate(ctx, conn, msg)

		case "create_project":
			h.handleCreateProject(ctx, conn, sessionID, user, msg)

		case "cancel_creation":
			h.creator.Cancel(ctx, sessionID)

		case "ping":
			h.reply(conn, map[string]interface{}{
				"type":      "pong",
				"timestamp": msg.Timestamp,
			})

		default:
			h.reply(conn, map[string]interface{}{
				"type":    "error",
				"message": fmt.Sprintf("Unknown message type: %s", msg.Type),
			})
		}
	}
}

// handleAuthenticate verifies the supplied token. Returns the resolved user
// on success and nil on failure; the connection stays open for retry.
func (h *WebSocketHandler) handleAuthenticate(ctx context.Context, conn *wsConn, msg wsRequest) *models.User {
	if msg.Token == "" {
		h.reply(conn, map[string]interface{}{
			"type":    "error",
			"message": "Authentication token required",
		})
		return nil
	}

	user, err := h.auth.VerifyToken(ctx, msg.Token)
	if err != nil {
		h.reply(conn, map[string]interface{}{
			"type":    "auth_error",
			"message": fmt.Sprintf("Authentication failed: %s", err.Error()),
		})
		return nil
	}

	h.reply(conn, map[string]interface{}{
		"type":    "authenticated",
		"user":    user.Public(),
		"message": fmt.Sprintf("Welcome %s! Ready to build your application.", user.Username),
	})
	return user
}

// handleCreateProject starts the pipeline in its own goroutine so cancel and
// ping messages stay responsive while the pipeline runs.
func (h *WebSocketHandler) handleCreateProject(ctx context.Context, conn *wsConn, sessionID string, user *models.User, msg wsRequest) {
	if user == nil {
		h.reply(conn, map[string]interface{}{
			"type":    "error",
			"message": "Please authenticate first",
		})
		return
	}

	var data models.ProjectData
	if msg.ProjectData != nil {
		data = *msg.ProjectData
	}
	data.UserID = user.ID

	go func() {
		runCtx := context.WithoutCancel(ctx)
		h.enrichAnalysis(runCtx, &data)
		_, err := h.creator.CreateProject(runCtx, sessionID, data)
		switch {
		case err == nil, errors.Is(err, creator.ErrSessionCancelled):
			// Terminal event already delivered by the orchestrator

		case errors.Is(err, creator.ErrCreationInProgress), errors.Is(err, creator.ErrTooManySessions):
			h.reply(conn, map[string]interface{}{
				"type":    "error",
				"message": err.Error(),
			})

		default:
			h.reply(conn, map[string]interface{}{
				"type":    "creation_error",
				"message": fmt.Sprintf("Project creation failed: %s", err.Error()),
			})
		}
	}()
}

// enrichAnalysis classifies the request when the client supplied a
// description but no project type. The analysis keys it fills mirror the
// shape clients may send directly.
func (h *WebSocketHandler) enrichAnalysis(ctx context.Context, data *models.ProjectData) {
	if h.analyzer == nil {
		return
	}
	if data.Analysis == nil {
		data.Analysis = make(map[string]interface{})
	}
	if _, ok := data.Analysis["project_type"]; ok {
		return
	}

	description, _ := data.Analysis["description"].(string)
	if description == "" {
		description = data.Name
	}
	if description == "" {
		return
	}

	result := h.analyzer.Analyze(ctx, description)
	data.Analysis["project_type"] = string(result.ProjectType)
	if len(result.Features) > 0 {
		features := make([]interface{}, len(result.Features))
		for i, f := range result.Features {
			features[i] = f
		}
		data.Analysis["features"] = features
	}
	if len(result.TechStack) > 0 && data.TechStack == nil {
		stack := make(map[string]interface{}, len(result.TechStack))
		for k, v := range result.TechStack {
			stack[k] = v
		}
		data.TechStack = stack
	}
}

func (h *WebSocketHandler) reply(conn *wsConn, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal websocket reply")
		return
	}
	if err := conn.Send(data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send websocket reply")
	}
}
