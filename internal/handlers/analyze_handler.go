package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/appforge/internal/services/analyzer"
	"github.com/ternarybob/arbor"
)

// AnalyzeHandler exposes requirement analysis as a standalone endpoint so
// clients can preview the classification before opening a creation session.
type AnalyzeHandler struct {
	analyzer *analyzer.Service
	auth     *AuthHandler
	logger   arbor.ILogger
}

// NewAnalyzeHandler creates the analyze handler
func NewAnalyzeHandler(analyzerService *analyzer.Service, auth *AuthHandler, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzerService,
		auth:     auth,
		logger:   logger,
	}
}

type analyzeRequest struct {
	Description string `json:"description"`
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	user := h.auth.RequireUser(w, r)
	if user == nil {
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		WriteError(w, http.StatusBadRequest, "description is required")
		return
	}

	result := h.analyzer.Analyze(r.Context(), req.Description)

	h.logger.Debug().
		Str("user_id", user.ID).
		Str("project_type", string(result.ProjectType)).
		Msg("Requirement analysis served")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"project_type": result.ProjectType,
		"features":     result.Features,
		"tech_stack":   result.TechStack,
		"complexity":   result.Complexity,
	})
}
