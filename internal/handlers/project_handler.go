package handlers

import (
	"net/http"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// ProjectHandler serves CRUD operations on project entities. Creation is not
// here: projects are born through the real-time pipeline.
type ProjectHandler struct {
	projects interfaces.ProjectStorage
	files    interfaces.ProjectFileStorage
	auth     *AuthHandler
	logger   arbor.ILogger
}

// NewProjectHandler creates the project handler
func NewProjectHandler(projects interfaces.ProjectStorage, files interfaces.ProjectFileStorage, auth *AuthHandler, logger arbor.ILogger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		files:    files,
		auth:     auth,
		logger:   logger,
	}
}

// List handles GET /api/projects, scoped to the requesting user
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	user := h.auth.RequireUser(w, r)
	if user == nil {
		return
	}

	projects, err := h.projects.ListProjects(r.Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list projects")
		WriteError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"projects": projects,
		"count":    len(projects),
	})
}

// Project handles requests under /api/projects/{id}:
//   - GET    /api/projects/{id}
//   - DELETE /api/projects/{id}
//   - GET    /api/projects/{id}/files
func (h *ProjectHandler) Project(w http.ResponseWriter, r *http.Request) {
	user := h.auth.RequireUser(w, r)
	if user == nil {
		return
	}

	projectID, action := PathSuffix(r, "/api/projects/")
	if projectID == "" {
		WriteError(w, http.StatusBadRequest, "project id is required")
		return
	}

	project, err := h.projects.GetProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	if project.OwnerID != user.ID {
		WriteError(w, http.StatusForbidden, "Not your project")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"project": project,
		})

	case action == "" && r.Method == http.MethodDelete:
		if err := h.files.DeleteFilesByProject(r.Context(), projectID); err != nil {
			h.logger.Warn().Err(err).Str("project_id", projectID).Msg("Failed to delete project files")
		}
		if err := h.projects.DeleteProject(r.Context(), projectID); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to delete project")
			return
		}
		WriteSuccess(w, "Project deleted")

	case action == "files" && r.Method == http.MethodGet:
		files, err := h.files.GetFilesByProject(r.Context(), projectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to load project files")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"files":   files,
			"count":   len(files),
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
