package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

// DeploymentHandler serves deployment records for generated projects. The
// deployment itself is simulated; the record lifecycle (pending -> building
// -> deployed) and its event stream are real.
type DeploymentHandler struct {
	deployments interfaces.DeploymentStorage
	projects    interfaces.ProjectStorage
	events      interfaces.EventService
	auth        *AuthHandler
	logger      arbor.ILogger
}

// NewDeploymentHandler creates the deployment handler
func NewDeploymentHandler(
	deployments interfaces.DeploymentStorage,
	projects interfaces.ProjectStorage,
	eventService interfaces.EventService,
	auth *AuthHandler,
	logger arbor.ILogger,
) *DeploymentHandler {
	return &DeploymentHandler{
		deployments: deployments,
		projects:    projects,
		events:      eventService,
		auth:        auth,
		logger:      logger,
	}
}

type deployRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Platform  string `json:"platform" validate:"required"`
}

// Deploy handles POST /api/deployments. It creates a pending record and
// drives the build in the background.
func (h *DeploymentHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	user := h.auth.RequireUser(w, r)
	if user == nil {
		return
	}

	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	platform := models.DeploymentPlatform(req.Platform)
	if !platform.IsValid() {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported platform: %s", req.Platform))
		return
	}

	project, err := h.projects.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	if project.OwnerID != user.ID {
		WriteError(w, http.StatusForbidden, "Not your project")
		return
	}
	if project.Status != models.ProjectStatusActive && project.Status != models.ProjectStatusDeployed {
		WriteError(w, http.StatusConflict, "Project is not ready to deploy")
		return
	}

	deployment := models.NewDeployment(project.ID, platform)
	if err := h.deployments.StoreDeployment(r.Context(), deployment); err != nil {
		h.logger.Error().Err(err).Msg("Failed to store deployment")
		WriteError(w, http.StatusInternalServerError, "Failed to create deployment")
		return
	}

	go h.runDeployment(context.WithoutCancel(r.Context()), deployment, project)

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":    true,
		"deployment": deployment,
	})
}

// Deployment handles GET /api/deployments/{id}
func (h *DeploymentHandler) Deployment(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	user := h.auth.RequireUser(w, r)
	if user == nil {
		return
	}

	deploymentID, _ := PathSuffix(r, "/api/deployments/")
	deployment, err := h.deployments.GetDeployment(r.Context(), deploymentID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Deployment not found")
		return
	}

	project, err := h.projects.GetProject(r.Context(), deployment.ProjectID)
	if err != nil || project.OwnerID != user.ID {
		WriteError(w, http.StatusForbidden, "Not your deployment")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"deployment": deployment,
	})
}

// runDeployment walks the record through building -> deployed and publishes
// a deployment_status event at each transition.
func (h *DeploymentHandler) runDeployment(ctx context.Context, deployment *models.Deployment, project *models.Project) {
	h.transition(ctx, deployment, models.DeploymentStatusBuilding, "")
	if err := h.projects.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusDeploying); err != nil {
		h.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to mark project deploying")
	}

	// Simulated build
	time.Sleep(500 * time.Millisecond)

	url := deploymentURL(deployment.Platform, project.Name)
	h.transition(ctx, deployment, models.DeploymentStatusDeployed, url)
	if err := h.projects.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusDeployed); err != nil {
		h.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to mark project deployed")
	}

	h.logger.Info().
		Str("deployment_id", deployment.ID).
		Str("platform", string(deployment.Platform)).
		Str("url", url).
		Msg("Deployment finished")
}

func (h *DeploymentHandler) transition(ctx context.Context, deployment *models.Deployment, status models.DeploymentStatus, url string) {
	if err := h.deployments.UpdateDeploymentStatus(ctx, deployment.ID, status, url); err != nil {
		h.logger.Error().Err(err).Str("deployment_id", deployment.ID).Msg("Failed to update deployment status")
		return
	}
	if h.events != nil {
		h.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventDeploymentStatus,
			Payload: map[string]interface{}{
				"deployment_id": deployment.ID,
				"project_id":    deployment.ProjectID,
				"status":        string(status),
				"url":           url,
			},
		})
	}
}

func deploymentURL(platform models.DeploymentPlatform, projectName string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(projectName), " ", "-"))
	if slug == "" {
		slug = "app"
	}
	switch platform {
	case models.PlatformVercel:
		return fmt.Sprintf("https://%s.vercel.app", slug)
	case models.PlatformNetlify:
		return fmt.Sprintf("https://%s.netlify.app", slug)
	case models.PlatformHeroku:
		return fmt.Sprintf("https://%s.herokuapp.com", slug)
	case models.PlatformRailway:
		return fmt.Sprintf("https://%s.up.railway.app", slug)
	default:
		return fmt.Sprintf("https://%s.example.com", slug)
	}
}
