package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectType classifies the kind of application a project describes
type ProjectType string

const (
	ProjectTypeWebApp    ProjectType = "web_app"
	ProjectTypeMobileApp ProjectType = "mobile_app"
	ProjectTypeAPI       ProjectType = "api"
	ProjectTypeDashboard ProjectType = "dashboard"
	ProjectTypeEcommerce ProjectType = "ecommerce"
	ProjectTypeBlog      ProjectType = "blog"
	ProjectTypeCRM       ProjectType = "crm"
	ProjectTypeChat      ProjectType = "chat"
	ProjectTypeCustom    ProjectType = "custom"
)

// IsValid checks if the ProjectType is a known, valid type
func (t ProjectType) IsValid() bool {
	switch t {
	case ProjectTypeWebApp, ProjectTypeMobileApp, ProjectTypeAPI, ProjectTypeDashboard,
		ProjectTypeEcommerce, ProjectTypeBlog, ProjectTypeCRM, ProjectTypeChat, ProjectTypeCustom:
		return true
	}
	return false
}

// ProjectStatus tracks a project through creation, deployment and archival
type ProjectStatus string

const (
	ProjectStatusCreating  ProjectStatus = "creating"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusBuilding  ProjectStatus = "building"
	ProjectStatusDeploying ProjectStatus = "deploying"
	ProjectStatusDeployed  ProjectStatus = "deployed"
	ProjectStatusError     ProjectStatus = "error"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project represents one generated application owned by a user.
// The creator writes it twice: once as "creating" before the pipeline starts,
// and once with a terminal status ("active" or "error") when it ends. Every
// other lifecycle operation belongs to the CRUD layer.
type Project struct {
	ID          string        `json:"id" badgerhold:"key"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Type        ProjectType   `json:"project_type"`
	Status      ProjectStatus `json:"status"`
	OwnerID     string        `json:"owner_id" badgerhold:"index"`

	// Configuration snapshots from the creation request
	Config   map[string]interface{} `json:"config,omitempty"`
	Features []string               `json:"features,omitempty"`

	// Filled in when the pipeline completes
	ProjectPath string `json:"project_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a project entity in the creating state
func NewProject(name, description string, projectType ProjectType, ownerID string) *Project {
	if !projectType.IsValid() {
		projectType = ProjectTypeWebApp
	}
	now := time.Now()
	return &Project{
		ID:        "proj_" + uuid.New().String(),
		Name:      name,
		Description: description,
		Type:      projectType,
		Status:    ProjectStatusCreating,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
