package models

import (
	"time"

	"github.com/google/uuid"
)

// DeploymentPlatform identifies a hosting target
type DeploymentPlatform string

const (
	PlatformVercel  DeploymentPlatform = "vercel"
	PlatformNetlify DeploymentPlatform = "netlify"
	PlatformHeroku  DeploymentPlatform = "heroku"
	PlatformRailway DeploymentPlatform = "railway"
)

// IsValid checks if the platform is supported
func (p DeploymentPlatform) IsValid() bool {
	switch p {
	case PlatformVercel, PlatformNetlify, PlatformHeroku, PlatformRailway:
		return true
	}
	return false
}

// DeploymentStatus tracks a deployment attempt
type DeploymentStatus string

const (
	DeploymentStatusPending  DeploymentStatus = "pending"
	DeploymentStatusBuilding DeploymentStatus = "building"
	DeploymentStatusDeployed DeploymentStatus = "deployed"
	DeploymentStatusFailed   DeploymentStatus = "failed"
)

// Deployment represents one attempt to deploy a project to a platform
type Deployment struct {
	ID         string             `json:"id" badgerhold:"key"`
	ProjectID  string             `json:"project_id" badgerhold:"index"`
	Platform   DeploymentPlatform `json:"platform"`
	Status     DeploymentStatus   `json:"status"`
	URL        string             `json:"url,omitempty"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// NewDeployment creates a pending deployment record
func NewDeployment(projectID string, platform DeploymentPlatform) *Deployment {
	return &Deployment{
		ID:        "dep_" + uuid.New().String(),
		ProjectID: projectID,
		Platform:  platform,
		Status:    DeploymentStatusPending,
		CreatedAt: time.Now(),
	}
}
