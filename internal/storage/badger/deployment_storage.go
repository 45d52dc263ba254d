package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// DeploymentStorage implements the DeploymentStorage interface for Badger
type DeploymentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDeploymentStorage creates a new DeploymentStorage instance
func NewDeploymentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DeploymentStorage {
	return &DeploymentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DeploymentStorage) StoreDeployment(ctx context.Context, deployment *models.Deployment) error {
	if deployment.ID == "" {
		return fmt.Errorf("deployment ID is required")
	}
	if deployment.CreatedAt.IsZero() {
		deployment.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(deployment.ID, deployment); err != nil {
		return fmt.Errorf("failed to store deployment: %w", err)
	}
	return nil
}

func (s *DeploymentStorage) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	var deployment models.Deployment
	if err := s.db.Store().Get(id, &deployment); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("deployment not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	return &deployment, nil
}

func (s *DeploymentStorage) ListDeploymentsByProject(ctx context.Context, projectID string) ([]*models.Deployment, error) {
	var deployments []models.Deployment
	err := s.db.Store().Find(&deployments, badgerhold.Where("ProjectID").Eq(projectID).Index("ProjectID").SortBy("CreatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	result := make([]*models.Deployment, len(deployments))
	for i := range deployments {
		result[i] = &deployments[i]
	}
	return result, nil
}

// UpdateDeploymentStatus moves a deployment to a new status. Terminal
// statuses stamp FinishedAt; a deployed status records the live URL.
func (s *DeploymentStorage) UpdateDeploymentStatus(ctx context.Context, id string, status models.DeploymentStatus, url string) error {
	deployment, err := s.GetDeployment(ctx, id)
	if err != nil {
		return err
	}

	deployment.Status = status
	if url != "" {
		deployment.URL = url
	}
	if status == models.DeploymentStatusDeployed || status == models.DeploymentStatusFailed {
		now := time.Now()
		deployment.FinishedAt = &now
	}

	return s.StoreDeployment(ctx, deployment)
}
