package interfaces

import (
	"context"

	"github.com/ternarybob/appforge/internal/models"
)

// ProjectStorage - interface for project entity persistence
type ProjectStorage interface {
	StoreProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error
	DeleteProject(ctx context.Context, id string) error
	CountProjects(ctx context.Context) (int, error)
}

// ProjectFileStorage - interface for generated project file persistence
type ProjectFileStorage interface {
	StoreFiles(ctx context.Context, projectID string, files map[string]string) error
	GetFilesByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error)
	DeleteFilesByProject(ctx context.Context, projectID string) error
	CountFilesByProject(ctx context.Context, projectID string) (int, error)
}

// UserStorage - interface for user account persistence
type UserStorage interface {
	StoreUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// DeploymentStorage - interface for deployment record persistence
type DeploymentStorage interface {
	StoreDeployment(ctx context.Context, deployment *models.Deployment) error
	GetDeployment(ctx context.Context, id string) (*models.Deployment, error)
	ListDeploymentsByProject(ctx context.Context, projectID string) ([]*models.Deployment, error)
	UpdateDeploymentStatus(ctx context.Context, id string, status models.DeploymentStatus, url string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	ProjectStorage() ProjectStorage
	ProjectFileStorage() ProjectFileStorage
	UserStorage() UserStorage
	DeploymentStorage() DeploymentStorage

	// RunGC reclaims storage space. Invoked periodically by the scheduler.
	RunGC() error

	Close() error
}
