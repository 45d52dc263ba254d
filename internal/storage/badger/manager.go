package badger

import (
	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	project     interfaces.ProjectStorage
	projectFile interfaces.ProjectFileStorage
	user        interfaces.UserStorage
	deployment  interfaces.DeploymentStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		project:     NewProjectStorage(db, logger),
		projectFile: NewProjectFileStorage(db, logger),
		user:        NewUserStorage(db, logger),
		deployment:  NewDeploymentStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ProjectStorage returns the Project storage interface
func (m *Manager) ProjectStorage() interfaces.ProjectStorage {
	return m.project
}

// ProjectFileStorage returns the ProjectFile storage interface
func (m *Manager) ProjectFileStorage() interfaces.ProjectFileStorage {
	return m.projectFile
}

// UserStorage returns the User storage interface
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.user
}

// DeploymentStorage returns the Deployment storage interface
func (m *Manager) DeploymentStorage() interfaces.DeploymentStorage {
	return m.deployment
}

// RunGC reclaims value log space
func (m *Manager) RunGC() error {
	return m.db.RunValueLogGC()
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
