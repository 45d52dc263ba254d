package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// ProjectFileStorage implements the ProjectFileStorage interface for Badger
type ProjectFileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProjectFileStorage creates a new ProjectFileStorage instance
func NewProjectFileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProjectFileStorage {
	return &ProjectFileStorage{
		db:     db,
		logger: logger,
	}
}

// StoreFiles persists a map of path -> content for a project. Any files
// already stored for the project are replaced.
func (s *ProjectFileStorage) StoreFiles(ctx context.Context, projectID string, files map[string]string) error {
	if projectID == "" {
		return fmt.Errorf("project ID is required")
	}

	if err := s.DeleteFilesByProject(ctx, projectID); err != nil {
		return err
	}

	for path, content := range files {
		record := models.NewProjectFile(projectID, path, content)
		if err := s.db.Store().Upsert(record.ID, record); err != nil {
			return fmt.Errorf("failed to store file %s: %w", path, err)
		}
	}

	s.logger.Debug().Str("project_id", projectID).Int("files", len(files)).Msg("Stored project files")
	return nil
}

func (s *ProjectFileStorage) GetFilesByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error) {
	var files []models.ProjectFile
	err := s.db.Store().Find(&files, badgerhold.Where("ProjectID").Eq(projectID).Index("ProjectID").SortBy("Path"))
	if err != nil {
		return nil, fmt.Errorf("failed to get project files: %w", err)
	}

	result := make([]*models.ProjectFile, len(files))
	for i := range files {
		result[i] = &files[i]
	}
	return result, nil
}

func (s *ProjectFileStorage) DeleteFilesByProject(ctx context.Context, projectID string) error {
	err := s.db.Store().DeleteMatching(&models.ProjectFile{}, badgerhold.Where("ProjectID").Eq(projectID).Index("ProjectID"))
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete project files: %w", err)
	}
	return nil
}

func (s *ProjectFileStorage) CountFilesByProject(ctx context.Context, projectID string) (int, error) {
	count, err := s.db.Store().Count(&models.ProjectFile{}, badgerhold.Where("ProjectID").Eq(projectID).Index("ProjectID"))
	if err != nil {
		return 0, fmt.Errorf("failed to count project files: %w", err)
	}
	return int(count), nil
}
