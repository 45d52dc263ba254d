package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectFile is one generated file persisted after a successful pipeline run
type ProjectFile struct {
	ID        string    `json:"id" badgerhold:"key"`
	ProjectID string    `json:"project_id" badgerhold:"index"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProjectFile creates a file record for a project
func NewProjectFile(projectID, path, content string) *ProjectFile {
	return &ProjectFile{
		ID:        "file_" + uuid.New().String(),
		ProjectID: projectID,
		Path:      path,
		Content:   content,
		SizeBytes: len(content),
		CreatedAt: time.Now(),
	}
}
