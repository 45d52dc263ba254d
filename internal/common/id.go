package common

import (
	"github.com/google/uuid"
)

// NewProjectID generates a unique project ID with the "proj_" prefix
// Format: proj_<uuid>
func NewProjectID() string {
	return "proj_" + uuid.New().String()
}

// NewSessionID generates a unique creation session ID with the "sess_" prefix
func NewSessionID() string {
	return "sess_" + uuid.New().String()
}

// NewUserID generates a unique user ID with the "user_" prefix
func NewUserID() string {
	return "user_" + uuid.New().String()
}

// NewDeploymentID generates a unique deployment ID with the "dep_" prefix
func NewDeploymentID() string {
	return "dep_" + uuid.New().String()
}

// NewFileID generates a unique project file ID with the "file_" prefix
func NewFileID() string {
	return "file_" + uuid.New().String()
}
