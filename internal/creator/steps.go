package creator

import (
	"github.com/ternarybob/appforge/internal/models"
)

// stepSpec is one entry of the fixed pipeline template. Weights are relative
// costs used for the weighted overall-progress computation.
type stepSpec struct {
	id          string
	name        string
	description string
	weight      float64
}

var stepTemplate = []stepSpec{
	{"analyze", "Analyze Requirements", "Analyzing project requirements and specifications", 1.0},
	{"plan", "Create Project Plan", "Creating detailed project plan and architecture", 1.5},
	{"frontend", "Generate Frontend", "Generating frontend components and UI", 2.0},
	{"backend", "Generate Backend", "Generating backend APIs and services", 2.0},
	{"database", "Setup Database", "Setting up database schema and migrations", 1.5},
	{"integration", "Integrate Services", "Integrating frontend and backend services", 1.5},
	{"testing", "Generate Tests", "Generating test files and test suites", 1.0},
	{"optimization", "Optimize Code", "Optimizing generated code for performance", 1.0},
	{"deployment", "Prepare Deployment", "Preparing deployment configurations", 1.0},
	{"finalize", "Finalize Project", "Finalizing project creation and packaging", 0.5},
}

// buildSteps constructs a fresh step list from the template. Every session
// gets its own copies so sessions never alias step state.
func buildSteps() []*models.ProgressStep {
	steps := make([]*models.ProgressStep, len(stepTemplate))
	for i, spec := range stepTemplate {
		steps[i] = &models.ProgressStep{
			ID:          spec.id,
			Name:        spec.name,
			Description: spec.description,
			Weight:      spec.weight,
			Status:      models.StepStatusPending,
			Progress:    0,
			Details:     map[string]interface{}{},
		}
	}
	return steps
}
