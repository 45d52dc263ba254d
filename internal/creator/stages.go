package creator

import (
	"context"
	"fmt"

	"github.com/ternarybob/appforge/internal/models"
)

// stageFunc is one pipeline stage executor. It performs the stage's
// (simulated) work, emits incremental progress milestones, and returns the
// stage's generated output files, keyed by path. Executors are structurally
// identical; content generation itself is stubbed.
type stageFunc func(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error)

// milestone advances one step to a fractional progress value, optionally
// records stage-specific details, pushes a (throttleable) progress event and
// paces the simulated work.
func milestone(ctx context.Context, c *Creator, sessionID string, index int, progress float64, details map[string]interface{}) error {
	c.updateStep(sessionID, index, func(step *models.ProgressStep) {
		step.Progress = progress
		if details != nil {
			step.Details = details
		}
	})
	c.sendProgressUpdate(sessionID, false)
	return c.pace(ctx)
}

func stageAnalyzeRequirements(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	for _, progress := range []float64{25, 50, 75, 100} {
		if err := milestone(ctx, c, sessionID, index, progress, nil); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func stageCreateProjectPlan(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	for _, progress := range []float64{20, 40, 60, 80, 100} {
		if err := milestone(ctx, c, sessionID, index, progress, nil); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func stageGenerateFrontend(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	components := []string{"App.js", "HomePage.js", "components/Navbar.js", "components/Footer.js", "services/api.js"}

	files := make(map[string]string, len(components))
	for i, component := range components {
		progress := float64(i+1) / float64(len(components)) * 100
		details := map[string]interface{}{
			"current_file":    component,
			"files_generated": i + 1,
			"total_files":     len(components),
		}
		files["frontend/src/"+component] = fmt.Sprintf("// Generated %s content", component)

		if err := milestone(ctx, c, sessionID, index, progress, details); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func stageGenerateBackend(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	endpoints := []string{"main.py", "models/user.py", "api/auth.py", "api/routes.py", "core/config.py"}

	files := make(map[string]string, len(endpoints))
	for i, endpoint := range endpoints {
		progress := float64(i+1) / float64(len(endpoints)) * 100
		details := map[string]interface{}{
			"current_file":    endpoint,
			"files_generated": i + 1,
			"total_files":     len(endpoints),
		}
		files["backend/"+endpoint] = fmt.Sprintf("# Generated %s content", endpoint)

		if err := milestone(ctx, c, sessionID, index, progress, details); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func stageSetupDatabase(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	files := map[string]string{
		"database/init.sql":                   "-- Database initialization script",
		"database/migrations/001_initial.sql": "-- Initial migration",
		"database/seeds/sample_data.sql":      "-- Sample data",
	}

	for i := 1; i <= 5; i++ {
		if err := milestone(ctx, c, sessionID, index, float64(i)/5*100, nil); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func stageIntegrateServices(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	for _, progress := range []float64{25, 50, 75, 100} {
		if err := milestone(ctx, c, sessionID, index, progress, nil); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func stageGenerateTests(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	files := map[string]string{
		"frontend/src/tests/App.test.js": "// Frontend tests",
		"backend/tests/test_auth.py":     "# Backend tests",
		"backend/tests/test_api.py":      "# API tests",
	}

	for i := 1; i <= 3; i++ {
		if err := milestone(ctx, c, sessionID, index, float64(i)/3*100, nil); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func stageOptimizeCode(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	optimizations := []string{"Code formatting", "Performance optimization", "Security review", "Best practices"}

	for i, opt := range optimizations {
		progress := float64(i+1) / float64(len(optimizations)) * 100
		details := map[string]interface{}{"current_optimization": opt}
		if err := milestone(ctx, c, sessionID, index, progress, details); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func stagePrepareDeployment(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	files := map[string]string{
		"Dockerfile":                   "# Docker configuration",
		"docker-compose.yml":           "# Docker Compose configuration",
		".github/workflows/deploy.yml": "# GitHub Actions deployment",
		"deploy.sh":                    "#!/bin/bash\n# Deployment script",
	}

	for i := 1; i <= 4; i++ {
		if err := milestone(ctx, c, sessionID, index, float64(i)/4*100, nil); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func stageFinalizeProject(ctx context.Context, c *Creator, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	tasks := []string{"Final validation", "Generating README", "Creating documentation", "Project packaging"}

	for i, task := range tasks {
		progress := float64(i+1) / float64(len(tasks)) * 100
		details := map[string]interface{}{"current_task": task}
		if err := milestone(ctx, c, sessionID, index, progress, details); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
