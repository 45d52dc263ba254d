package models

import "time"

// StepStatus is the fixed linear state machine for a pipeline step:
// pending -> active -> {completed | error}. Steps never regress.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusError     StepStatus = "error"
)

// Terminal returns true if the step can no longer change state
func (s StepStatus) Terminal() bool {
	return s == StepStatusCompleted || s == StepStatusError
}

// ProgressStep represents one stage of the creation pipeline inside a
// session. Weight is assigned when the session is built from the template
// and never mutated; Progress is meaningful only while the step is active.
type ProgressStep struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Weight       float64                `json:"weight"`
	Status       StepStatus             `json:"status"`
	Progress     float64                `json:"progress"`
	StartTime    *time.Time             `json:"start_time"`
	EndTime      *time.Time             `json:"end_time"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Details      map[string]interface{} `json:"details"`
}

// Clone returns a deep copy of the step
func (p *ProgressStep) Clone() *ProgressStep {
	c := *p
	if p.StartTime != nil {
		t := *p.StartTime
		c.StartTime = &t
	}
	if p.EndTime != nil {
		t := *p.EndTime
		c.EndTime = &t
	}
	c.Details = make(map[string]interface{}, len(p.Details))
	for k, v := range p.Details {
		c.Details[k] = v
	}
	return &c
}

// ProjectData is the original creation request payload. Only Name is
// required here; the route layer validates, downstream stages default
// missing fields to empty values.
type ProjectData struct {
	Name      string                 `json:"name"`
	Analysis  map[string]interface{} `json:"analysis,omitempty"`
	TechStack map[string]interface{} `json:"tech_stack,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
}

// CreationSession is one in-flight project creation attempt. Sessions are
// removed from the store when the pipeline ends; there is no persisted
// terminal session state beyond the project entity.
type CreationSession struct {
	ProjectData     ProjectData     `json:"project_data"`
	Steps           []*ProgressStep `json:"steps"`
	OverallProgress float64         `json:"overall_progress"`
	StartTime       time.Time       `json:"start_time"`
	Status          string          `json:"status"`
}

// Snapshot returns a deep copy safe to hand to callers
func (s *CreationSession) Snapshot() *CreationSession {
	c := &CreationSession{
		ProjectData:     s.ProjectData,
		Steps:           make([]*ProgressStep, len(s.Steps)),
		OverallProgress: s.OverallProgress,
		StartTime:       s.StartTime,
		Status:          s.Status,
	}
	for i, step := range s.Steps {
		c.Steps[i] = step.Clone()
	}
	return c
}

// OverallProgress computes the weighted completion fraction for a step set:
// 100 * (sum of completed weights + active weight * progress/100) / total
// weight, clamped to 100. This is the single source of truth for the
// session's overall_progress value.
func OverallProgress(steps []*ProgressStep) float64 {
	var total, completed, active float64
	for _, step := range steps {
		total += step.Weight
		switch step.Status {
		case StepStatusCompleted:
			completed += step.Weight
		case StepStatusActive:
			active += step.Weight * (step.Progress / 100.0)
		}
	}
	if total == 0 {
		return 0
	}
	progress := ((completed + active) / total) * 100.0
	if progress > 100.0 {
		progress = 100.0
	}
	return progress
}

// CreationResult is returned by a successful pipeline run
type CreationResult struct {
	Success        bool   `json:"success"`
	ProjectID      string `json:"project_id"`
	SessionID      string `json:"session_id"`
	FilesGenerated int    `json:"files_generated"`
}
