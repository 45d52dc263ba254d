package creator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

var (
	// ErrCreationInProgress is returned when a create request arrives for a
	// session that already has a running pipeline.
	ErrCreationInProgress = errors.New("creation already in progress for session")

	// ErrTooManySessions is returned when the concurrent session cap is hit.
	ErrTooManySessions = errors.New("too many concurrent creation sessions")

	// ErrSessionCancelled is returned when a pipeline stops because its
	// session was cancelled or its client disconnected mid-run. The terminal
	// event (if any) has already been delivered by that point.
	ErrSessionCancelled = errors.New("creation session cancelled")
)

// Creator drives real-time project creation sessions. It owns the session
// store and connection registry; all access goes through its methods under
// a single lock, so sessions are safe even with one pipeline goroutine per
// session id plus concurrent control messages.
type Creator struct {
	mu        sync.RWMutex
	conns     map[string]interfaces.ClientConn
	connMutex map[string]*sync.Mutex
	sessions  map[string]*models.CreationSession
	running   map[string]bool

	stageFuncs map[string]stageFunc

	maxSessions  int
	stageTimeout time.Duration
	stepDelay    time.Duration

	// Throttles intra-stage progress_update events only. Step transitions
	// and terminal events are never throttled. Nil = disabled.
	progressThrottler *rate.Limiter

	projects interfaces.ProjectStorage
	files    interfaces.ProjectFileStorage
	events   interfaces.EventService
	logger   arbor.ILogger
}

// NewCreator creates the orchestrator. eventService may be nil when no
// observers are wired.
func NewCreator(
	projects interfaces.ProjectStorage,
	files interfaces.ProjectFileStorage,
	eventService interfaces.EventService,
	cfg *common.Config,
	logger arbor.ILogger,
) *Creator {
	c := &Creator{
		conns:        make(map[string]interfaces.ClientConn),
		connMutex:    make(map[string]*sync.Mutex),
		sessions:     make(map[string]*models.CreationSession),
		running:      make(map[string]bool),
		maxSessions:  cfg.Pipeline.MaxSessions,
		stageTimeout: cfg.Pipeline.StageTimeoutDuration(),
		stepDelay:    cfg.Pipeline.StepDelayDuration(),
		projects:     projects,
		files:        files,
		events:       eventService,
		logger:       logger,
	}
	if c.maxSessions <= 0 {
		c.maxSessions = 100
	}

	if intervalStr, ok := cfg.WebSocket.ThrottleIntervals["progress_update"]; ok {
		if duration, err := time.ParseDuration(intervalStr); err == nil {
			c.progressThrottler = rate.NewLimiter(rate.Every(duration), 1)
			logger.Debug().
				Str("event_type", "progress_update").
				Str("interval", intervalStr).
				Msg("Throttler initialized for progress_update events")
		} else {
			logger.Warn().
				Err(err).
				Str("interval", intervalStr).
				Msg("Failed to parse progress_update throttle interval - throttler disabled")
		}
	}

	c.stageFuncs = map[string]stageFunc{
		"analyze":      stageAnalyzeRequirements,
		"plan":         stageCreateProjectPlan,
		"frontend":     stageGenerateFrontend,
		"backend":      stageGenerateBackend,
		"database":     stageSetupDatabase,
		"integration":  stageIntegrateServices,
		"testing":      stageGenerateTests,
		"optimization": stageOptimizeCode,
		"deployment":   stagePrepareDeployment,
		"finalize":     stageFinalizeProject,
	}

	return c
}

// Connect registers a client connection for a session id, replacing any
// prior handle, and pushes a connection_established event.
func (c *Creator) Connect(ctx context.Context, sessionID string, conn interfaces.ClientConn) {
	c.mu.Lock()
	if old, ok := c.conns[sessionID]; ok && old != conn {
		old.Close()
	}
	c.conns[sessionID] = conn
	c.connMutex[sessionID] = &sync.Mutex{}
	c.mu.Unlock()

	c.logger.Debug().Str("session_id", sessionID).Msg("Client connected to creation session")

	c.sendEvent(sessionID, map[string]interface{}{
		"type":       "connection_established",
		"session_id": sessionID,
		"message":    "Connected to real-time project creation",
		"timestamp":  timestamp(),
	})
}

// Disconnect removes the connection and session entries if present. Safe to
// call for unknown session ids. An in-flight pipeline is not halted here; it
// notices the missing session at the next stage boundary.
func (c *Creator) Disconnect(sessionID string) {
	c.mu.Lock()
	if conn, ok := c.conns[sessionID]; ok {
		conn.Close()
		delete(c.conns, sessionID)
		delete(c.connMutex, sessionID)
	}
	delete(c.sessions, sessionID)
	c.mu.Unlock()

	c.logger.Debug().Str("session_id", sessionID).Msg("Client disconnected from creation session")
}

// Cancel requests cooperative cancellation of an in-flight session. The
// currently executing stage runs to completion; the pipeline stops before
// the next one. A no-op for unknown session ids.
func (c *Creator) Cancel(ctx context.Context, sessionID string) {
	c.mu.Lock()
	_, exists := c.sessions[sessionID]
	if exists {
		delete(c.sessions, sessionID)
	}
	c.mu.Unlock()

	if !exists {
		return
	}

	c.sendEvent(sessionID, map[string]interface{}{
		"type":      "creation_cancelled",
		"message":   "Project creation was cancelled",
		"timestamp": timestamp(),
	})

	c.logger.Info().Str("session_id", sessionID).Msg("Creation session cancelled")
	c.publish(ctx, interfaces.EventSessionCancelled, sessionID)
}

// Status returns a snapshot of the session, or false if unknown
func (c *Creator) Status(sessionID string) (*models.CreationSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return session.Snapshot(), true
}

// ExpireStale removes sessions older than the ttl and returns the count.
// Each expired session gets a creation_cancelled terminal event while its
// connection is still registered; the owning pipeline, if still alive,
// stops at its next stage boundary.
func (c *Creator) ExpireStale(ctx context.Context, ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	c.mu.Lock()
	var expired []string
	for id, session := range c.sessions {
		if session.StartTime.Before(cutoff) {
			expired = append(expired, id)
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	for _, id := range expired {
		c.sendEvent(id, map[string]interface{}{
			"type":      "creation_cancelled",
			"message":   "Project creation session expired",
			"timestamp": timestamp(),
		})
		c.logger.Warn().Str("session_id", id).Dur("ttl", ttl).Msg("Expired stale creation session")
		c.publish(ctx, interfaces.EventSessionExpired, id)
	}
	return len(expired)
}

// CreateProject runs one full creation attempt to completion. Exactly one
// terminal event is pushed; the session and running entries are removed
// unconditionally on return.
func (c *Creator) CreateProject(ctx context.Context, sessionID string, data models.ProjectData) (*models.CreationResult, error) {
	c.mu.Lock()
	if c.running[sessionID] {
		c.mu.Unlock()
		return nil, ErrCreationInProgress
	}
	if len(c.sessions) >= c.maxSessions {
		c.mu.Unlock()
		return nil, ErrTooManySessions
	}
	session := &models.CreationSession{
		ProjectData: data,
		Steps:       buildSteps(),
		StartTime:   time.Now(),
		Status:      "active",
	}
	c.sessions[sessionID] = session
	c.running[sessionID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.sessions, sessionID)
		delete(c.running, sessionID)
		c.mu.Unlock()
	}()

	sessionLogger := c.logger.WithCorrelationId(sessionID)
	sessionLogger.Info().Str("project_name", data.Name).Msg("Starting project creation")
	c.publish(ctx, interfaces.EventSessionStarted, sessionID)

	c.sendEvent(sessionID, map[string]interface{}{
		"type":      "project_started",
		"message":   "Starting project creation...",
		"timestamp": timestamp(),
	})
	c.sendProgressUpdate(sessionID, true)

	project, err := c.createProjectEntity(ctx, data)
	if err != nil {
		if !c.failSession(ctx, sessionID, nil, err) {
			return nil, ErrSessionCancelled
		}
		return nil, err
	}

	generatedFiles := make(map[string]string)

	for i := range session.Steps {
		if !c.sessionAlive(sessionID) {
			return nil, ErrSessionCancelled
		}

		stepFiles, err := c.executeStep(ctx, sessionID, i, data)
		if err != nil {
			if !c.failSession(ctx, sessionID, project, err) {
				return nil, ErrSessionCancelled
			}
			return nil, err
		}
		for path, content := range stepFiles {
			generatedFiles[path] = content
		}
	}

	if !c.sessionAlive(sessionID) {
		return nil, ErrSessionCancelled
	}

	project.Status = models.ProjectStatusActive
	project.ProjectPath = fmt.Sprintf("generated_projects/project_%s", project.ID)
	if err := c.projects.StoreProject(ctx, project); err != nil {
		if !c.failSession(ctx, sessionID, project, err) {
			return nil, ErrSessionCancelled
		}
		return nil, err
	}

	if err := c.files.StoreFiles(ctx, project.ID, generatedFiles); err != nil {
		// Files are a convenience copy; the project itself is complete
		c.logger.Warn().Err(err).Str("project_id", project.ID).Msg("Failed to persist generated files")
	}

	// Claim the terminal send by removing the session. A cancel that raced
	// in since the last boundary has already delivered its own terminal
	// event, so none is sent here.
	if !c.takeSession(sessionID) {
		return nil, ErrSessionCancelled
	}

	c.sendEvent(sessionID, map[string]interface{}{
		"type": "project_completed",
		"project": map[string]interface{}{
			"id":         project.ID,
			"name":       project.Name,
			"status":     string(project.Status),
			"created_at": project.CreatedAt.Format(time.RFC3339),
		},
		"files_generated": len(generatedFiles),
		"message":         fmt.Sprintf("%s has been successfully created!", project.Name),
		"timestamp":       timestamp(),
	})

	sessionLogger.Info().
		Str("project_id", project.ID).
		Int("files_generated", len(generatedFiles)).
		Msg("Project creation completed")
	c.publish(ctx, interfaces.EventSessionCompleted, sessionID)

	return &models.CreationResult{
		Success:        true,
		ProjectID:      project.ID,
		SessionID:      sessionID,
		FilesGenerated: len(generatedFiles),
	}, nil
}

// createProjectEntity persists the project record in the creating state
func (c *Creator) createProjectEntity(ctx context.Context, data models.ProjectData) (*models.Project, error) {
	description, _ := data.Analysis["description"].(string)
	typeStr, _ := data.Analysis["project_type"].(string)

	project := models.NewProject(data.Name, description, models.ProjectType(typeStr), data.UserID)
	project.Config = map[string]interface{}{"tech_stack": data.TechStack}
	if features, ok := data.Analysis["features"].([]interface{}); ok {
		for _, f := range features {
			if s, ok := f.(string); ok {
				project.Features = append(project.Features, s)
			}
		}
	}

	if err := c.projects.StoreProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project record: %w", err)
	}
	return project, nil
}

// executeStep runs a single pipeline stage with a timeout, bracketing it
// with the active/completed (or error) transitions.
func (c *Creator) executeStep(ctx context.Context, sessionID string, index int, data models.ProjectData) (map[string]string, error) {
	var stepID string
	started := c.updateStep(sessionID, index, func(step *models.ProgressStep) {
		stepID = step.ID
		now := time.Now()
		step.Status = models.StepStatusActive
		step.StartTime = &now
	})
	if !started {
		return nil, nil
	}
	c.sendProgressUpdate(sessionID, true)

	fn, ok := c.stageFuncs[stepID]
	if !ok {
		return nil, fmt.Errorf("no executor for stage %s", stepID)
	}

	stageCtx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	files, err := fn(stageCtx, c, sessionID, index, data)
	cancel()

	if err != nil {
		c.updateStep(sessionID, index, func(step *models.ProgressStep) {
			now := time.Now()
			step.Status = models.StepStatusError
			step.ErrorMessage = err.Error()
			step.EndTime = &now
		})
		c.sendProgressUpdate(sessionID, true)
		return nil, fmt.Errorf("stage %s failed: %w", stepID, err)
	}

	c.updateStep(sessionID, index, func(step *models.ProgressStep) {
		now := time.Now()
		step.Status = models.StepStatusCompleted
		step.Progress = 100.0
		step.EndTime = &now
	})
	c.sendProgressUpdate(sessionID, true)

	return files, nil
}

// failSession marks the project errored and pushes the project_error
// terminal event. The session entry is the delivery claim: when a cancel or
// expiry already removed it, that path owns the terminal event, the failure
// is only logged, and false is returned.
func (c *Creator) failSession(ctx context.Context, sessionID string, project *models.Project, cause error) bool {
	if !c.takeSession(sessionID) {
		c.logger.Warn().Err(cause).Str("session_id", sessionID).Msg("Stage failed after session close - terminal event already delivered")
		return false
	}

	if project != nil {
		if err := c.projects.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusError); err != nil {
			c.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to mark project as errored")
		}
	}

	c.sendEvent(sessionID, map[string]interface{}{
		"type":      "project_error",
		"error":     cause.Error(),
		"message":   fmt.Sprintf("Project creation failed: %s", cause.Error()),
		"timestamp": timestamp(),
	})

	c.logger.Error().Err(cause).Str("session_id", sessionID).Msg("Project creation failed")
	c.publish(ctx, interfaces.EventSessionFailed, sessionID)
	return true
}

// updateStep mutates one step under the lock. Returns false when the session
// no longer exists (cancelled or disconnected); the mutation is skipped.
func (c *Creator) updateStep(sessionID string, index int, mutate func(*models.ProgressStep)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionID]
	if !ok || index >= len(session.Steps) {
		return false
	}
	mutate(session.Steps[index])
	return true
}

func (c *Creator) sessionAlive(sessionID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sessions[sessionID]
	return ok
}

// takeSession removes the session entry if present. The removal is the claim
// to deliver the session's terminal event; false means another path (cancel,
// expiry) already claimed it.
func (c *Creator) takeSession(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[sessionID]; !ok {
		return false
	}
	delete(c.sessions, sessionID)
	return true
}

// sendProgressUpdate recomputes overall_progress from the step set and
// pushes a progress_update event with a full steps snapshot. This is the
// only writer of overall_progress. force bypasses the throttler and is used
// for step transitions; intra-stage milestones pass force=false.
func (c *Creator) sendProgressUpdate(sessionID string, force bool) {
	c.mu.Lock()
	session, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return
	}

	overall := models.OverallProgress(session.Steps)
	session.OverallProgress = overall

	steps := make([]*models.ProgressStep, len(session.Steps))
	for i, step := range session.Steps {
		steps[i] = step.Clone()
	}
	c.mu.Unlock()

	if !force && c.progressThrottler != nil && !c.progressThrottler.Allow() {
		return
	}

	c.sendEvent(sessionID, map[string]interface{}{
		"type":             "progress_update",
		"overall_progress": overall,
		"steps":            steps,
		"timestamp":        timestamp(),
	})

	if c.events != nil {
		c.events.Publish(context.Background(), interfaces.Event{
			Type:    interfaces.EventStepProgress,
			Payload: map[string]interface{}{"session_id": sessionID, "overall_progress": overall},
		})
	}
}

// sendEvent pushes one serialized event to the session's connection. A
// missing connection makes this a silent no-op; a send failure drops the
// connection and session entries (best-effort, at-most-once delivery).
func (c *Creator) sendEvent(sessionID string, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to marshal event")
		return
	}

	c.mu.RLock()
	conn, ok := c.conns[sessionID]
	writeMu := c.connMutex[sessionID]
	c.mu.RUnlock()

	if !ok {
		return
	}

	writeMu.Lock()
	sendErr := conn.Send(data)
	writeMu.Unlock()

	if sendErr != nil {
		c.logger.Warn().Err(sendErr).Str("session_id", sessionID).Msg("Failed to push event, dropping connection")
		c.Disconnect(sessionID)
	}
}

// pace sleeps the configured simulated-work interval, honoring context
// cancellation. A zero delay returns immediately.
func (c *Creator) pace(ctx context.Context) error {
	if c.stepDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Creator) publish(ctx context.Context, eventType interfaces.EventType, sessionID string) {
	if c.events == nil {
		return
	}
	c.events.Publish(ctx, interfaces.Event{
		Type:    eventType,
		Payload: map[string]interface{}{"session_id": sessionID},
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
