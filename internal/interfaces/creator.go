package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/appforge/internal/models"
)

// ClientConn is a capability handle into the transport layer, used to push
// serialized events to one connected client. Implementations must be safe
// for use by a single writer; the creator serializes writes per session.
type ClientConn interface {
	Send(data []byte) error
	Close() error
}

// ProjectCreator drives real-time project creation sessions: it owns the
// session store and connection registry, runs the staged pipeline, and
// pushes progress events over the registered connection.
type ProjectCreator interface {
	// Connect registers a client connection for a session id, replacing any
	// prior handle, and pushes a connection_established event.
	Connect(ctx context.Context, sessionID string, conn ClientConn)

	// Disconnect removes the connection and session entries if present.
	// Safe to call for unknown session ids.
	Disconnect(sessionID string)

	// CreateProject runs one full creation attempt to completion. Exactly one
	// terminal event is pushed; the session entry is removed on return.
	CreateProject(ctx context.Context, sessionID string, data models.ProjectData) (*models.CreationResult, error)

	// Cancel requests cooperative cancellation of an in-flight session.
	// A no-op for unknown session ids.
	Cancel(ctx context.Context, sessionID string)

	// Status returns a snapshot of the session, or false if unknown.
	Status(sessionID string) (*models.CreationSession, bool)

	// ExpireStale removes sessions older than the ttl and returns the count.
	ExpireStale(ctx context.Context, ttl time.Duration) int
}
