package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - real-time project creation
	mux.HandleFunc("/ws/project-creation/", s.app.WSHandler.HandleProjectCreation)

	// API routes - Authentication
	mux.HandleFunc("/api/auth/register", s.app.AuthHandler.Register)
	mux.HandleFunc("/api/auth/login", s.app.AuthHandler.Login)
	mux.HandleFunc("/api/auth/me", s.app.AuthHandler.Me)

	// API routes - Requirement analysis
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.Analyze)

	// API routes - Projects
	mux.HandleFunc("/api/projects", s.app.ProjectHandler.List)
	mux.HandleFunc("/api/projects/", s.app.ProjectHandler.Project) // GET/DELETE /{id}, GET /{id}/files

	// API routes - Real-time creation sessions
	mux.HandleFunc("/api/realtime/sessions", s.app.RealtimeHandler.CreateSession)
	mux.HandleFunc("/api/realtime/sessions/", s.app.RealtimeHandler.Session) // GET /{id}/status, POST /{id}/cancel

	// API routes - Deployments
	mux.HandleFunc("/api/deployments", s.app.DeploymentHandler.Deploy)
	mux.HandleFunc("/api/deployments/", s.app.DeploymentHandler.Deployment) // GET /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
