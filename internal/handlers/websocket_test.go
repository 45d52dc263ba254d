package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/creator"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

// stubAuthService accepts exactly one token and resolves it to a fixed user.
type stubAuthService struct {
	token string
	user  *models.User
}

func (s *stubAuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	return "", nil, errors.New("not implemented")
}

func (s *stubAuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	if token != s.token {
		return nil, errors.New("invalid token")
	}
	return s.user, nil
}

type memoryProjectStorage struct {
	mu       sync.Mutex
	projects map[string]*models.Project
}

func newMemoryProjectStorage() *memoryProjectStorage {
	return &memoryProjectStorage{projects: make(map[string]*models.Project)}
}

func (m *memoryProjectStorage) StoreProject(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *memoryProjectStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, errors.New("project not found")
	}
	clone := *p
	return &clone, nil
}

func (m *memoryProjectStorage) ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Project
	for _, p := range m.projects {
		if ownerID == "" || p.OwnerID == ownerID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryProjectStorage) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return errors.New("project not found")
	}
	p.Status = status
	return nil
}

func (m *memoryProjectStorage) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func (m *memoryProjectStorage) CountProjects(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.projects), nil
}

type memoryFileStorage struct {
	mu    sync.Mutex
	files map[string]map[string]string
}

func newMemoryFileStorage() *memoryFileStorage {
	return &memoryFileStorage{files: make(map[string]map[string]string)}
}

func (m *memoryFileStorage) StoreFiles(ctx context.Context, projectID string, files map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make(map[string]string, len(files))
	for k, v := range files {
		stored[k] = v
	}
	m.files[projectID] = stored
	return nil
}

func (m *memoryFileStorage) GetFilesByProject(ctx context.Context, projectID string) ([]*models.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProjectFile
	for path, content := range m.files[projectID] {
		out = append(out, &models.ProjectFile{ProjectID: projectID, Path: path, Content: content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *memoryFileStorage) DeleteFilesByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, projectID)
	return nil
}

func (m *memoryFileStorage) CountFilesByProject(ctx context.Context, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files[projectID]), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryProjectStorage) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Pipeline.StepDelay = "0s"
	cfg.Pipeline.StageTimeout = "5s"

	projects := newMemoryProjectStorage()
	files := newMemoryFileStorage()
	logger := arbor.NewLogger()

	projectCreator := creator.NewCreator(projects, files, nil, cfg, logger)
	auth := &stubAuthService{
		token: "good-token",
		user:  &models.User{ID: "user_1", Email: "dev@example.com", Username: "dev"},
	}

	handler := NewWebSocketHandler(projectCreator, auth, nil, logger)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleProjectCreation))
	t.Cleanup(server.Close)

	return server, projects
}

func dialCreation(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/project-creation/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var event map[string]interface{}
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("Event is not valid JSON: %v", err)
	}
	return event
}

func sendMessage(t *testing.T, conn *websocket.Conn, msg map[string]interface{}) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

func eventType(event map[string]interface{}) string {
	s, _ := event["type"].(string)
	return s
}

func TestConnectionEstablishedOnDial(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-conn")

	event := readEvent(t, conn)
	if eventType(event) != "connection_established" {
		t.Fatalf("expected connection_established, got %q", eventType(event))
	}
	if event["session_id"] != "sess-conn" {
		t.Errorf("expected session_id sess-conn, got %v", event["session_id"])
	}
}

func TestAuthenticateFlow(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-auth")
	readEvent(t, conn) // connection_established

	sendMessage(t, conn, map[string]interface{}{"type": "authenticate", "token": "good-token"})
	event := readEvent(t, conn)
	if eventType(event) != "authenticated" {
		t.Fatalf("expected authenticated, got %v", event)
	}
	user, ok := event["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("authenticated event missing user object: %v", event)
	}
	if user["username"] != "dev" {
		t.Errorf("expected username dev, got %v", user["username"])
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-badtoken")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{"type": "authenticate", "token": "wrong"})
	event := readEvent(t, conn)
	if eventType(event) != "auth_error" {
		t.Fatalf("expected auth_error, got %v", event)
	}
}

func TestAuthenticateRequiresToken(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-notoken")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{"type": "authenticate"})
	event := readEvent(t, conn)
	if eventType(event) != "error" {
		t.Fatalf("expected error, got %v", event)
	}
}

func TestCreateProjectRequiresAuthentication(t *testing.T) {
	server, projects := newTestServer(t)
	conn := dialCreation(t, server, "sess-unauth")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{
		"type":         "create_project",
		"project_data": map[string]interface{}{"name": "Sneaky App"},
	})
	event := readEvent(t, conn)
	if eventType(event) != "error" {
		t.Fatalf("expected error, got %v", event)
	}

	count, _ := projects.CountProjects(context.Background())
	if count != 0 {
		t.Errorf("expected no projects created, got %d", count)
	}
}

func TestCreateProjectRunsToCompletion(t *testing.T) {
	server, projects := newTestServer(t)
	conn := dialCreation(t, server, "sess-create")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{"type": "authenticate", "token": "good-token"})
	readEvent(t, conn) // authenticated

	sendMessage(t, conn, map[string]interface{}{
		"type":         "create_project",
		"project_data": map[string]interface{}{"name": "Task Tracker", "description": "A task tracking dashboard"},
	})

	var sawStarted, sawProgress bool
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		event := readEvent(t, conn)
		switch eventType(event) {
		case "project_started":
			sawStarted = true
		case "progress_update":
			sawProgress = true
		case "project_completed":
			if !sawStarted {
				t.Error("project_completed arrived before project_started")
			}
			if !sawProgress {
				t.Error("no progress_update events before completion")
			}
			if fg, _ := event["files_generated"].(float64); fg != 20 {
				t.Errorf("expected 20 files generated, got %v", event["files_generated"])
			}
			project, ok := event["project"].(map[string]interface{})
			if !ok {
				t.Fatalf("project_completed missing project object: %v", event)
			}
			id, _ := project["id"].(string)
			stored, err := projects.GetProject(context.Background(), id)
			if err != nil {
				t.Fatalf("completed project not persisted: %v", err)
			}
			if stored.Status != models.ProjectStatusActive {
				t.Errorf("expected active project, got %s", stored.Status)
			}
			if stored.OwnerID != "user_1" {
				t.Errorf("expected owner user_1, got %s", stored.OwnerID)
			}
			return
		case "project_error", "creation_error", "error":
			t.Fatalf("pipeline failed: %v", event)
		}
	}
	t.Fatal("timed out waiting for project_completed")
}

func TestCancelDuringCreation(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-cancel")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{"type": "authenticate", "token": "good-token"})
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{
		"type":         "create_project",
		"project_data": map[string]interface{}{"name": "Doomed App"},
	})
	sendMessage(t, conn, map[string]interface{}{"type": "cancel_creation"})

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		event := readEvent(t, conn)
		switch eventType(event) {
		case "creation_cancelled", "project_completed":
			// Either the cancel landed mid-run or the pipeline finished
			// before the cancel message was processed. Both are terminal.
			return
		case "project_error", "creation_error":
			t.Fatalf("unexpected failure event: %v", event)
		}
	}
	t.Fatal("timed out waiting for a terminal event")
}

func TestPingPongEchoesTimestamp(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-ping")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{"type": "ping", "timestamp": "2026-01-02T03:04:05Z"})
	event := readEvent(t, conn)
	if eventType(event) != "pong" {
		t.Fatalf("expected pong, got %v", event)
	}
	if event["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Errorf("pong did not echo timestamp: %v", event["timestamp"])
	}
}

func TestMalformedJSONReturnsError(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-garbage")
	readEvent(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	event := readEvent(t, conn)
	if eventType(event) != "error" {
		t.Fatalf("expected error, got %v", event)
	}
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialCreation(t, server, "sess-unknown")
	readEvent(t, conn)

	sendMessage(t, conn, map[string]interface{}{"type": "teleport"})
	event := readEvent(t, conn)
	if eventType(event) != "error" {
		t.Fatalf("expected error, got %v", event)
	}
	msg, _ := event["message"].(string)
	if !strings.Contains(msg, "teleport") {
		t.Errorf("error message should name the unknown type: %q", msg)
	}
}
