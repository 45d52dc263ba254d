package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

type memoryUserStorage struct {
	users map[string]*models.User
}

func newMemoryUserStorage() *memoryUserStorage {
	return &memoryUserStorage{users: make(map[string]*models.User)}
}

func (m *memoryUserStorage) StoreUser(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memoryUserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("user not found: %s", id)
}

func (m *memoryUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found for email: %s", email)
}

func (m *memoryUserStorage) DeleteUser(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(newMemoryUserStorage(), &common.AuthConfig{
		JWTSecret:   "test-secret",
		TokenExpiry: "1h",
	}, arbor.NewLogger())
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(newMemoryUserStorage(), &common.AuthConfig{}, arbor.NewLogger())
	if err == nil {
		t.Error("Expected error without jwt secret")
	}
}

func TestRegisterLoginVerify(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Dev@Example.com", "dev", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "dev@example.com" {
		t.Errorf("Expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "password123" {
		t.Error("Password stored in plaintext")
	}

	token, loggedIn, err := svc.Login(ctx, "dev@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Login returned wrong user: %s", loggedIn.ID)
	}
	if token == "" {
		t.Fatal("Login returned empty token")
	}

	verified, err := svc.VerifyToken(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if verified.ID != user.ID {
		t.Errorf("Token resolved wrong user: %s", verified.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dev@example.com", "dev", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "dev@example.com", "wrong-password"); err == nil {
		t.Error("Expected error for wrong password")
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); err == nil {
		t.Error("Expected error for unknown email")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "dev", "password123"); err == nil {
		t.Error("Expected error for invalid email")
	}
	if _, err := svc.Register(ctx, "dev@example.com", "dev", "short"); err == nil {
		t.Error("Expected error for short password")
	}

	if _, err := svc.Register(ctx, "dev@example.com", "dev", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "dev@example.com", "dev2", "password456"); err == nil {
		t.Error("Expected error for duplicate email")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.VerifyToken(context.Background(), "not.a.token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	storage := newMemoryUserStorage()
	logger := arbor.NewLogger()

	svcA, _ := NewService(storage, &common.AuthConfig{JWTSecret: "secret-a"}, logger)
	svcB, _ := NewService(storage, &common.AuthConfig{JWTSecret: "secret-b"}, logger)

	ctx := context.Background()
	if _, err := svcA.Register(ctx, "dev@example.com", "dev", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token, _, err := svcA.Login(ctx, "dev@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := svcB.VerifyToken(ctx, token); err == nil {
		t.Error("Expected error verifying token with different secret")
	}
}
