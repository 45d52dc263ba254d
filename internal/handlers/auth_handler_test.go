package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

// fakeAuthService returns canned results for handler tests. Token "valid"
// resolves to the configured user; everything else fails verification.
type fakeAuthService struct {
	user     *models.User
	loginErr error
}

func (f *fakeAuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	return &models.User{ID: "user_new", Email: email, Username: username}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "valid", f.user, nil
}

func (f *fakeAuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	if token != "valid" {
		return nil, errors.New("invalid token")
	}
	return f.user, nil
}

func newAuthHandler(loginErr error) *AuthHandler {
	svc := &fakeAuthService{
		user:     &models.User{ID: "user_1", Email: "dev@example.com", Username: "dev"},
		loginErr: loginErr,
	}
	return NewAuthHandler(svc, arbor.NewLogger())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterCreatesUser(t *testing.T) {
	h := newAuthHandler(nil)

	rec := postJSON(t, h.Register, "/api/auth/register",
		`{"email":"new@example.com","username":"newdev","password":"supersecret"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok, "response should carry a user object")
	assert.Equal(t, "new@example.com", user["email"])
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	h := newAuthHandler(nil)

	tests := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","password":"supersecret"}`},
		{"short password", `{"email":"new@example.com","password":"short"}`},
		{"missing password", `{"email":"new@example.com"}`},
		{"malformed json", `{`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Register, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLoginReturnsBearerToken(t *testing.T) {
	h := newAuthHandler(nil)

	rec := postJSON(t, h.Login, "/api/auth/login",
		`{"email":"dev@example.com","password":"supersecret"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "valid", resp["access_token"])
	assert.Equal(t, "bearer", resp["token_type"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newAuthHandler(errors.New("invalid credentials"))

	rec := postJSON(t, h.Login, "/api/auth/login",
		`{"email":"dev@example.com","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresBearerToken(t *testing.T) {
	h := newAuthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dev", user["username"])
}
