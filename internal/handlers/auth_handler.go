package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

// AuthHandler serves account registration, login and identity lookups
type AuthHandler struct {
	auth   interfaces.AuthService
	logger arbor.ILogger
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(authService interfaces.AuthService, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user.Public(),
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"access_token": token,
		"token_type":   "bearer",
		"user":         user.Public(),
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	user := h.RequireUser(w, r)
	if user == nil {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user.Public(),
	})
}

// RequireUser resolves the bearer token on a request. Writes a 401 and
// returns nil when the token is missing or invalid.
func (h *AuthHandler) RequireUser(w http.ResponseWriter, r *http.Request) *models.User {
	token := BearerToken(r)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}

	user, err := h.auth.VerifyToken(r.Context(), token)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil
	}
	return user
}
