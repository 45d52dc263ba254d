package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/crypto/bcrypt"
)

// Service manages user accounts and bearer-token authentication
type Service struct {
	userStorage interfaces.UserStorage
	secret      []byte
	tokenExpiry time.Duration
	logger      arbor.ILogger
}

// NewService creates a new authentication service. A JWT secret is required;
// configure it in appforge.toml or APPFORGE_AUTH_JWT_SECRET.
func NewService(userStorage interfaces.UserStorage, config *common.AuthConfig, logger arbor.ILogger) (*Service, error) {
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwt_secret is required")
	}

	expiry := 24 * time.Hour
	if config.TokenExpiry != "" {
		d, err := time.ParseDuration(config.TokenExpiry)
		if err != nil {
			return nil, fmt.Errorf("invalid token_expiry %q: %w", config.TokenExpiry, err)
		}
		expiry = d
	}

	return &Service{
		userStorage: userStorage,
		secret:      []byte(config.JWTSecret),
		tokenExpiry: expiry,
		logger:      logger,
	}, nil
}

// Register creates a new user account with a bcrypt password hash
func (s *Service) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	if _, err := s.userStorage.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %s", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, username, string(hash))
	if err := s.userStorage.StoreUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", email).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a signed bearer token
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userStorage.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		// Same error for unknown email and bad password
		return "", nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	return token, user, nil
}

// VerifyToken validates a bearer token and resolves the user it belongs to
func (s *Service) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimPrefix(token, "Bearer ")

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	user, err := s.userStorage.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("token user not found: %w", err)
	}
	return user, nil
}

func (s *Service) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		Issuer:    "appforge",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
