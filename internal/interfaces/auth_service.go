package interfaces

import (
	"context"

	"github.com/ternarybob/appforge/internal/models"
)

// AuthService manages user registration and bearer-token authentication.
// Tokens are issued on login and verified by both the REST middleware and
// the websocket authenticate message.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}
