package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

// SessionRepository tracks issued bearer tokens so logout can revoke a JWT
// before its embedded expiry. FindActiveSession reports sql.ErrNoRows for a
// token that was never issued, was deactivated, or has expired.
type SessionRepository interface {
	CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error)
	DeactivateSession(ctx context.Context, token string) error
	FindActiveSession(ctx context.Context, token string) (*domain.Session, error)
}
