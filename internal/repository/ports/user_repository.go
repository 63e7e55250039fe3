package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

type UserRepository interface {
	CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte, username, displayName *string) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, email string, displayName *string, avatarURL *string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, username, avatarURL *string, profileCompleted bool) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
}
