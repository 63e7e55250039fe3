package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

// PasswordResetRepository persists recovery flows. ClaimOTP and ClaimToken are
// conditional updates: when the row was already claimed by a concurrent
// request they report sql.ErrNoRows, so at most one caller wins each secret.
type PasswordResetRepository interface {
	Create(ctx context.Context, userID uuid.UUID, otpHash, otpSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error)
	FindLatestOpenByUser(ctx context.Context, userID uuid.UUID) (*domain.PasswordReset, error)
	ClaimOTP(ctx context.Context, id int64, tokenHash string, tokenExpiresAt time.Time) error
	FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.PasswordReset, error)
	ClaimToken(ctx context.Context, id int64) error
	MarkConsumed(ctx context.Context, id int64) error
	ConsumeByUser(ctx context.Context, userID uuid.UUID) error
}
