package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset carries one recovery flow from OTP issuance through token
// redemption. The flow state is derived from the row, never stored as an enum:
// an unconsumed, unexpired row is waiting for its OTP; a consumed row with an
// unused, unexpired token hash is waiting for the password change; anything
// else is dead.
type PasswordReset struct {
	ID             int64      `db:"id" json:"id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	OTPHash        []byte     `db:"otp_hash" json:"-"`
	OTPSalt        []byte     `db:"otp_salt" json:"-"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expires_at"`
	Consumed       bool       `db:"consumed" json:"consumed"`
	TokenHash      *string    `db:"token_hash" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	TokenUsed      bool       `db:"token_used" json:"token_used"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
