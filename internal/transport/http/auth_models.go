package http

import (
	"time"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid credentials"`
}

// AuthProfile is the profile block nested inside every user payload.
type AuthProfile struct {
	Username         *string `json:"username,omitempty" example:"cyberplayer"`
	DisplayName      *string `json:"displayName,omitempty" example:"Cyber Player"`
	AvatarURL        *string `json:"avatarUrl,omitempty" example:"https://cdn.example.com/avatar.png"`
	ProfileCompleted bool    `json:"profileCompleted" example:"true"`
}

// AuthUser models the sanitized user representation returned by auth endpoints.
// Credential material never appears here.
type AuthUser struct {
	ID        string      `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string      `json:"email" example:"user@example.com"`
	Profile   AuthProfile `json:"profile"`
	CreatedAt time.Time   `json:"createdAt" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time   `json:"updatedAt" example:"2024-01-02T09:30:00Z"`
}

// AuthTokenResponse is returned by endpoints that issue JWT tokens.
type AuthTokenResponse struct {
	Success   bool     `json:"success" example:"true"`
	Token     string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string   `json:"expiresAt" example:"2024-01-09T09:30:00Z"`
	User      AuthUser `json:"user"`
}

// AuthUserResponse wraps a user object.
type AuthUserResponse struct {
	Success bool     `json:"success" example:"true"`
	User    AuthUser `json:"user"`
}

// MessageResponse carries a success flag and a human-readable message.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Password reset successfully"`
}

// ResetTokenResponse is returned when an OTP is exchanged for a reset token.
type ResetTokenResponse struct {
	Success    bool   `json:"success" example:"true"`
	ResetToken string `json:"resetToken" example:"3f9c2a..."`
	Message    string `json:"message,omitempty" example:"OTP verified successfully"`
}

// ResetTokenStatusResponse reports whether a reset link is still valid.
type ResetTokenStatusResponse struct {
	Success bool   `json:"success" example:"true"`
	Email   string `json:"email" example:"user@example.com"`
}

// RegisterRequest carries email registration fields.
type RegisterRequest struct {
	Email    string  `json:"email" example:"user@example.com"`
	Password string  `json:"password" example:"Secret123!"`
	Username *string `json:"username,omitempty" example:"cyberplayer"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"Secret123!"`
}

// GoogleLoginRequest carries the Google ID token for login.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ChangePasswordRequest captures the payload for password updates.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" example:"OldPass!23"`
	NewPassword     string `json:"newPassword" example:"NewPass!45"`
}

// ForgotPasswordRequest captures the payload for requesting a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

// VerifyResetOTPRequest captures the payload for exchanging an OTP.
type VerifyResetOTPRequest struct {
	Email string `json:"email" example:"user@example.com"`
	OTP   string `json:"otp" example:"123456"`
}

// ResetPasswordRequest captures the payload for spending a reset token.
type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" example:"3f9c2a..."`
	NewPassword string `json:"newPassword" example:"NewPass!45"`
}

func toAuthUser(u *domain.User) AuthUser {
	return AuthUser{
		ID:    u.ID.String(),
		Email: u.Email,
		Profile: AuthProfile{
			Username:         u.Username,
			DisplayName:      u.DisplayName,
			AvatarURL:        u.AvatarURL,
			ProfileCompleted: u.ProfileCompleted,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
