package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/idtoken"

	_ "golang.org/x/image/webp"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
	"github.com/cyberpay-th/cyberpay-backend/internal/repository/ports"
	"github.com/cyberpay-th/cyberpay-backend/internal/util"
)

var (
	ErrEmailInvalid         = errors.New("email address is invalid")
	ErrEmailAlreadyUsed     = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrPasswordTooWeak      = errors.New("password does not meet requirements")
	ErrPasswordMismatch     = errors.New("current password is incorrect")
	ErrUserNotFound         = errors.New("no account with that email")
	ErrResetOTPInvalid      = errors.New("invalid or expired reset code")
	ErrResetOTPExpired      = errors.New("reset code has expired")
	ErrResetTokenInvalid    = errors.New("invalid or expired reset token")
	ErrTooManyResetRequests = errors.New("too many reset requests")
	ErrGoogleTokenInvalid   = errors.New("invalid google token")
	ErrAvatarInvalid        = errors.New("avatar image is not valid")
	ErrAvatarTooLarge       = errors.New("avatar image is too large")
)

// PasswordResetSender delivers a recovery code out of band. Delivery is best
// effort from the flow's point of view; see RequestPasswordReset for how
// failures are handled.
type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email, otp string) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthResult is what every credential-issuing operation returns.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// ProfileImage is an avatar upload as received from the transport layer.
type ProfileImage struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

// AuthConfig groups the tunables the service needs beyond its collaborators.
type AuthConfig struct {
	GoogleAudience  string
	AvatarBucket    string
	ResetTTL        time.Duration
	ResetTokenTTL   time.Duration
	OTPLength       int
	AvatarMaxBytes  int64
	AvatarMaxPixels int
}

// AuthService owns registration, login and the three-step password-recovery
// flow: request (OTP issued) → verify (OTP exchanged for a single-use reset
// token) → reset (token exchanged for a password change). Recovery state lives
// entirely in the password_reset rows; each transition is a conditional update
// so concurrent attempts against the same secret have at most one winner.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	resets   ports.PasswordResetRepository
	storage  ports.ObjectStorage
	mailer   PasswordResetSender
	limiter  ports.OTPRateLimiter
	jwt      *util.JWTManager

	googleAudience  string
	avatarBucket    string
	resetTTL        time.Duration
	tokenTTL        time.Duration
	otpLength       int
	avatarMaxBytes  int64
	avatarMaxPixels int

	httpClient httpDoer
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	resets ports.PasswordResetRepository,
	storage ports.ObjectStorage,
	mailer PasswordResetSender,
	limiter ports.OTPRateLimiter,
	jwtManager *util.JWTManager,
	cfg AuthConfig,
) *AuthService {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 10 * time.Minute
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 10 * time.Minute
	}
	if cfg.OTPLength <= 0 {
		cfg.OTPLength = 6
	}
	if cfg.AvatarMaxBytes <= 0 {
		cfg.AvatarMaxBytes = 2 * 1024 * 1024
	}
	if cfg.AvatarMaxPixels <= 0 {
		cfg.AvatarMaxPixels = 1024
	}
	return &AuthService{
		users:           users,
		sessions:        sessions,
		resets:          resets,
		storage:         storage,
		mailer:          mailer,
		limiter:         limiter,
		jwt:             jwtManager,
		googleAudience:  cfg.GoogleAudience,
		avatarBucket:    cfg.AvatarBucket,
		resetTTL:        cfg.ResetTTL,
		tokenTTL:        cfg.ResetTokenTTL,
		otpLength:       cfg.OTPLength,
		avatarMaxBytes:  cfg.AvatarMaxBytes,
		avatarMaxPixels: cfg.AvatarMaxPixels,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) RegisterWithEmail(ctx context.Context, email, password string, username *string) (*AuthResult, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, ErrEmailInvalid
	}
	// ParseAddress accepts display-name forms; only the bare address is the
	// account identity.
	email = normalizeEmail(addr.Address)
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, fmt.Errorf("derive password: %w", err)
	}

	// The storefront defaults the visible name to the mailbox local part.
	name := strings.TrimSpace(stringOrEmpty(username))
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}

	user, err := s.users.CreateEmailUser(ctx, email, hash, salt, &name, &name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.HasPassword() || !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(ctx, user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, rawIDToken string) (*AuthResult, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, s.googleAudience)
	if err != nil {
		return nil, ErrGoogleTokenInvalid
	}
	email, _ := payload.Claims["email"].(string)
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrGoogleTokenInvalid
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	var displayName *string
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		displayName = &trimmed
	}

	var existingAvatar *string
	if existing, err := s.users.FindByEmail(ctx, email); err == nil {
		existingAvatar = existing.AvatarURL
	}

	user, err := s.users.UpsertGoogleUser(ctx, email, displayName, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert google user: %w", err)
	}

	if s.shouldCacheGooglePicture(existingAvatar, picture) {
		if cached, err := s.cacheGoogleProfileImage(ctx, user.ID, picture); err == nil && cached != nil {
			if updated, err := s.users.UpdateProfile(ctx, user.ID, nil, nil, cached, user.ProfileCompleted); err == nil {
				user = updated
			}
		}
	}

	return s.issueSession(ctx, user)
}

// shouldCacheGooglePicture decides whether the Google profile photo gets
// mirrored into our own storage. Anything the user uploaded themselves (a
// non-Google URL) is left alone.
func (s *AuthService) shouldCacheGooglePicture(existing *string, picture string) bool {
	picture = strings.TrimSpace(picture)
	if picture == "" {
		return false
	}
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return true
	}
	if strings.TrimSpace(*existing) == picture {
		return true
	}
	parsed, err := url.Parse(strings.TrimSpace(*existing))
	if err != nil {
		return true
	}
	return strings.HasSuffix(parsed.Hostname(), "googleusercontent.com")
}

func (s *AuthService) cacheGoogleProfileImage(ctx context.Context, userID uuid.UUID, pictureURL string) (*string, error) {
	if s.storage == nil {
		return nil, errors.New("object storage not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pictureURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch google avatar: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.avatarMaxBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("fetch google avatar: empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	objectName := fmt.Sprintf("profiles/%s/google/%s%s", userID, uuid.NewString(), extensionFor(contentType))
	uploaded, err := s.storage.Upload(ctx, s.avatarBucket, objectName, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &uploaded, nil
}

// Authenticate resolves a bearer token to its user. Both checks must pass:
// the signature/expiry of the JWT and the presence of a still-active session
// row, so logout actually revokes tokens before they expire.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if _, err := s.sessions.FindActiveSession(ctx, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeactivateSession(ctx, token)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := util.ValidatePassword(strings.TrimSpace(newPassword)); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}
	// Accounts created through Google sign-in may have no password yet; they
	// are allowed to set one without presenting a current password.
	if user.HasPassword() && !util.VerifyPassword(currentPassword, user.PasswordSalt, user.PasswordHash) {
		return ErrPasswordMismatch
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return fmt.Errorf("derive password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return err
	}
	// A password change makes any in-flight recovery moot.
	_ = s.resets.ConsumeByUser(ctx, user.ID)
	return nil
}

// RequestPasswordReset starts a recovery flow: any open flow for the user is
// retired, a fresh OTP is hashed and stored with its expiry, and the plaintext
// code goes out through the mailer. The code is stored before delivery is
// attempted; if delivery fails the row is retired again so an undeliverable
// code cannot linger.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if s.limiter != nil && !s.limiter.Allow(email) {
		return ErrTooManyResetRequests
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.resets.ConsumeByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("retire open resets: %w", err)
	}

	otp, err := util.GenerateNumericOTP(s.otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	otpHash, otpSalt, err := util.DerivePassword(otp)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	reset, err := s.resets.Create(ctx, user.ID, otpHash, otpSalt, time.Now().Add(s.resetTTL))
	if err != nil {
		return fmt.Errorf("store reset: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, otp); err != nil {
		_ = s.resets.MarkConsumed(ctx, reset.ID)
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// VerifyResetOTP exchanges a correct, unexpired OTP for a single-use reset
// token. The OTP is retired in the same conditional update that records the
// token hash, so two racing verifications cannot both succeed.
func (s *AuthService) VerifyResetOTP(ctx context.Context, email, otp string) (string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrResetOTPInvalid
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	reset, err := s.resets.FindLatestOpenByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrResetOTPInvalid
		}
		return "", fmt.Errorf("find reset: %w", err)
	}

	if time.Now().After(reset.ExpiresAt) {
		_ = s.resets.MarkConsumed(ctx, reset.ID)
		return "", ErrResetOTPExpired
	}
	if !util.VerifyPassword(otp, reset.OTPSalt, reset.OTPHash) {
		return "", ErrResetOTPInvalid
	}

	plaintext, digest, err := util.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("mint reset token: %w", err)
	}
	if err := s.resets.ClaimOTP(ctx, reset.ID, digest, time.Now().Add(s.tokenTTL)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Another request claimed this OTP first.
			return "", ErrResetOTPInvalid
		}
		return "", fmt.Errorf("claim otp: %w", err)
	}
	return plaintext, nil
}

// ResetPassword spends a reset token. The token is claimed before the
// password changes, so a second submission of the same token fails even if
// the two arrive concurrently.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	reset, err := s.resets.FindActiveByTokenHash(ctx, util.HashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("find reset token: %w", err)
	}
	if err := s.resets.ClaimToken(ctx, reset.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("claim reset token: %w", err)
	}

	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return fmt.Errorf("derive password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	_ = s.resets.ConsumeByUser(ctx, reset.UserID)
	return nil
}

// VerifyResetToken pre-validates a reset link without spending the token,
// returning the email the flow belongs to for display.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrResetTokenInvalid
	}
	reset, err := s.resets.FindActiveByTokenHash(ctx, util.HashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrResetTokenInvalid
		}
		return "", fmt.Errorf("find reset token: %w", err)
	}
	user, err := s.users.FindByID(ctx, reset.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrResetTokenInvalid
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	return user.Email, nil
}

func (s *AuthService) CompleteProfile(ctx context.Context, userID uuid.UUID, displayName, username *string, avatar *ProfileImage) (*domain.User, error) {
	displayName = trimmedOrNil(displayName)
	username = trimmedOrNil(username)

	var avatarURL *string
	if avatar != nil {
		uploaded, err := s.uploadAvatar(ctx, userID, avatar)
		if err != nil {
			return nil, err
		}
		avatarURL = &uploaded
	}

	user, err := s.users.UpdateProfile(ctx, userID, displayName, username, avatarURL, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) uploadAvatar(ctx context.Context, userID uuid.UUID, avatar *ProfileImage) (string, error) {
	if s.storage == nil {
		return "", errors.New("object storage not configured")
	}
	if avatar.Reader == nil || avatar.Size <= 0 {
		return "", ErrAvatarInvalid
	}
	if avatar.Size > s.avatarMaxBytes {
		return "", ErrAvatarTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(avatar.Reader, s.avatarMaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > s.avatarMaxBytes {
		return "", ErrAvatarTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrAvatarInvalid
	}
	if cfg.Width > s.avatarMaxPixels || cfg.Height > s.avatarMaxPixels {
		return "", fmt.Errorf("%w: exceeds %dpx", ErrAvatarInvalid, s.avatarMaxPixels)
	}

	contentType := "image/" + format
	objectName := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), extensionFor(contentType))
	return s.storage.Upload(ctx, s.avatarBucket, objectName, contentType, bytes.NewReader(data), int64(len(data)))
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email, user.Username, user.ProfileCompleted)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
