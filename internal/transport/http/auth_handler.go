package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cyberpay-th/cyberpay-backend/internal/service"
	"github.com/cyberpay-th/cyberpay-backend/internal/util"
)

type AuthHandler struct {
	auth *service.AuthService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService) {
	handler := &AuthHandler{auth: auth}

	group := e.Group("/api/auth")
	group.POST("/register", handler.register)
	group.POST("/login", handler.login)
	group.POST("/google", handler.loginWithGoogle)
	group.POST("/forgot-password", handler.forgotPassword)
	group.POST("/verify-reset-otp", handler.verifyResetOTP)
	group.POST("/reset-password", handler.resetPassword)
	group.GET("/verify-reset-token/:token", handler.verifyResetToken)

	protected := e.Group("/api/auth", RequireAuth(auth))
	protected.GET("/me", handler.me)
	protected.POST("/logout", handler.logout)
	protected.POST("/change-password", handler.changePassword)
	protected.PUT("/profile", handler.updateProfile)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	result, err := h.auth.RegisterWithEmail(c.Request().Context(), req.Email, req.Password, req.Username)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusCreated, tokenResponse(result))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	result, err := h.auth.LoginWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse(result))
}

func (h *AuthHandler) loginWithGoogle(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.IDToken) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("idToken is required"))
	}

	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse(result))
}

func (h *AuthHandler) me(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, AuthUserResponse{Success: true, User: toAuthUser(user)})
}

func (h *AuthHandler) logout(c echo.Context) error {
	token := currentToken(c)
	if token == "" {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("unable to log out"))
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	if err := h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Password changed successfully"})
}

func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email is required"))
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "OTP sent to your email"})
}

func (h *AuthHandler) verifyResetOTP(c echo.Context) error {
	var req VerifyResetOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("email and otp are required"))
	}

	resetToken, err := h.auth.VerifyResetOTP(c.Request().Context(), req.Email, strings.TrimSpace(req.OTP))
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, ResetTokenResponse{
		Success:    true,
		ResetToken: resetToken,
		Message:    "OTP verified successfully",
	})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if strings.TrimSpace(req.ResetToken) == "" {
		return c.JSON(http.StatusBadRequest, util.Error("resetToken is required"))
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.ResetToken, req.NewPassword); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Password reset successfully"})
}

func (h *AuthHandler) verifyResetToken(c echo.Context) error {
	email, err := h.auth.VerifyResetToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, ResetTokenStatusResponse{Success: true, Email: email})
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	displayName := formValuePtr(c, "display_name")
	username := formValuePtr(c, "username")

	var avatar *service.ProfileImage
	if file, err := c.FormFile("avatar"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("unable to read avatar upload"))
		}
		defer src.Close()
		avatar = &service.ProfileImage{
			Reader:      src,
			Size:        file.Size,
			FileName:    file.Filename,
			ContentType: file.Header.Get(echo.HeaderContentType),
		}
	}

	if displayName == nil && username == nil && avatar == nil {
		return c.JSON(http.StatusBadRequest, util.Error("nothing to update"))
	}

	updated, err := h.auth.CompleteProfile(c.Request().Context(), user.ID, displayName, username, avatar)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{Success: true, User: toAuthUser(updated)})
}

func (h *AuthHandler) writeAuthError(c echo.Context, err error) error {
	switch {
	// A wrong code and an expired code must be indistinguishable to the
	// client, so both answer with the same body.
	case errors.Is(err, service.ErrResetOTPInvalid),
		errors.Is(err, service.ErrResetOTPExpired):
		return c.JSON(http.StatusBadRequest, util.Error(service.ErrResetOTPInvalid.Error()))
	case errors.Is(err, service.ErrEmailInvalid),
		errors.Is(err, service.ErrPasswordTooWeak),
		errors.Is(err, service.ErrEmailAlreadyUsed),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrAvatarInvalid):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrAvatarTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrGoogleTokenInvalid):
		return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrTooManyResetRequests):
		return c.JSON(http.StatusTooManyRequests, util.Error(err.Error()))
	default:
		c.Logger().Errorf("auth: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
	}
}

func tokenResponse(result *service.AuthResult) AuthTokenResponse {
	return AuthTokenResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		User:      toAuthUser(result.User),
	}
}

func formValuePtr(c echo.Context, name string) *string {
	value := strings.TrimSpace(c.FormValue(name))
	if value == "" {
		return nil
	}
	return &value
}
