package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/authentiscan/identity-service/internal/api/metrics"
	"github.com/authentiscan/identity-service/internal/api/middleware"
	"github.com/authentiscan/identity-service/internal/core/domain"
	"github.com/authentiscan/identity-service/internal/core/ports"
)

// response is the uniform success envelope: {success, message?, data?}.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// CookieOptions controls the session cookie attributes. MaxAge should match
// the token validity window so the cookie and the token expire together.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

type AuthHandler struct {
	service ports.CredentialService
	cookies CookieOptions
}

func NewAuthHandler(service ports.CredentialService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyAccountRequest struct {
	OTP string `json:"otp"`
}

type sendResetOTPRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Register creates a new account and attaches the session cookie.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  response
// @Failure      400   {object}  response
// @Failure      409   {object}  response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, _, err := h.service.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, response{Success: true, Message: "User registered successfully"})
}

// Login authenticates by email and password and attaches the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  response
// @Failure      401   {object}  response
// @Failure      404   {object}  response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, _, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	h.setSessionCookie(c, token)
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, response{Success: true, Message: "Logged in successfully"})
}

// Logout clears the session cookie. Tokens are stateless, so this only
// discards the client's copy; an already-issued token stays valid until its
// natural expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, response{Success: true, Message: "Logged out successfully"})
}

// SendVerifyOTP issues a 24h email-verification code for the authenticated
// account and queues the mail carrying it.
func (h *AuthHandler) SendVerifyOTP(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	if err := h.service.RequestVerifyOTP(c.Request().Context(), userID); err != nil {
		if errors.Is(err, domain.ErrAlreadyVerified) {
			return c.JSON(http.StatusOK, response{Message: "Account already verified"})
		}
		return err
	}

	metrics.OTPIssuedTotal.WithLabelValues("verify").Inc()
	return c.JSON(http.StatusOK, response{Success: true, Message: "OTP sent to your email"})
}

// VerifyAccount consumes the verification code and marks the account
// verified. Invalid and expired codes report success=false over HTTP 200;
// only a missing code or an unknown account is an HTTP-level failure.
func (h *AuthHandler) VerifyAccount(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var req verifyAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err = h.service.ConfirmVerifyOTP(c.Request().Context(), userID, req.OTP)
	switch {
	case err == nil:
		metrics.OTPConfirmedTotal.WithLabelValues("verify", "ok").Inc()
		return c.JSON(http.StatusOK, response{Success: true, Message: "Email verified successfully"})
	case errors.Is(err, domain.ErrAlreadyVerified):
		return c.JSON(http.StatusOK, response{Message: "Account already verified"})
	case errors.Is(err, domain.ErrInvalidOTP):
		metrics.OTPConfirmedTotal.WithLabelValues("verify", "invalid").Inc()
		return c.JSON(http.StatusOK, response{Message: "Invalid OTP"})
	case errors.Is(err, domain.ErrExpiredOTP):
		metrics.OTPConfirmedTotal.WithLabelValues("verify", "expired").Inc()
		return c.JSON(http.StatusOK, response{Message: "OTP expired"})
	default:
		return err
	}
}

// IsAuth asserts session liveness; the Session middleware has already
// verified the token by the time this runs.
func (h *AuthHandler) IsAuth(c echo.Context) error {
	if _, err := subjectID(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response{Success: true})
}

// SendResetOTP issues a 1h password-reset code for the account owning the
// given email. Failures here use the soft shape: HTTP 200 with
// success=false.
func (h *AuthHandler) SendResetOTP(c echo.Context) error {
	var req sendResetOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := h.service.RequestResetOTP(c.Request().Context(), req.Email)
	switch {
	case err == nil:
		metrics.OTPIssuedTotal.WithLabelValues("reset").Inc()
		return c.JSON(http.StatusOK, response{Success: true, Message: "Password reset OTP sent to your email"})
	case errors.Is(err, domain.ErrMissingFields):
		return c.JSON(http.StatusOK, response{Message: "Email is required"})
	case errors.Is(err, domain.ErrUnknownEmail):
		return c.JSON(http.StatusOK, response{Message: "User with this email does not exist"})
	default:
		return err
	}
}

// ResetPassword consumes the reset code and overwrites the password. All
// failures use the soft shape: HTTP 200 with success=false.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := h.service.ConfirmReset(c.Request().Context(), req.Email, req.OTP, req.NewPassword)
	switch {
	case err == nil:
		metrics.OTPConfirmedTotal.WithLabelValues("reset", "ok").Inc()
		return c.JSON(http.StatusOK, response{Success: true, Message: "Password reset successfully"})
	case errors.Is(err, domain.ErrMissingFields):
		return c.JSON(http.StatusOK, response{Message: "Email, OTP, and new password are required"})
	case errors.Is(err, domain.ErrUnknownEmail):
		return c.JSON(http.StatusOK, response{Message: "User with this email does not exist"})
	case errors.Is(err, domain.ErrInvalidOTP):
		metrics.OTPConfirmedTotal.WithLabelValues("reset", "invalid").Inc()
		return c.JSON(http.StatusOK, response{Message: "Invalid OTP"})
	case errors.Is(err, domain.ErrExpiredOTP):
		metrics.OTPConfirmedTotal.WithLabelValues("reset", "expired").Inc()
		return c.JSON(http.StatusOK, response{Message: "OTP has expired"})
	default:
		return err
	}
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownEmail):
		return "unknown_email"
	case errors.Is(err, domain.ErrInvalidPassword):
		return "invalid_password"
	default:
		return "error"
	}
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
		MaxAge:   int(h.cookies.MaxAge.Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSite,
		MaxAge:   -1,
	})
}
