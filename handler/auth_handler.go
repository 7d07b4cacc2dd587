package handler

import (
	"context"
	"errors"
	"net/http"
	"personal-brand-api/common"
	"personal-brand-api/logger"
	"personal-brand-api/model"
	"personal-brand-api/service"

	"github.com/sirupsen/logrus"
)

// IAuthService is the session surface the auth handlers depend on.
type IAuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	AdminLogin(ctx context.Context, email, password string) (*service.AuthResult, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	Me(ctx context.Context, claims *model.AppClaims) (*model.Principal, error)
}

type AuthHandler struct {
	service IAuthService
	cookies CookieConfig
}

func NewAuthHandler(service IAuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

// Signup godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.SignupRequest  true  "Signup payload"
// @Success      201   {object}  model.AuthResponse
// @Failure      400   {object}  common.AppError
// @Failure      409   {object}  common.AppError
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignupRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	logger.Log.WithField("email_fp", logger.Fingerprint(req.Email)).Info("Signup request received")

	result, err := h.service.Signup(r.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	h.cookies.set(w, result.Tokens)
	writeJSON(w, http.StatusCreated, model.AuthResponse{User: result.User})
	return nil
}

// Login godoc
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.LoginRequest  true  "Credentials"
// @Success      200   {object}  model.AuthResponse
// @Failure      401   {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}

	h.cookies.set(w, result.Tokens)
	writeJSON(w, http.StatusOK, model.AuthResponse{User: result.User})
	return nil
}

// AdminLogin godoc
// @Summary      Log in as the site admin
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.LoginRequest  true  "Admin credentials"
// @Success      200   {object}  model.AuthResponse
// @Failure      401   {object}  common.AppError
// @Router       /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	result, err := h.service.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return common.Unauthorized("Only the site admin may access editing mode")
		}
		return mapServiceError(err)
	}

	h.cookies.set(w, result.Tokens)
	writeJSON(w, http.StatusOK, model.AuthResponse{User: result.User})
	return nil
}

// Logout godoc
// @Summary      Revoke the current refresh token and clear cookies
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.MessageResponse
// @Failure      401  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return common.Unauthorized("Authentication required")
	}

	var refreshToken string
	if c, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = c.Value
	}

	if err := h.service.Logout(r.Context(), claims.Subject, refreshToken); err != nil {
		return mapServiceError(err)
	}

	h.cookies.clear(w)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
	return nil
}

// Refresh godoc
// @Summary      Rotate the refresh token cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  model.MessageResponse
// @Failure      401  {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	c, err := r.Cookie(refreshCookieName)
	if err != nil || c.Value == "" {
		return common.Unauthorized("No refresh token")
	}

	tokens, err := h.service.RefreshSession(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			h.cookies.clear(w)
		}
		return mapServiceError(err)
	}

	h.cookies.set(w, tokens)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Tokens refreshed"})
	return nil
}

// ForgotPassword godoc
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  model.MessageResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPasswordRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	message, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: message})
	return nil
}

// ResetPassword godoc
// @Summary      Set a new password with a reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.ResetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  model.MessageResponse
// @Failure      400   {object}  common.AppError
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password reset successfully"})
	return nil
}

// Me godoc
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Principal
// @Failure      401  {object}  common.AppError
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return common.Unauthorized("Authentication required")
	}

	principal, err := h.service.Me(r.Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logger.Log.WithFields(logrus.Fields{
				"user_id":  claims.Subject,
				"provider": claims.Provider,
			}).Warn("Access token for a missing principal")
			return common.Unauthorized("Invalid or expired token")
		}
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, principal)
	return nil
}
