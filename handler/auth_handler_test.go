package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"personal-brand-api/model"
	"personal-brand-api/service"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cookiesByName(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rr.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestAuthHandler_Signup(t *testing.T) {
	t.Run("success sets both cookies", func(t *testing.T) {
		svc := new(mockAuthService)
		req := model.SignupRequest{Email: "alice@example.com", Name: "Alice", Password: "correct-horse"}
		svc.On("Signup", mock.Anything, req).Return(&service.AuthResult{
			User:   &model.User{ID: "u-1", Email: req.Email, Name: req.Name, Role: model.RoleUser, PasswordHash: "secret-hash"},
			Tokens: &model.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		}, nil).Once()

		body := `{"email":"alice@example.com","name":"Alice","password":"correct-horse"}`
		r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Signup).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret-hash")
		var resp model.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "u-1", resp.User.ID)

		cookies := cookiesByName(rr)
		require.Contains(t, cookies, "accessToken")
		require.Contains(t, cookies, "refreshToken")
		assert.Equal(t, "access", cookies["accessToken"].Value)
		assert.True(t, cookies["accessToken"].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies["accessToken"].SameSite)
		assert.Equal(t, 900, cookies["accessToken"].MaxAge)
		assert.Equal(t, 604800, cookies["refreshToken"].MaxAge)
		svc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(mockAuthService)
		r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"bad","name":"A","password":"x"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Signup).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("Signup", mock.Anything, mock.Anything).Return(nil, service.ErrDuplicateEmail).Once()

		body := `{"email":"alice@example.com","name":"Alice","password":"correct-horse"}`
		r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Signup).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Empty(t, rr.Result().Cookies())
	})
}

func TestAuthHandler_Login(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Login", mock.Anything, "alice@example.com", "wrong-horse").Return(nil, service.ErrInvalidCredentials).Once()

	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"wrong-horse"}`))
	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Login).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"statusCode":401,"message":"Invalid credentials","error":"Unauthorized"}`, rr.Body.String())
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("AdminLogin", mock.Anything, "someone@example.com", "pw").Return(nil, service.ErrInvalidCredentials).Once()

		r := httptest.NewRequest(http.MethodPost, "/auth/admin/login", strings.NewReader(`{"email":"someone@example.com","password":"pw"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).AdminLogin).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("AdminLogin", mock.Anything, "owner@example.com", "pw").Return(nil, service.ErrAdminNotConfigured).Once()

		r := httptest.NewRequest(http.MethodPost, "/auth/admin/login", strings.NewReader(`{"email":"owner@example.com","password":"pw"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).AdminLogin).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		svc := new(mockAuthService)
		r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Refresh).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "RefreshSession", mock.Anything, mock.Anything)
	})

	t.Run("rotates cookies", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("RefreshSession", mock.Anything, "old-refresh").
			Return(&model.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil).Once()

		r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "old-refresh"})
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Refresh).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Tokens refreshed"}`, rr.Body.String())
		assert.Equal(t, "new-refresh", cookiesByName(rr)["refreshToken"].Value)
	})

	t.Run("replayed token clears cookies", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("RefreshSession", mock.Anything, "used").Return(nil, service.ErrInvalidRefreshToken).Once()

		r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "used"})
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Refresh).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, -1, cookiesByName(rr)["refreshToken"].MaxAge)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	signer := newTestSigner()
	svc := new(mockAuthService)
	svc.On("Logout", mock.Anything, "u-1", "the-refresh").Return(nil).Once()

	h := AuthMiddleware(signer)(ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Logout))
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: "accessToken", Value: accessTokenFor(t, signer, "u-1")})
	r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "the-refresh"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rr.Body.String())
	cookies := cookiesByName(rr)
	assert.Equal(t, -1, cookies["accessToken"].MaxAge)
	assert.Equal(t, -1, cookies["refreshToken"].MaxAge)
	svc.AssertExpectations(t)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("ForgotPassword", mock.Anything, "nobody@example.com").Return(service.ForgotPasswordMessage, nil).Once()

	r := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", strings.NewReader(`{"email":"nobody@example.com"}`))
	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).ForgotPassword).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"If the email exists, a password reset link has been sent"}`, rr.Body.String())
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	token := strings.Repeat("ab", 32)

	t.Run("expired token", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("ResetPassword", mock.Anything, token, "brand-new-pass").Return(service.ErrInvalidOrExpiredToken).Once()

		body := `{"token":"` + token + `","newPassword":"brand-new-pass"}`
		r := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(body))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).ResetPassword).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid or expired reset token")
	})

	t.Run("malformed token never reaches the service", func(t *testing.T) {
		svc := new(mockAuthService)
		r := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"token":"xyz","newPassword":"brand-new-pass"}`))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).ResetPassword).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("ResetPassword", mock.Anything, token, "brand-new-pass").Return(nil).Once()

		body := `{"token":"` + token + `","newPassword":"brand-new-pass"}`
		r := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(body))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).ResetPassword).ServeHTTP(rr, r)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Password reset successfully"}`, rr.Body.String())
	})
}

func TestAuthHandler_Me(t *testing.T) {
	signer := newTestSigner()

	t.Run("bearer token", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("Me", mock.Anything, mock.MatchedBy(func(c *model.AppClaims) bool { return c.Subject == "u-1" })).
			Return(&model.Principal{ID: "u-1", Email: "alice@example.com", Name: "Alice", Role: model.RoleUser}, nil).Once()

		h := AuthMiddleware(signer)(ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Me))
		r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+accessTokenFor(t, signer, "u-1"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"id":"u-1","email":"alice@example.com","name":"Alice","role":"user"}`, rr.Body.String())
	})

	t.Run("deleted user", func(t *testing.T) {
		svc := new(mockAuthService)
		svc.On("Me", mock.Anything, mock.Anything).Return(nil, service.ErrUserNotFound).Once()

		h := AuthMiddleware(signer)(ErrorHandlingMiddleware(NewAuthHandler(svc, testCookies).Me))
		r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: accessTokenFor(t, signer, "gone")})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrDuplicateEmail, http.StatusConflict},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{service.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrInvalidOrExpiredToken, http.StatusBadRequest},
		{service.ErrPasswordTooLong, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrUserNotFound, http.StatusNotFound},
		{errors.Join(service.ErrHashing, errors.New("bcrypt")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			appErr := mapServiceError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}
