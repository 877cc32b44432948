package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(service *MockAuthUseCase) *gin.Engine {
	r := newRouter()
	NewAuthHandler(service).Register(r.Group("/auth"), RequireAuth(stubTokens{}))
	return r
}

func TestAuthHandler_register(t *testing.T) {
	service := &MockAuthUseCase{}
	r := newAuthRouter(service)

	service.On("Register", mock.Anything, "ada@example.com", "secret").
		Return(&domain.User{Email: "ada@example.com"}, nil).Once()

	w := doJSON(r, http.MethodPost, "/auth/register", "", gin.H{"email": "ada@example.com", "password": "secret"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"email":"ada@example.com"}`, w.Body.String())
	service.AssertExpectations(t)
}

func TestAuthHandler_register_Invalid(t *testing.T) {
	service := &MockAuthUseCase{}
	r := newAuthRouter(service)

	w := doJSON(r, http.MethodPost, "/auth/register", "", gin.H{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{
		"email must be a valid email address",
		"password is required",
	}, decodeError(w).Errors)
	service.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_login(t *testing.T) {
	service := &MockAuthUseCase{}
	r := newAuthRouter(service)

	service.On("Login", mock.Anything, "ada@example.com", "secret").Return("signed.jwt.token", nil).Once()
	service.On("Login", mock.Anything, "ada@example.com", "wrong").
		Return("", &domain.AuthError{Reason: "invalid credentials"}).Once()

	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp.Token)

	w = doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decodeError(w).Error)
}

func TestAuthHandler_login_StorageFailure(t *testing.T) {
	service := &MockAuthUseCase{}
	r := newAuthRouter(service)

	service.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return("", domain.NewStorageError("get user", errors.New("connection reset"))).Once()

	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "secret"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(w).Error)
}

func TestAuthHandler_me(t *testing.T) {
	r := newAuthRouter(&MockAuthUseCase{})

	w := doJSON(r, http.MethodGet, "/auth/me", "admin-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"root@example.com","isAdmin":true}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_logout(t *testing.T) {
	r := newAuthRouter(&MockAuthUseCase{})

	w := doJSON(r, http.MethodPost, "/auth/logout", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
