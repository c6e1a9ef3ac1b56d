package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/walletfolio/backend/src/logger"
	"github.com/username/walletfolio/backend/src/security"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newAuthFixture() (*AuthMiddleware, *security.AuthService) {
	authService := security.NewAuthService("test-secret")
	return NewAuthMiddleware(authService), authService
}

func TestAuthMiddlewarePassesUserIDThrough(t *testing.T) {
	middleware, authService := newAuthFixture()

	token, err := authService.GenerateToken("42")
	require.NoError(t, err)

	var gotUserID int64
	var gotOK bool
	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/wallets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, int64(42), gotUserID)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	middleware, _ := newAuthFixture()
	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/wallets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization header required")
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	middleware, _ := newAuthFixture()
	other := security.NewAuthService("different-secret")
	token, err := other.GenerateToken("42")
	require.NoError(t, err)

	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/wallets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsNonNumericSubject(t *testing.T) {
	middleware, authService := newAuthFixture()
	token, err := authService.GenerateToken("not-a-number")
	require.NoError(t, err)

	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an unusable subject")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/wallets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
