package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userId int64, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestWrapStampsIdentityHeaders(t *testing.T) {
	am := NewAuthMiddleware(testSecret)

	var gotUserId, gotRole string
	handler := am.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserId = r.Header.Get("X-UserId")
		gotRole = r.Header.Get("X-Role")
	}))

	req := httptest.NewRequest(http.MethodGet, "/rides/ready", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 42, "DRIVER"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", gotUserId)
	assert.Equal(t, "DRIVER", gotRole)
}

func TestWrapRejectsMissingToken(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	handler := am.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/rides/ready", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrapRejectsForgedToken(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	handler := am.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": int64(42),
		"role":    "ADMIN",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/rides/ready", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrapEnforcesRoles(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	handler := am.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), "DRIVER")

	req := httptest.NewRequest(http.MethodGet, "/rides/ready", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, "CLIENT"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
