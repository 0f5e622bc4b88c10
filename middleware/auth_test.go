package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumenstudio/lumen/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role models.Role) string {
	t.Helper()
	claims := &Claims{
		UID:   "u1",
		Email: "u1@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedChain(required models.Role, redirectTo string) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Auth(testSecret)(RequireRole(required, redirectTo)(ok))
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	protectedChain(models.RoleViewer, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	protectedChain(models.RoleViewer, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsWrongSigningMethod(t *testing.T) {
	claims := &Claims{
		UID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedChain(models.RoleViewer, "").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsSufficientRank(t *testing.T) {
	for _, tc := range []struct {
		role     models.Role
		required models.Role
		want     int
	}{
		{models.RoleAdmin, models.RoleEditor, http.StatusOK},
		{models.RoleEditor, models.RoleEditor, http.StatusOK},
		{models.RoleViewer, models.RoleEditor, http.StatusForbidden},
		{models.RoleViewer, models.RoleViewer, http.StatusOK},
		{models.RoleEditor, models.RoleAdmin, http.StatusForbidden},
		{models.Role("ghost"), models.RoleViewer, http.StatusForbidden},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, tc.role))
		protectedChain(tc.required, "").ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s accessing %s-gated route", tc.role, tc.required)
	}
}

func TestRequireRoleRedirectsWhenConfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleViewer))
	protectedChain(models.RoleAdmin, "/login").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestClaimsReachContext(t *testing.T) {
	var gotUID string
	var gotRole models.Role
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID, _ = UserUIDFromContext(r.Context())
		gotRole, _ = RoleFromContext(r.Context())
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleEditor))
	Auth(testSecret)(inner).ServeHTTP(rec, req)

	assert.Equal(t, "u1", gotUID)
	assert.Equal(t, models.RoleEditor, gotRole)
}
