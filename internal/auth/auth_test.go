package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key-that-is-long-enough-for-testing"
	testIssuer   = "label-intake"
	testAudience = "label-intake-clients"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(testSecret, testIssuer, testAudience, expiry)
}

// signed builds a token directly so tests can carry claims GenerateToken refuses.
func signed(t *testing.T, method jwt.SigningMethod, key any, userID int64, roles []string) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestJWTManager_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		manager *JWTManager
		wantErr bool
	}{
		{"valid", testManager(time.Hour), false},
		{"empty secret", NewJWTManager("", testIssuer, testAudience, time.Hour), true},
		{"short secret", NewJWTManager("short", testIssuer, testAudience, time.Hour), true},
		{"empty issuer", NewJWTManager(testSecret, "", testAudience, time.Hour), true},
		{"empty audience", NewJWTManager(testSecret, testIssuer, "", time.Hour), true},
		{"negative expiry", testManager(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manager.ValidateConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJWTManager_GenerateToken(t *testing.T) {
	manager := testManager(time.Hour)

	token, err := manager.GenerateToken(7, []string{RoleViewer, RoleOperator})
	require.NoError(t, err)
	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, []string{RoleViewer, RoleOperator}, claims.Roles)
	assert.True(t, claims.HasRole(RoleOperator))
	assert.False(t, claims.HasRole("admin"))
	assert.False(t, claims.IsExpiringSoon(30*time.Minute))

	for name, roles := range map[string][]string{
		"unknown role": {"admin"},
		"no roles":     nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := manager.GenerateToken(1, roles)
			assert.Error(t, err)
		})
	}
	_, err = manager.GenerateToken(0, []string{RoleOperator})
	assert.Error(t, err, "user id must be positive")
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	manager := testManager(time.Hour)
	expired, err := testManager(-time.Minute).GenerateToken(1, []string{RoleOperator})
	require.NoError(t, err)
	otherIssuer, err := NewJWTManager(testSecret, "someone-else", testAudience, time.Hour).GenerateToken(1, []string{RoleOperator})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"no header", "", "MISSING_AUTH_HEADER"},
		{"basic scheme", "Basic dXNlcjpwYXNz", "INVALID_AUTH_FORMAT"},
		{"empty bearer", "Bearer   ", "MISSING_TOKEN"},
		{"two segments", "Bearer header.payload", "INVALID_TOKEN_FORMAT"},
		{"oversized", "Bearer " + strings.Repeat("a", maxTokenBytes) + ".b.c", "INVALID_TOKEN_FORMAT"},
		{"undecodable segments", "Bearer a.b.c", "MALFORMED_TOKEN"},
		{"expired", "Bearer " + expired, "TOKEN_EXPIRED"},
		{"unsigned", "Bearer " + signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, 1, []string{RoleOperator}), "INVALID_SIGNING_METHOD"},
		{"wrong secret", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("another-secret-that-is-long-enough!!"), 1, []string{RoleOperator}), "INVALID_TOKEN"},
		{"wrong issuer", "Bearer " + otherIssuer, "INVALID_TOKEN"},
		{"zero user id", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(testSecret), 0, []string{RoleOperator}), "INVALID_USER_ID"},
		{"no roles", "Bearer " + signed(t, jwt.SigningMethodHS256, []byte(testSecret), 3, nil), "NO_ROLES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/check_entry", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			AuthMiddleware(manager)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Error("handler reached with a rejected token")
			})).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestAuthMiddleware_StoresClaims(t *testing.T) {
	manager := testManager(30 * time.Minute)
	token, err := manager.GenerateToken(5, []string{RoleViewer})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/check_entry", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	var got *Claims
	AuthMiddleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(w, req)

	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.UserID)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Token-Expires-At"), "a token under an hour from expiry carries the warning headers")
	assert.NotEmpty(t, w.Header().Get("X-Token-Expires-In"))
}

func TestMustRole(t *testing.T) {
	manager := testManager(24 * time.Hour)
	operator, err := manager.GenerateToken(1, []string{RoleOperator})
	require.NoError(t, err)
	viewer, err := manager.GenerateToken(2, []string{RoleViewer})
	require.NoError(t, err)

	readOnly := []string{RoleOperator, RoleViewer}
	mutating := []string{RoleOperator}

	tests := []struct {
		name   string
		token  string
		roles  []string
		status int
		code   string
	}{
		{"operator reads", operator, readOnly, http.StatusOK, ""},
		{"viewer reads", viewer, readOnly, http.StatusOK, ""},
		{"operator mutates", operator, mutating, http.StatusOK, ""},
		{"viewer cannot mutate", viewer, mutating, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/change_location", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			handler := AuthMiddleware(manager)(MustRole(tt.roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
			}
			assert.Empty(t, w.Header().Get("X-Token-Expires-At"))
		})
	}

	t.Run("without claims", func(t *testing.T) {
		w := httptest.NewRecorder()
		MustRole(RoleViewer)(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/check_entry", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTHENTICATION_REQUIRED", decodeError(t, w).Code)
	})
}
