package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/DiegoChMs/Warehouse/pkg/models"
)

const testSecret = "test-secret-key-for-jwt-signing-0000"

func testUser() *models.User {
	return &models.User{ID: 42, Username: "diego"}
}

// TestJWTManager_GenerateAndValidate tests the token round trip
func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	token, err := manager.GenerateToken(testUser(), []string{"USER", "ADMIN"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "diego", claims.Username)
	assert.Equal(t, []string{"USER", "ADMIN"}, claims.Roles)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", claims.UUID.String())
}

// TestJWTManager_EmptySecret tests that token generation refuses an empty key
func TestJWTManager_EmptySecret(t *testing.T) {
	manager := NewJWTManager("", time.Hour)

	_, err := manager.GenerateToken(testUser(), nil)
	require.Error(t, err)
}

// TestJWTManager_WrongKey tests rejection of tokens signed with another key
func TestJWTManager_WrongKey(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)
	other := NewJWTManager("another-secret-key-for-jwt-signing-1", time.Hour)

	token, err := other.GenerateToken(testUser(), nil)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	require.Error(t, err)
}

// TestJWTManager_TamperedToken tests rejection of modified tokens
func TestJWTManager_TamperedToken(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	token, err := manager.GenerateToken(testUser(), nil)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token + "x")
	require.Error(t, err)

	_, err = manager.ValidateToken("not-a-token")
	require.Error(t, err)
}

// TestJWTManager_ExpiredToken tests rejection after the TTL passes
func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager(testSecret, -time.Hour)
	// A non-positive TTL falls back to the default, so build one expired
	// manually through a tiny TTL.
	manager.tokenTTL = -time.Minute

	token, err := manager.GenerateToken(testUser(), nil)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	require.Error(t, err)
}

// TestAuthClaims_HasRole tests role membership checks
func TestAuthClaims_HasRole(t *testing.T) {
	claims := &models.AuthClaims{Roles: []string{"USER", "EMPLOYEE"}}

	assert.True(t, claims.HasRole("USER"))
	assert.True(t, claims.HasRole("ADMIN", "EMPLOYEE"))
	assert.False(t, claims.HasRole("ADMIN"))
	assert.False(t, claims.HasRole())
}

// TestBcryptHasher tests hashing and verification
func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, hasher.Verify(hash, "secret"))
	assert.False(t, hasher.Verify(hash, "wrong"))
	assert.False(t, hasher.Verify("not-a-hash", "secret"))
}

// TestMiddleware_Authenticate tests bearer-token enforcement
func TestMiddleware_Authenticate(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)
	mw := NewMiddleware(manager)

	var gotClaims *models.AuthClaims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No header
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong scheme
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token
	token, err := manager.GenerateToken(testUser(), []string{"USER"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, int64(42), gotClaims.UserID)
	assert.Equal(t, []string{"USER"}, gotClaims.Roles)
}

// TestMiddleware_RequireRoles tests role gating after authentication
func TestMiddleware_RequireRoles(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)
	mw := NewMiddleware(manager)

	handler := mw.RequireRoles("ADMIN", "EMPLOYEE")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No claims in context
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Claims without a matching role
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithClaims(req.Context(), &models.AuthClaims{Username: "u", Roles: []string{"USER"}}))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Claims with one of the required roles
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithClaims(req.Context(), &models.AuthClaims{Username: "u", Roles: []string{"EMPLOYEE"}}))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
