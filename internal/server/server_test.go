package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/DiegoChMs/Warehouse/internal/accounts"
	"github.com/DiegoChMs/Warehouse/internal/catalog"
	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/internal/leasing"
	"github.com/DiegoChMs/Warehouse/internal/warehousing"
	"github.com/DiegoChMs/Warehouse/pkg/auth"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

const testSecret = "test-secret-key-for-jwt-signing-0000"

type testEnv struct {
	router   http.Handler
	db       *database.DB
	accounts *accounts.Service
	jwt      *auth.JWTManager
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	ctx := context.Background()
	for _, name := range []string{roleAdmin, roleEmployee, roleUser} {
		require.NoError(t, db.Roles.Create(ctx, &models.Role{Name: name}))
	}

	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	accts := accounts.New(db, auth.NewBcryptHasher(bcrypt.MinCost))
	srv := New(warehousing.New(db), leasing.New(db), catalog.New(db), accts, jwtManager)

	return &testEnv{
		router:   srv.Router(),
		db:       db,
		accounts: accts,
		jwt:      jwtManager,
	}
}

// tokenFor creates a user with the given roles and returns a bearer token.
func (e *testEnv) tokenFor(t *testing.T, username string, roles []string) string {
	t.Helper()

	user, err := e.accounts.Create(context.Background(), accounts.UserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
		Enabled:  true,
		Roles:    roles,
	})
	require.NoError(t, err)

	token, err := e.jwt.GenerateToken(user, roles)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(target))
}

// TestServer_Health tests the public health endpoint
func TestServer_Health(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}

// TestServer_RegisterAndLogin tests the public sign-up and login flow
func TestServer_RegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/user/register", "", map[string]interface{}{
		"username": "diego",
		"email":    "diego@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": "diego",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token    string   `json:"token"`
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	decodeResponse(t, rec, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "diego", login.Username)
	assert.Equal(t, []string{models.DefaultRole}, login.Roles)

	// The issued token works against a protected route
	rec = env.do(t, http.MethodGet, "/api/user/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.UserView
	decodeResponse(t, rec, &profile)
	assert.Equal(t, "diego", profile.Username)
}

// TestServer_Login_BadCredentials tests the 401 path
func TestServer_Login_BadCredentials(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": "nobody",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad credentials")
}

// TestServer_RoleGating tests that routes enforce their role policies
func TestServer_RoleGating(t *testing.T) {
	env := setupTestServer(t)

	userToken := env.tokenFor(t, "plainuser", []string{roleUser})
	employeeToken := env.tokenFor(t, "employee", []string{roleEmployee})

	warehouse := map[string]interface{}{"code": "WH-01", "price": 500, "available": true}

	// No token
	rec := env.do(t, http.MethodPost, "/api/warehouse", "", warehouse)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// USER cannot create warehouses
	rec = env.do(t, http.MethodPost, "/api/warehouse", userToken, warehouse)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// EMPLOYEE can
	rec = env.do(t, http.MethodPost, "/api/warehouse", employeeToken, warehouse)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Catalog administration is admin only
	rec = env.do(t, http.MethodGet, "/api/service", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// User administration is admin only
	rec = env.do(t, http.MethodGet, "/api/user", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestServer_PublicWarehouseReads tests unauthenticated warehouse browsing
func TestServer_PublicWarehouseReads(t *testing.T) {
	env := setupTestServer(t)

	// Empty catalog reads come back as 204
	rec := env.do(t, http.MethodGet, "/api/warehouse", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	adminToken := env.tokenFor(t, "admin", []string{roleAdmin})
	rec = env.do(t, http.MethodPost, "/api/warehouse", adminToken, map[string]interface{}{
		"code": "WH-NORTH-01", "price": 500, "available": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created models.Warehouse
	decodeResponse(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/api/warehouse", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/warehouse/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var view models.WarehouseView
	decodeResponse(t, rec, &view)
	assert.Equal(t, "WH-NORTH-01", view.Code)
}

// TestServer_LeaseLifecycle tests booking through the REST surface
func TestServer_LeaseLifecycle(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	adminToken := env.tokenFor(t, "admin", []string{roleAdmin})

	rec := env.do(t, http.MethodPost, "/api/service", adminToken, map[string]interface{}{
		"name": "Security", "price": 50, "enabled": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/warehouse", adminToken, map[string]interface{}{
		"code": "WH-01", "price": 500, "available": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var warehouse models.Warehouse
	decodeResponse(t, rec, &warehouse)

	user, err := env.accounts.Create(ctx, accounts.UserRequest{
		Username: "tenant", Email: "tenant@example.com", Password: "secret",
		Enabled: true, Roles: []string{roleUser},
	})
	require.NoError(t, err)
	userToken, err := env.jwt.GenerateToken(user, []string{roleUser})
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/lease", userToken, map[string]interface{}{
		"user_id":        user.ID,
		"warehouse_id":   warehouse.ID,
		"total":          1,
		"extra_services": []string{"Security"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var lease models.Lease
	decodeResponse(t, rec, &lease)
	assert.Equal(t, 500.0, lease.Total)

	// Booking the same pair again is a client error
	rec = env.do(t, http.MethodPost, "/api/lease", userToken, map[string]interface{}{
		"user_id": user.ID, "warehouse_id": warehouse.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "the user already occupies this warehouse")

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/lease/%d", lease.ID), userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.LeaseView
	decodeResponse(t, rec, &view)
	assert.Equal(t, []string{"Security"}, view.ExtraServices)

	// The caller sees their own leases
	rec = env.do(t, http.MethodGet, "/api/lease", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Lease
	decodeResponse(t, rec, &mine)
	assert.Len(t, mine, 1)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/lease/%d", lease.ID), userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/lease/%d", lease.ID), userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestServer_CreateUser_Location tests the Location header on user creation
func TestServer_CreateUser_Location(t *testing.T) {
	env := setupTestServer(t)

	adminToken := env.tokenFor(t, "admin", []string{roleAdmin})

	rec := env.do(t, http.MethodPost, "/api/user", adminToken, map[string]interface{}{
		"username": "diego",
		"email":    "diego@example.com",
		"password": "secret",
		"enabled":  true,
		"roles":    []string{roleUser},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	decodeResponse(t, rec, &created)
	assert.Equal(t, fmt.Sprintf("/api/user/%d", created.ID), rec.Header().Get("Location"))

	// Passwords never leave the service
	assert.NotContains(t, rec.Body.String(), "password")
}

// TestServer_InvalidBody tests the malformed-JSON error path
func TestServer_InvalidBody(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}
