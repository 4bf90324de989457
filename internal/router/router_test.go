package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/middleware"
	"github.com/wastebill/wastebill-backend/pkg/util"
)

const testJWTSecret = "router-test-secret"

// handlers are never reached in these tests; every request stops in middleware
func setupRouterTest() *gin.Engine {
	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"https://admin.example.go.th"}},
		Storage: config.StorageConfig{PublicPath: "/uploads", MaxUploadBytes: 5 << 20},
	}
	r := NewRouter(Controllers{}, middleware.NewAuthMiddleware(testJWTSecret), nil, nil, cfg, "")
	return r.Setup()
}

func tokenFor(t *testing.T, role string) string {
	tokens, err := util.GenerateTokenPair(1, "subject", role, testJWTSecret, time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func TestRouter_Health(t *testing.T) {
	engine := setupRouterTest()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_RegistersRoutes(t *testing.T) {
	engine := setupRouterTest()

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/auth/line/register",
		"POST /api/v1/auth/line/login",
		"GET /api/v1/prices",
		"POST /api/v1/payment-slips",
		"PUT /api/v1/notifications/read-all",
		"PUT /api/v1/notifications/:id/read",
		"GET /api/v1/admin/addresses/scan/:barcode",
		"POST /api/v1/admin/waste-records",
		"POST /api/v1/admin/bills/generate",
		"PUT /api/v1/admin/payment-slips/:id/review",
		"GET /api/v1/admin/reports/finance",
		"GET /api/v1/admin/audit-logs",
		"GET /api/v1/admin/ws",
		"GET /metrics",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestRouter_RoleSeparation(t *testing.T) {
	engine := setupRouterTest()

	tests := []struct {
		name   string
		method string
		path   string
		role   string
	}{
		{"Resident on admin route", http.MethodGet, "/api/v1/admin/bills", model.ResidentRole},
		{"Admin on resident route", http.MethodGet, "/api/v1/bills", string(model.AdminRoleStaff)},
		{"Collector cannot review slips", http.MethodPut, "/api/v1/admin/payment-slips/1/review", string(model.AdminRoleCollector)},
		{"Staff cannot change prices", http.MethodPut, "/api/v1/admin/prices", string(model.AdminRoleStaff)},
		{"Accountant cannot verify residents", http.MethodPut, "/api/v1/admin/users/1/verify", string(model.AdminRoleAccountant)},
		{"Accountant cannot weigh waste", http.MethodPost, "/api/v1/admin/waste-records", string(model.AdminRoleAccountant)},
		{"Only super admin reads audit log", http.MethodGet, "/api/v1/admin/audit-logs", string(model.AdminRoleAccountant)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, tt.role))
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	engine := setupRouterTest()

	for _, path := range []string{"/api/v1/me", "/api/v1/admin/bills", "/api/v1/admin/ws"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCORSMiddleware(t *testing.T) {
	engine := setupRouterTest()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/prices", nil)
	req.Header.Set("Origin", "https://admin.example.go.th")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example.go.th", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/prices", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
