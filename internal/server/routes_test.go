package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"JobCard-backend/internal/auth"
	"JobCard-backend/internal/config"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.SecretKey = auth.TestSecret
	cfg.Auth.Issuer = auth.TestIssuer
	cfg.AllowOrigins = []string{"http://localhost:3000"}
	return cfg
}

func newEngine(limiter ratelimit.Store) *gin.Engine {
	svc := service.New(testDB, testutil.NewFakeResolver(), nil, service.Options{})
	s := NewMyServer(testConfig(), testDB, svc, nil, limiter)
	return s.RegisterRoutes().(*gin.Engine)
}

func TestHealth(t *testing.T) {
	r := newEngine(nil)

	rec, resp := testutil.MakeJSONRequest(nil, "", r, "/health", http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", resp["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newEngine(nil)
	testutil.MakeJSONRequest(nil, "", r, "/health", http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "jobcard_http_request_duration_seconds"))
}

func TestAPI_requiresToken(t *testing.T) {
	r := newEngine(nil)

	rec, resp := testutil.MakeJSONRequest(nil, "", r, "/api/v1/jobs", http.MethodGet)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, resp["success"])
}

func TestAPI_routeTable(t *testing.T) {
	r := newEngine(nil)
	member := auth.GetAccessToken(t, auth.Principal{Role: model.RoleMember, Member: "7000000000000001"})
	business := auth.GetAccessToken(t, auth.Principal{Role: model.RoleBusiness, BusinessID: database.TestBusinessID})
	staff := auth.GetAccessToken(t, auth.Principal{Role: model.RoleStaff, Subject: "staff-1"})
	agent := auth.GetAccessToken(t, auth.Principal{Role: model.RoleJobMitra, Subject: "JM-1"})
	government := auth.GetAccessToken(t, auth.Principal{Role: model.RoleGovernment, Subject: "gov-1"})

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		status int
	}{
		{"jobs for member", member, http.MethodGet, "/api/v1/jobs", http.StatusOK},
		{"own applications", member, http.MethodGet, "/api/v1/applications/me", http.StatusOK},
		{"own documents", member, http.MethodGet, "/api/v1/member/documents", http.StatusOK},
		{"file storage disabled", member, http.MethodGet, "/api/v1/member/documents/Resume/file", http.StatusServiceUnavailable},
		{"member cannot list pending", member, http.MethodGet, "/api/v1/verification/requests", http.StatusForbidden},
		{"staff lists pending", staff, http.MethodGet, "/api/v1/verification/requests", http.StatusOK},
		{"business own requests", business, http.MethodGet, "/api/v1/verification/requests/mine", http.StatusOK},
		{"agent jobs", agent, http.MethodGet, "/api/v1/jobmitra/jobs?location=Pune", http.StatusOK},
		{"member cannot use agent routes", member, http.MethodGet, "/api/v1/jobmitra/jobs", http.StatusForbidden},
		{"government lists job applications", government, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d/applications", database.TestJob1.ID), http.StatusOK},
		{"government cannot create jobs", government, http.MethodPost, "/api/v1/jobs", http.StatusForbidden},
		{"business reads feedback", business, http.MethodGet, "/api/v1/feedback/7000000000000001", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := testutil.MakeJSONRequest(nil, tt.token, r, tt.path, tt.method)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAPI_rateLimited(t *testing.T) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Minute, Limit: 2})
	r := newEngine(store)
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleStaff, Subject: "staff-rl"})

	for i := 0; i < 2; i++ {
		rec, _ := testutil.MakeJSONRequest(nil, token, r, "/api/v1/jobs", http.MethodGet)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/api/v1/jobs", http.MethodGet)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewServer(t *testing.T) {
	svc := service.New(testDB, testutil.NewFakeResolver(), nil, service.Options{})
	srv := NewMyServer(testConfig(), testDB, svc, nil, nil).NewServer()

	assert.Equal(t, ":8080", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
