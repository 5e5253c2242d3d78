package job

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"JobCard-backend/internal/auth"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/middleware"
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

func setupRouter() *gin.Engine {
	svc := service.New(testDB, testutil.NewFakeResolver(), nil, service.Options{})
	jc := NewJobController(svc)

	r := gin.New()
	authed := r.Group("", middleware.RequireAuth(auth.TestAuthority()))
	authed.GET("/jobs", jc.ListJobs)
	authed.GET("/jobs/:id", jc.GetJob)
	authed.POST("/jobs", middleware.CheckRole(model.RoleBusiness), jc.CreateJob)
	authed.PATCH("/jobs/:id", middleware.CheckRole(model.RoleBusiness), jc.EditJob)
	authed.DELETE("/jobs/:id", middleware.CheckRole(model.RoleBusiness, model.RoleStaff), jc.DeleteJob)
	authed.GET("/jobmitra/jobs", middleware.CheckRole(model.RoleJobMitra), jc.ListJobMitraJobs)
	return r
}

func businessToken(t *testing.T, id string) string {
	return auth.GetAccessToken(t, auth.Principal{Role: model.RoleBusiness, BusinessID: id})
}

func createJob(t *testing.T, r *gin.Engine, title string) uint {
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"title":                title,
		"location":             "Wardha",
		"job_type":             model.JobTypeFullTime,
		"application_end_date": time.Now().AddDate(0, 0, 10).Format("2006-01-02"),
	}, businessToken(t, database.TestBusinessID), r, "/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, resp)
	return uint(testutil.Data(resp)["id"].(float64))
}

func TestGetJob_success(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleGovernment, Subject: "gov-1"})

	rec, resp := testutil.MakeJSONRequest(nil, token, r, fmt.Sprintf("/jobs/%d", database.TestJob1.ID), http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := testutil.Data(resp)
	assert.Equal(t, float64(database.TestJob1.ID), data["id"])
	assert.Equal(t, database.TestJob1.Title, data["title"])
}

func TestGetJob_notFound(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleGovernment, Subject: "gov-1"})

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/jobs/999999", http.MethodGet)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, resp["success"])
}

func TestGetJob_badID(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleGovernment, Subject: "gov-1"})

	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/jobs/abc", http.MethodGet)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob_noToken(t *testing.T) {
	r := setupRouter()

	rec, _ := testutil.MakeJSONRequest(nil, "", r, fmt.Sprintf("/jobs/%d", database.TestJob1.ID), http.MethodGet)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListJobs_filters(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleMember, Member: "4111222233334444"})

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/jobs?search=warehouse", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := testutil.DataList(resp)
	require.Len(t, jobs, 1)
	assert.Equal(t, database.TestJob1.Title, jobs[0].(map[string]interface{})["title"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, "/jobs?business_id="+database.TestOtherBusinessID, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, j := range testutil.DataList(resp) {
		job := j.(map[string]interface{})
		assert.Equal(t, database.TestOtherBusinessID, job["business_id"])
		assert.NotEqual(t, float64(database.TestExpiredJob.ID), job["id"])
	}
}

func TestCreateJob_success(t *testing.T) {
	r := setupRouter()
	id := createJob(t, r, "Packing Helper")

	var stored model.Job
	require.NoError(t, testDB.First(&stored, id).Error)
	assert.Equal(t, database.TestBusinessID, stored.BusinessID)
	assert.True(t, stored.IsActive)
	assert.Equal(t, 1, stored.NumberOfPosts)
}

func TestCreateJob_invalid(t *testing.T) {
	r := setupRouter()
	token := businessToken(t, database.TestBusinessID)

	tests := []struct {
		name  string
		body  gin.H
		field string
	}{
		{"missing title", gin.H{"location": "Akola"}, "title"},
		{"bad job type", gin.H{"title": "Cook", "job_type": "Gig"}, "job_type"},
		{"bad date", gin.H{"title": "Cook", "application_end_date": "31/01/2030"}, "application_end_date"},
		{"salary range", gin.H{"title": "Cook", "min_salary": 20000, "max_salary": 10000}, "max_salary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := testutil.MakeJSONRequest(tt.body, token, r, "/jobs", http.MethodPost)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			errs, _ := resp["errors"].(map[string]interface{})
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestCreateJob_unknownField(t *testing.T) {
	r := setupRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "Cook", "is_active": false}, businessToken(t, database.TestBusinessID), r, "/jobs", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_wrongRole(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleMember, Member: "4111222233334444"})

	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "Cook"}, token, r, "/jobs", http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditJob(t *testing.T) {
	r := setupRouter()
	id := createJob(t, r, "Store Keeper")
	path := fmt.Sprintf("/jobs/%d", id)

	rec, resp := testutil.MakeJSONRequest(gin.H{"location": "Amravati"}, businessToken(t, database.TestBusinessID), r, path, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	data := testutil.Data(resp)
	assert.Equal(t, "Amravati", data["location"])
	assert.Equal(t, "Store Keeper", data["title"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"location": "Latur"}, businessToken(t, database.TestOtherBusinessID), r, path, http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteJob(t *testing.T) {
	r := setupRouter()

	own := createJob(t, r, "Night Guard")
	rec, _ := testutil.MakeJSONRequest(nil, businessToken(t, database.TestOtherBusinessID), r, fmt.Sprintf("/jobs/%d", own), http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, businessToken(t, database.TestBusinessID), r, fmt.Sprintf("/jobs/%d", own), http.MethodDelete)
	assert.Equal(t, http.StatusOK, rec.Code)

	staffed := createJob(t, r, "Cleaner")
	staff := auth.GetAccessToken(t, auth.Principal{Role: model.RoleStaff, Subject: "staff-1"})
	rec, _ = testutil.MakeJSONRequest(nil, staff, r, fmt.Sprintf("/jobs/%d", staffed), http.MethodDelete)
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	testDB.Model(&model.Job{}).Where("id IN ?", []uint{own, staffed}).Count(&count)
	assert.Zero(t, count)
}

func TestListJobMitraJobs(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleJobMitra, Subject: "JM-7"})

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/jobmitra/jobs?location=pune", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	ids := []float64{}
	for _, j := range testutil.DataList(resp) {
		ids = append(ids, j.(map[string]interface{})["id"].(float64))
	}
	assert.Contains(t, ids, float64(database.TestMitraJob.ID))

	rec, resp = testutil.MakeJSONRequest(nil, token, r, "/jobmitra/jobs?location=Mumbai", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, j := range testutil.DataList(resp) {
		assert.NotEqual(t, float64(database.TestMitraJob.ID), j.(map[string]interface{})["id"])
	}
}
