package feedback

import (
	"context"
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

const cardBase = 6500000000000000

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
	fc := NewFeedbackController(service.New(testDB, nil, nil, service.Options{}))
	r := gin.New()
	fb := r.Group("/feedback", middleware.RequireAuth(auth.TestAuthority()))
	fb.POST("", middleware.CheckRole(model.RoleBusiness), fc.AddFeedback)
	fb.GET("/:card", middleware.CheckRole(model.RoleBusiness, model.RoleStaff), fc.GetFeedback)
	return r
}

func TestFeedback_appendAndRead(t *testing.T) {
	r := setupRouter()
	card := testutil.NewCard(cardBase)
	first := auth.GetAccessToken(t, auth.Principal{Role: model.RoleBusiness, BusinessID: database.TestBusinessID})
	second := auth.GetAccessToken(t, auth.Principal{Role: model.RoleBusiness, BusinessID: database.TestOtherBusinessID})

	rec, resp := testutil.MakeJSONRequest(gin.H{"card_number": card, "feedback": "Punctual and careful"}, first, r, "/feedback", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, resp)
	assert.Len(t, testutil.DataList(resp), 1)

	rec, _ = testutil.MakeJSONRequest(gin.H{"card_number": card, "feedback": "Needs forklift training"}, second, r, "/feedback", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	staff := auth.GetAccessToken(t, auth.Principal{Role: model.RoleStaff, Subject: "staff-1"})
	rec, resp = testutil.MakeJSONRequest(nil, staff, r, "/feedback/"+card, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := testutil.DataList(resp)
	require.Len(t, entries, 2)
	assert.Equal(t, database.TestBusinessID, entries[0].(map[string]interface{})["business_id"])
	assert.Equal(t, "Punctual and careful", entries[0].(map[string]interface{})["feedback"])
	assert.Equal(t, database.TestOtherBusinessID, entries[1].(map[string]interface{})["business_id"])
}

func TestFeedback_empty(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleBusiness, BusinessID: database.TestBusinessID})

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/feedback/"+testutil.NewCard(cardBase), http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, resp["data"])
}

func TestFeedback_invalid(t *testing.T) {
	r := setupRouter()
	token := auth.GetAccessToken(t, auth.Principal{Role: model.RoleBusiness, BusinessID: database.TestBusinessID})

	tests := []struct {
		name  string
		body  gin.H
		field string
	}{
		{"missing feedback", gin.H{"card_number": testutil.NewCard(cardBase)}, "feedback"},
		{"blank feedback", gin.H{"card_number": testutil.NewCard(cardBase), "feedback": "   "}, "feedback"},
		{"bad card", gin.H{"card_number": "9822001100", "feedback": "ok"}, "card_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := testutil.MakeJSONRequest(tt.body, token, r, "/feedback", http.MethodPost)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, resp["errors"], tt.field)
		})
	}

	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/feedback/12", http.MethodGet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
