// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/controller/application"
	"JobCard-backend/internal/controller/document"
	"JobCard-backend/internal/controller/feedback"
	"JobCard-backend/internal/controller/file"
	"JobCard-backend/internal/controller/job"
	"JobCard-backend/internal/controller/member"
	"JobCard-backend/internal/controller/verification"
	"JobCard-backend/internal/metrics"
	"JobCard-backend/internal/middleware"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/utilities"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	utilities.RegisterJSONTagNames()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), metrics.Middleware(), middleware.SafeHeader())

	corsConfig := cors.Config{
		AllowOrigins:     s.cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		// no configured frontend: open to any origin, without credentials
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	jobs := job.NewJobController(s.Services)
	applications := application.NewApplicationController(s.Services)
	documents := document.NewDocumentController(s.Services)
	files := file.NewFileController(s.Services, s.Storage, s.cfg.Storage)
	verifications := verification.NewVerificationController(s.Services)
	feedbacks := feedback.NewFeedbackController(s.Services)
	members := member.NewMemberController(s.Services)

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", metrics.Handler())

	v1 := r.Group("/api/v1")
	needAuth := v1.Group("")
	{
		needAuth.Use(middleware.RequireAuth(s.Authority))
		if s.Limiter != nil {
			needAuth.Use(middleware.RateLimiterMiddleware(s.Limiter))
		}

		jobRoute := needAuth.Group("/jobs")
		{
			jobRoute.GET("", jobs.ListJobs)
			jobRoute.GET("/:id", jobs.GetJob)
			jobRoute.POST("", middleware.CheckRole(model.RoleBusiness), jobs.CreateJob)
			jobRoute.PATCH("/:id", middleware.CheckRole(model.RoleBusiness), jobs.EditJob)
			jobRoute.DELETE("/:id", middleware.CheckRole(model.RoleBusiness, model.RoleStaff), jobs.DeleteJob)
			jobRoute.GET("/:id/applications", middleware.CheckRole(model.RoleBusiness, model.RoleStaff, model.RoleGovernment), applications.JobApplications)
			jobRoute.PATCH("/:id/applications/:application_id/status",
				middleware.CheckRole(model.RoleBusiness, model.RoleStaff, model.RoleInstitute), applications.UpdateStatus)
		}

		applicationRoute := needAuth.Group("/applications", middleware.CheckRole(model.RoleMember))
		{
			applicationRoute.POST("", applications.Apply)
			applicationRoute.GET("/me", applications.MyApplications)
		}

		memberRoute := needAuth.Group("/member")
		{
			memberRoute.GET("/lookup",
				middleware.CheckRole(model.RoleStaff, model.RoleJobMitra, model.RoleBusiness, model.RoleInstitute), members.Lookup)

			ownDocs := memberRoute.Group("/documents", middleware.CheckRole(model.RoleMember))
			ownDocs.GET("", documents.GetDocuments)
			ownDocs.POST("", documents.UpsertDocuments)
			ownDocs.POST("/:slot/file", middleware.SizeLimit(file.MaxUploadBytes), files.UploadDocumentFile)
			ownDocs.GET("/:slot/file", files.DownloadDocumentFile)
		}

		jobMitraRoute := needAuth.Group("/jobmitra", middleware.CheckRole(model.RoleJobMitra))
		{
			jobMitraRoute.GET("/jobs", jobs.ListJobMitraJobs)
			jobMitraRoute.POST("/applications", applications.JobMitraApply)
			jobMitraRoute.GET("/applications", applications.JobMitraApplications)
			jobMitraRoute.PATCH("/applications/:application_id/comment", applications.JobMitraComment)
		}

		needAuth.GET("/institute/applications", middleware.CheckRole(model.RoleInstitute), applications.InstituteApplications)

		verificationRoute := needAuth.Group("/verification")
		{
			verificationRoute.POST("/requests", middleware.CheckRole(model.RoleBusiness), verifications.CreateRequest)
			verificationRoute.GET("/requests/mine", middleware.CheckRole(model.RoleBusiness), verifications.MyRequests)

			needStaff := verificationRoute.Group("", middleware.CheckRole(model.RoleStaff))
			needStaff.GET("/requests", verifications.ListPending)
			needStaff.GET("/members/:card", verifications.MemberDetail)
			needStaff.GET("/members/:card/documents/:slot/file", files.DownloadMemberDocumentFile)
			needStaff.PATCH("/requests/:id/documents", verifications.UpdateDocumentStatus)
			needStaff.PATCH("/requests/:id/status", verifications.UpdateRequestStatus)
		}

		feedbackRoute := needAuth.Group("/feedback")
		{
			feedbackRoute.POST("", middleware.CheckRole(model.RoleBusiness), feedbacks.AddFeedback)
			feedbackRoute.GET("/:card", middleware.CheckRole(model.RoleBusiness, model.RoleStaff), feedbacks.GetFeedback)
		}
	}

	return r
}

func (s *MyServer) healthHandler(c *gin.Context) {
	stats := s.DB.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
