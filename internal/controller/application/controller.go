// Package application provides HTTP handlers for job application operations.
package application

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/controller"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	Applications *service.ApplicationService
	Members      *service.MemberService
}

// NewApplicationController creates a new instance of ApplicationController.
func NewApplicationController(svc *service.Services) *ApplicationController {
	return &ApplicationController{
		Applications: svc.Applications,
		Members:      svc.Members,
	}
}

type applyRequest struct {
	JobID       uint    `json:"job_id" binding:"required"`
	Resume      string  `json:"resume"`
	CoverLetter *string `json:"cover_letter"`
	InstituteID *string `json:"institute_id"`
}

type proxyApplyRequest struct {
	JobID       uint    `json:"job_id" binding:"required"`
	Member      string  `json:"member" binding:"required"`
	Resume      string  `json:"resume"`
	CoverLetter *string `json:"cover_letter"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type commentRequest struct {
	JobID   uint   `json:"job_id" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// Apply handles the creation of a new job application by a member.
// @Summary Create job application
// @Description Only members can access this endpoint. A resume already on file replaces the submitted one
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param application body applyRequest true "Application information"
// @Success 201 {object} model.JobApplication "Successfully apply to job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or already applied"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Router /applications [post]
func (ac *ApplicationController) Apply(c *gin.Context) {
	card, ok := controller.MemberCard(c, ac.Members)
	if !ok {
		return
	}
	var req applyRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	app, err := ac.Applications.Submit(c.Request.Context(), service.SubmitInput{
		JobID:       req.JobID,
		MemberCard:  card,
		Resume:      req.Resume,
		CoverLetter: req.CoverLetter,
		InstituteID: req.InstituteID,
	})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusCreated, "Application submitted", app)
}

// MyApplications lists the applications of the calling member.
// @Summary Get own applications
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} service.MemberApplications
// @Router /applications/me [get]
func (ac *ApplicationController) MyApplications(c *gin.Context) {
	card, ok := controller.MemberCard(c, ac.Members)
	if !ok {
		return
	}
	out, err := ac.Applications.ListForMember(c.Request.Context(), card)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, out)
}

// JobApplications lists the applications to a job with member details.
// @Summary Get applications of a job
// @Description Businesses only see applications to their own jobs; staff and government see every job
// @Tags Application
// @Produce json
// @Param id path integer true "Job ID"
// @Param institute_id query string false "Only applications referred by this institute"
// @Param member_card query string false "Only applications of this member"
// @Success 200 {array} service.ApplicationView
// @Failure 403 {object} utilities.ErrorResponse "Job belongs to another business"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Router /jobs/{id}/applications [get]
func (ac *ApplicationController) JobApplications(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	jobID, ok := controller.UintParam(c, "id")
	if !ok {
		return
	}

	filter := service.JobListFilter{
		InstituteID: strings.TrimSpace(c.Query("institute_id")),
		MemberCard:  strings.TrimSpace(c.Query("member_card")),
	}
	if p.Role == model.RoleBusiness {
		filter.OwnerID = p.BusinessID
	}

	views, err := ac.Applications.ListForJob(c.Request.Context(), jobID, filter)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, views)
}

// UpdateStatus moves an application to another status.
// @Summary Update application status
// @Description Businesses may only update applications to their own jobs, institutes only those they referred
// @Tags Application
// @Accept json
// @Produce json
// @Param id path integer true "Job ID"
// @Param application_id path integer true "Application ID"
// @Param status body statusRequest true "New status"
// @Success 200 {object} model.JobApplication
// @Failure 400 {object} utilities.ErrorResponse "Unknown status or transition not allowed"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /jobs/{id}/applications/{application_id}/status [patch]
func (ac *ApplicationController) UpdateStatus(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	jobID, ok := controller.UintParam(c, "id")
	if !ok {
		return
	}
	appID, ok := controller.UintParam(c, "application_id")
	if !ok {
		return
	}
	var req statusRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	in := service.TransitionInput{
		ApplicationID: appID,
		JobID:         jobID,
		Status:        strings.TrimSpace(req.Status),
	}
	switch p.Role {
	case model.RoleBusiness:
		in.OwnerID = p.BusinessID
	case model.RoleInstitute:
		in.InstituteID = p.InstituteID
	}

	app, err := ac.Applications.Transition(c.Request.Context(), in)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Application status updated", app)
}

// JobMitraApply submits an application on behalf of a member.
// @Summary Apply for a member
// @Description The member is given by card or mobile number and needs a resume on file or in the request
// @Tags JobMitra
// @Accept json
// @Produce json
// @Param application body proxyApplyRequest true "Application information"
// @Success 201 {object} model.JobApplication
// @Failure 400 {object} utilities.ErrorResponse "Invalid member, missing resume or already applied"
// @Failure 404 {object} utilities.ErrorResponse "Job or member not found"
// @Router /jobmitra/applications [post]
func (ac *ApplicationController) JobMitraApply(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	var req proxyApplyRequest
	if !controller.BindJSON(c, &req) {
		return
	}
	card, ok := controller.ResolveMember(c, ac.Members, "member", req.Member)
	if !ok {
		return
	}

	app, err := ac.Applications.SubmitForMember(c.Request.Context(), service.ProxyInput{
		JobID:       req.JobID,
		MemberCard:  card,
		Resume:      req.Resume,
		CoverLetter: req.CoverLetter,
		AgentID:     p.Subject,
	})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusCreated, "Application submitted", app)
}

// JobMitraApplications lists applications an agent follows up on.
// @Summary Applications for Job Mitra follow up
// @Tags JobMitra
// @Produce json
// @Param job_id query integer false "Job ID"
// @Param member query string false "Card or mobile number of the member"
// @Success 200 {array} service.ApplicationView
// @Router /jobmitra/applications [get]
func (ac *ApplicationController) JobMitraApplications(c *gin.Context) {
	jobID, ok := controller.UintQuery(c, "job_id")
	if !ok {
		return
	}
	card := ""
	if raw := strings.TrimSpace(c.Query("member")); raw != "" {
		if card, ok = controller.ResolveMember(c, ac.Members, "member", raw); !ok {
			return
		}
	}

	views, err := ac.Applications.ListByAgent(c.Request.Context(), jobID, card)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, views)
}

// JobMitraComment stores the agent comment of an application.
// @Summary Comment on an application
// @Tags JobMitra
// @Accept json
// @Produce json
// @Param application_id path integer true "Application ID"
// @Param comment body commentRequest true "Job and comment"
// @Success 200 {object} model.JobApplication
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /jobmitra/applications/{application_id}/comment [patch]
func (ac *ApplicationController) JobMitraComment(c *gin.Context) {
	appID, ok := controller.UintParam(c, "application_id")
	if !ok {
		return
	}
	var req commentRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	app, err := ac.Applications.Comment(c.Request.Context(), appID, req.JobID, req.Comment)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Comment saved", app)
}

// InstituteApplications lists applications the calling institute referred.
// @Summary Applications referred by the institute
// @Tags Institute
// @Produce json
// @Param job_id query integer false "Only applications to this job, returned with the job"
// @Success 200 {object} service.InstituteApplications
// @Router /institute/applications [get]
func (ac *ApplicationController) InstituteApplications(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	jobID, ok := controller.UintQuery(c, "job_id")
	if !ok {
		return
	}

	out, err := ac.Applications.ListForInstitute(c.Request.Context(), p.InstituteID, jobID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, out)
}
