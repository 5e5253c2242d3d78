// Package job provides HTTP handlers for the job catalog.
package job

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/controller"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

const dateLayout = "2006-01-02"

// JobController handles job related endpoints
type JobController struct {
	Jobs *service.JobService
}

// NewJobController creates a new instance of JobController
func NewJobController(svc *service.Services) *JobController {
	return &JobController{Jobs: svc.Jobs}
}

// jobInput is the request body of create and edit. The end date travels as
// a plain YYYY-MM-DD string.
type jobInput struct {
	model.EditableJobInfo
	ApplicationEndDate *string `json:"application_end_date"`
}

func decodeJob(c *gin.Context) (model.EditableJobInfo, bool) {
	var in jobInput
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		utilities.RespondError(c, apperror.Validation("Invalid request body: "+err.Error(), nil))
		return model.EditableJobInfo{}, false
	}

	info := in.EditableJobInfo
	if in.ApplicationEndDate != nil && strings.TrimSpace(*in.ApplicationEndDate) != "" {
		end, err := time.Parse(dateLayout, strings.TrimSpace(*in.ApplicationEndDate))
		if err != nil {
			utilities.RespondError(c, apperror.Field("application_end_date", "must be a date formatted YYYY-MM-DD"))
			return model.EditableJobInfo{}, false
		}
		info.ApplicationEndDate = &end
	}
	return info, true
}

// CreateJob handles the creation of a new job by a business.
// @Summary Create job based on given json structure
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job body model.EditableJobInfo true "Job information"
// @Success 201 {object} model.Job "Successfully create job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid job"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as business"
// @Router /jobs [post]
func (jc *JobController) CreateJob(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	info, ok := decodeJob(c)
	if !ok {
		return
	}

	job, err := jc.Jobs.Create(c.Request.Context(), p.BusinessID, info)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusCreated, "Job created", job)
}

// ListJobs returns active jobs.
// @Summary Get active jobs based on query
// @Description Jobs whose application end date passed are deactivated before listing
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param search query string false "Substring of the title, case insensitive"
// @Param location query string false "Substring of the location, case insensitive"
// @Param job_type query string false "Exact job type"
// @Param business_id query string false "Owning business"
// @Success 200 {array} model.Job
// @Router /jobs [get]
func (jc *JobController) ListJobs(c *gin.Context) {
	jobs, err := jc.Jobs.ListActive(c.Request.Context(), service.JobFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Location:   strings.TrimSpace(c.Query("location")),
		JobType:    strings.TrimSpace(c.Query("job_type")),
		BusinessID: strings.TrimSpace(c.Query("business_id")),
	})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, jobs)
}

// GetJob returns one job by id.
// @Summary Get job by ID
// @Tags Job
// @Produce json
// @Param id path integer true "ID of desired job"
// @Success 200 {object} model.Job
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Router /jobs/{id} [get]
func (jc *JobController) GetJob(c *gin.Context) {
	id, ok := controller.UintParam(c, "id")
	if !ok {
		return
	}
	job, err := jc.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, job)
}

// EditJob merges the given fields into a job of the calling business.
// @Summary Edit job based on given json structure
// @Description Only the business that owns the job can edit it. Empty fields are left unchanged
// @Tags Job
// @Accept json
// @Produce json
// @Param id path integer true "ID of desired job"
// @Param job body model.EditableJobInfo true "Fields to change"
// @Success 200 {object} model.Job
// @Failure 403 {object} utilities.ErrorResponse "Job belongs to another business"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Router /jobs/{id} [patch]
func (jc *JobController) EditJob(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	id, ok := controller.UintParam(c, "id")
	if !ok {
		return
	}
	info, ok := decodeJob(c)
	if !ok {
		return
	}

	job, err := jc.Jobs.Update(c.Request.Context(), id, p.BusinessID, info)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, job)
}

// DeleteJob removes a job and its applications.
// @Summary Delete given job ID
// @Description Only the owning business or staff can delete a job
// @Tags Job
// @Produce json
// @Param id path integer true "ID of desired job"
// @Success 200 {object} utilities.MessageResponse "Successfully delete job"
// @Router /jobs/{id} [delete]
func (jc *JobController) DeleteJob(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	id, ok := controller.UintParam(c, "id")
	if !ok {
		return
	}

	owner := p.BusinessID
	if p.Role == model.RoleStaff {
		owner = ""
	}
	if err := jc.Jobs.Delete(c.Request.Context(), id, owner); err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Job deleted", nil)
}

// ListJobMitraJobs lists the jobs a field agent may apply to at a location.
// @Summary Jobs open to Job Mitra agents
// @Tags JobMitra
// @Produce json
// @Param location query string false "Agent location, case insensitive"
// @Success 200 {array} model.Job
// @Router /jobmitra/jobs [get]
func (jc *JobController) ListJobMitraJobs(c *gin.Context) {
	jobs, err := jc.Jobs.ListForJobMitra(c.Request.Context(), c.Query("location"))
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, jobs)
}
