package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/utilities"
)

// JobService is the job catalog. Activation is reconciled lazily on reads.
type JobService struct {
	DB  *database.DBinstanceStruct
	now func() time.Time
}

// JobFilter narrows ListActive.
type JobFilter struct {
	Search     string
	Location   string
	JobType    string
	BusinessID string
}

// Get returns a job by id, flipping it inactive when its deadline passed.
func (s *JobService) Get(ctx context.Context, id uint) (*model.Job, error) {
	var job model.Job
	if err := s.DB.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, notFoundOr(err, "Job %d not found", id)
	}
	if job.ReconcileActivation(s.now()) {
		if err := s.DB.WithContext(ctx).Model(&model.Job{}).
			Where("id = ? AND is_active = ?", job.ID, true).
			Update("is_active", false).Error; err != nil {
			return nil, apperror.Unexpected("Failed to update job activation", err)
		}
	}
	return &job, nil
}

// reconcileExpired deactivates every active job whose end date is before today.
func (s *JobService) reconcileExpired(ctx context.Context) error {
	today := s.now().UTC().Truncate(24 * time.Hour)
	return s.DB.WithContext(ctx).Model(&model.Job{}).
		Where("is_active = ? AND application_end_date < ?", true, today).
		Update("is_active", false).Error
}

// ListActive lists active jobs, newest first.
func (s *JobService) ListActive(ctx context.Context, f JobFilter) ([]model.Job, error) {
	if err := s.reconcileExpired(ctx); err != nil {
		return nil, apperror.Unexpected("Failed to update job activation", err)
	}

	q := s.DB.WithContext(ctx).Where("is_active = ?", true)
	if f.Search != "" {
		q = q.Where("title ILIKE ?", "%"+f.Search+"%")
	}
	if f.Location != "" {
		q = q.Where("location ILIKE ?", "%"+f.Location+"%")
	}
	if f.JobType != "" {
		q = q.Where("job_type = ?", f.JobType)
	}
	if f.BusinessID != "" {
		q = q.Where("business_id = ?", f.BusinessID)
	}

	jobs := []model.Job{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&jobs).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch jobs", err)
	}
	return jobs, nil
}

// ListForJobMitra lists active jobs open to agents at location: jobs whose
// agent location matches case-insensitively or is not set.
func (s *JobService) ListForJobMitra(ctx context.Context, location string) ([]model.Job, error) {
	if err := s.reconcileExpired(ctx); err != nil {
		return nil, apperror.Unexpected("Failed to update job activation", err)
	}

	q := s.DB.WithContext(ctx).Where("is_active = ?", true)
	if location = strings.TrimSpace(location); location != "" {
		q = q.Where("(LOWER(job_mitra_location) = LOWER(?) OR job_mitra_location IS NULL OR job_mitra_location = '')", location)
	}

	jobs := []model.Job{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&jobs).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch jobs", err)
	}
	return jobs, nil
}

// Create stores a new job for businessID.
func (s *JobService) Create(ctx context.Context, businessID string, info model.EditableJobInfo) (*model.Job, error) {
	if err := validateJobInfo(info, true); err != nil {
		return nil, err
	}
	job := model.Job{BusinessID: businessID, EditableJobInfo: info}
	if job.NumberOfPosts <= 0 {
		job.NumberOfPosts = 1
	}
	job.IsActive = !job.Expired(s.now())
	if err := s.DB.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, apperror.Unexpected("Failed to create job", err)
	}
	return &job, nil
}

// Update merges the non-empty fields of info into a job owned by businessID.
func (s *JobService) Update(ctx context.Context, id uint, businessID string, info model.EditableJobInfo) (*model.Job, error) {
	if err := validateJobInfo(info, false); err != nil {
		return nil, err
	}
	var job model.Job
	if err := s.DB.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, notFoundOr(err, "Job %d not found", id)
	}
	if job.BusinessID != businessID {
		return nil, apperror.Forbidden("Job %d belongs to another business", id)
	}

	utilities.MergeNonEmpty(&job.EditableJobInfo, &info)
	if err := validateSalary(job.MinSalary, job.MaxSalary); err != nil {
		return nil, err
	}
	job.IsActive = !job.Expired(s.now())

	if err := s.DB.WithContext(ctx).Save(&job).Error; err != nil {
		return nil, apperror.Unexpected("Failed to update job", err)
	}
	return &job, nil
}

// Delete removes a job and, by cascade, its applications. An empty
// businessID skips the ownership check.
func (s *JobService) Delete(ctx context.Context, id uint, businessID string) error {
	var job model.Job
	if err := s.DB.WithContext(ctx).First(&job, id).Error; err != nil {
		return notFoundOr(err, "Job %d not found", id)
	}
	if businessID != "" && job.BusinessID != businessID {
		return apperror.Forbidden("Job %d belongs to another business", id)
	}
	if err := s.DB.WithContext(ctx).Delete(&job).Error; err != nil {
		return apperror.Unexpected("Failed to delete job", err)
	}
	return nil
}

func validateJobInfo(info model.EditableJobInfo, create bool) error {
	fields := map[string]string{}
	if create && strings.TrimSpace(info.Title) == "" {
		fields["title"] = "is required"
	}
	if info.JobType != "" && !slices.Contains(model.JobTypes, info.JobType) {
		fields["job_type"] = "must be one of " + strings.Join(model.JobTypes, ", ")
	}
	if info.NumberOfPosts < 0 {
		fields["number_of_posts"] = "must not be negative"
	}
	if len(fields) > 0 {
		return apperror.Validation("Invalid job", fields)
	}
	return validateSalary(info.MinSalary, info.MaxSalary)
}

func validateSalary(min, max *int) error {
	if min != nil && max != nil && *min > *max {
		return apperror.Field("max_salary", "must not be lower than min_salary")
	}
	return nil
}
