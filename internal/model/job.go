package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	// JobTypeFullTime is a full time position
	JobTypeFullTime = "Full Time"
	// JobTypePartTime is a part time position
	JobTypePartTime = "Part Time"
	// JobTypeInternship is an internship position
	JobTypeInternship = "Internship"
	// JobTypeContract is a contract position
	JobTypeContract = "Contract"
)

// JobTypes lists every accepted job type.
var JobTypes = []string{JobTypeFullTime, JobTypePartTime, JobTypeInternship, JobTypeContract}

// EditableJobInfo contains job fields that the owning business may change.
type EditableJobInfo struct {
	Title              string         `gorm:"type:text;not null" json:"title"`
	CompanyName        string         `gorm:"type:text" json:"company_name"`
	Location           string         `gorm:"type:text" json:"location"`
	Workplace          string         `gorm:"type:text" json:"workplace"`
	StaffEmail         string         `gorm:"type:text" json:"staff_email"`
	ApplicationEndDate *time.Time     `gorm:"type:date" json:"application_end_date,omitempty"`
	JobType            string         `gorm:"type:text" json:"job_type"`
	MinSalary          *int           `json:"min_salary,omitempty"`
	MaxSalary          *int           `json:"max_salary,omitempty"`
	Requirements       string         `gorm:"type:text" json:"requirements"`
	AboutCompany       string         `gorm:"type:text" json:"about_company"`
	Description        string         `gorm:"type:text" json:"description"`
	Languages          pq.StringArray `gorm:"type:text[]" json:"languages"`
	AreaOfWork         string         `gorm:"type:text" json:"area_of_work"`
	Industry           string         `gorm:"type:text" json:"industry"`
	NumberOfPosts      int            `gorm:"default:1" json:"number_of_posts"`
	EducationLevels    pq.StringArray `gorm:"type:text[]" json:"education_levels"`
	Specialisations    pq.StringArray `gorm:"type:text[]" json:"specialisations"`
	KeySkills          pq.StringArray `gorm:"type:text[]" json:"key_skills"`
	JobMitraLocation   *string        `gorm:"type:text" json:"job_mitra_location,omitempty"`
}

// Job is gorm model for a job posting owned by a business
type Job struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID string `gorm:"type:text;not null;index" json:"business_id"`
	EditableJobInfo
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Applications []JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// Expired reports whether the application window closed before now.
// The end date itself is still open for applications.
func (j *Job) Expired(now time.Time) bool {
	if j.ApplicationEndDate == nil {
		return false
	}
	end := j.ApplicationEndDate.AddDate(0, 0, 1)
	return !now.Before(end)
}

// ReconcileActivation flips IsActive to false once the job expired.
// It returns true when the flag changed.
func (j *Job) ReconcileActivation(now time.Time) bool {
	if j.IsActive && j.Expired(now) {
		j.IsActive = false
		return true
	}
	return false
}
