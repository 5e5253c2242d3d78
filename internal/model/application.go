package model

import (
	"time"
)

const (
	// ApplicationStatusApplied is the status of a freshly submitted application
	ApplicationStatusApplied = "applied"
	// ApplicationStatusUnderReview indicates that the employer is reviewing the application
	ApplicationStatusUnderReview = "under_review"
	// ApplicationStatusShortlisted indicates that the member passed the first screening
	ApplicationStatusShortlisted = "shortlisted"
	// ApplicationStatusRejected indicates that the application has been rejected
	ApplicationStatusRejected = "rejected"
	// ApplicationStatusSelected indicates that the member got the job
	ApplicationStatusSelected = "selected"
)

// ApplicationStatuses lists every application status in lifecycle order.
var ApplicationStatuses = []string{
	ApplicationStatusApplied,
	ApplicationStatusUnderReview,
	ApplicationStatusShortlisted,
	ApplicationStatusRejected,
	ApplicationStatusSelected,
}

// IsApplicationStatus reports whether s is a known application status.
func IsApplicationStatus(s string) bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// JobApplication represents a member's application to a job.
// MemberCard is the member's handle in the external identity system, not a foreign key.
type JobApplication struct {
	ID    uint `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID uint `gorm:"not null;uniqueIndex:idx_application_job_member" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	MemberCard      string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_application_job_member;index" json:"member_card"`
	InstituteID     *string   `gorm:"type:text;index" json:"institute_id,omitempty"`
	Resume          string    `gorm:"type:text" json:"resume"`
	CoverLetter     *string   `gorm:"type:text" json:"cover_letter,omitempty"`
	Status          string    `gorm:"type:text;not null;default:applied" json:"status"`
	AppliedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"applied_at"`
	Referral        *string   `gorm:"type:text" json:"referral,omitempty"`
	JobMitraComment *string   `gorm:"column:jobmitra_comment;type:text" json:"jobmitra_comment,omitempty"`
}
