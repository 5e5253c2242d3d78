package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentVerificationRequest is a business-initiated ask for staff to verify
// a named subset of a member's documents. Documents is a snapshot map of
// slot name to status; Status is the request-level status and is only ever
// set explicitly by staff.
type DocumentVerificationRequest struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CardNumber  string            `gorm:"type:varchar(16);not null;index" json:"card_number"`
	RequestedBy string            `gorm:"type:text;not null;index" json:"requested_by"`
	Documents   datatypes.JSONMap `gorm:"type:jsonb;not null" json:"documents"`
	Status      string            `gorm:"type:text;not null;default:pending;index" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// BeforeCreate assigns a new id when none was given
func (r *DocumentVerificationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Requests returns the requested slot names in table order.
func (r *DocumentVerificationRequest) Requests() []string {
	names := []string{}
	for _, s := range Slots {
		if _, ok := r.Documents[s.Name]; ok {
			names = append(names, s.Name)
		}
	}
	return names
}
