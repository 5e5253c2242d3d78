package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FeedbackEntry is one piece of HR feedback left by a business.
type FeedbackEntry struct {
	BusinessID string    `json:"business_id"`
	Feedback   string    `json:"feedback"`
	CreatedAt  time.Time `json:"created_at"`
}

// HRFeedback holds the append-only feedback list of a member.
type HRFeedback struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	CardNumber string         `gorm:"type:varchar(16);not null;uniqueIndex" json:"card_number"`
	Entries    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"entries"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// FeedbackEntries decodes the stored entries.
func (f *HRFeedback) FeedbackEntries() ([]FeedbackEntry, error) {
	entries := []FeedbackEntry{}
	if len(f.Entries) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(f.Entries, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
