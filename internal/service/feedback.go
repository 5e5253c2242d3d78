package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/model"
)

// FeedbackService keeps the append-only HR feedback of members.
type FeedbackService struct {
	DB  *database.DBinstanceStruct
	now func() time.Time
}

// Add appends one feedback entry for a member.
func (s *FeedbackService) Add(ctx context.Context, card, businessID, text string) ([]model.FeedbackEntry, error) {
	card, err := model.ParseCardNumber(card)
	if err != nil {
		return nil, apperror.Field("card_number", err.Error())
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Field("feedback", "must not be empty")
	}

	now := s.now().UTC()
	entry, err := json.Marshal([]model.FeedbackEntry{{BusinessID: businessID, Feedback: text, CreatedAt: now}})
	if err != nil {
		return nil, apperror.Unexpected("Failed to encode feedback", err)
	}

	if err := s.DB.WithContext(ctx).Exec(
		`INSERT INTO hr_feedbacks (card_number, entries, created_at, updated_at)
		 VALUES (?, CAST(? AS jsonb), ?, ?)
		 ON CONFLICT (card_number) DO UPDATE SET
		 	entries = hr_feedbacks.entries || EXCLUDED.entries,
		 	updated_at = EXCLUDED.updated_at`,
		card, string(entry), now, now,
	).Error; err != nil {
		return nil, apperror.Unexpected("Failed to save feedback", err)
	}
	return s.Get(ctx, card)
}

// Get returns a member's feedback in the order it was given.
func (s *FeedbackService) Get(ctx context.Context, card string) ([]model.FeedbackEntry, error) {
	var fb model.HRFeedback
	err := s.DB.WithContext(ctx).Where("card_number = ?", card).First(&fb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.FeedbackEntry{}, nil
	}
	if err != nil {
		return nil, apperror.Unexpected("Failed to fetch feedback", err)
	}
	entries, err := fb.FeedbackEntries()
	if err != nil {
		return nil, apperror.Unexpected("Failed to decode feedback", err)
	}
	return entries, nil
}
