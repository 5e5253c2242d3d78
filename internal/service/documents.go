package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/notification"
)

// DocumentService is the member document store.
type DocumentService struct {
	DB       *database.DBinstanceStruct
	notifier notification.Notifier
	now      func() time.Time
}

// Get returns a member's documents, nil when the member never uploaded anything.
func (s *DocumentService) Get(ctx context.Context, card string) (*model.MemberDocuments, error) {
	var docs model.MemberDocuments
	err := s.DB.WithContext(ctx).Where("card_number = ?", card).First(&docs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Unexpected("Failed to fetch documents", err)
	}
	return &docs, nil
}

// Upsert merges uploads into a member's documents in a single statement.
// Keys are slot names or their snake_case field names. A non-empty value
// replaces the stored one and resets that slot to pending; empty or absent
// slots keep their value, and slots without a status get pending.
func (s *DocumentService) Upsert(ctx context.Context, card string, uploads map[string]string) (*model.MemberDocuments, error) {
	changed, err := normalizeUploads(uploads)
	if err != nil {
		return nil, err
	}

	var docs model.MemberDocuments
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertDocuments(tx, card, changed, s.now()); err != nil {
			return apperror.Unexpected("Failed to save documents", err)
		}
		if err := tx.Where("card_number = ?", card).First(&docs).Error; err != nil {
			return apperror.Unexpected("Failed to fetch documents", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		names := make([]string, 0, len(changed))
		for _, c := range changed {
			names = append(names, c.slot.Name)
		}
		s.notifier.Notify(notification.Event{
			Kind:       notification.KindDocumentUploaded,
			CardNumber: card,
			Documents:  names,
		})
	}
	return &docs, nil
}

type slotUpload struct {
	slot  model.Slot
	value string
}

func normalizeUploads(uploads map[string]string) ([]slotUpload, error) {
	fields := map[string]string{}
	bySlot := map[string]slotUpload{}
	for key, value := range uploads {
		slot, ok := model.LookupSlot(key)
		if !ok {
			fields[key] = "unknown document"
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		bySlot[slot.Name] = slotUpload{slot: slot, value: value}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("Unknown documents", fields)
	}

	out := make([]slotUpload, 0, len(bySlot))
	for _, u := range bySlot {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].slot.Column < out[j].slot.Column })
	return out, nil
}

// upsertDocuments writes only the changed columns. The status map is
// rebuilt as defaults, then what was stored, then resets for changed slots,
// so later keys win.
func upsertDocuments(tx *gorm.DB, card string, changed []slotUpload, now time.Time) error {
	resets := map[string]string{}
	for _, c := range changed {
		resets[c.slot.Name] = model.DocumentStatusPending
	}
	defaults, err := json.Marshal(model.PendingStatuses(model.AllSlotNames()))
	if err != nil {
		return err
	}
	resetJSON, err := json.Marshal(resets)
	if err != nil {
		return err
	}

	columns := []string{"card_number"}
	placeholders := []string{"?"}
	args := []interface{}{card}
	sets := []string{}
	for _, c := range changed {
		columns = append(columns, c.slot.Column)
		placeholders = append(placeholders, "?")
		args = append(args, c.value)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c.slot.Column, c.slot.Column))
	}
	columns = append(columns, "document_status", "created_at", "updated_at")
	placeholders = append(placeholders, "CAST(? AS jsonb)", "?", "?")
	args = append(args, string(defaults), now.UTC(), now.UTC())

	sets = append(sets,
		"document_status = CAST(? AS jsonb) || COALESCE(member_documents.document_status, '{}'::jsonb) || CAST(? AS jsonb)",
		"updated_at = EXCLUDED.updated_at",
	)
	args = append(args, string(defaults), string(resetJSON))

	sql := fmt.Sprintf(
		"INSERT INTO member_documents (%s) VALUES (%s) ON CONFLICT (card_number) DO UPDATE SET %s",
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(sets, ", "),
	)
	return tx.Exec(sql, args...).Error
}
