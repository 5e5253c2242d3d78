package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/metrics"
	"JobCard-backend/internal/model"
)

// VerificationService runs the staff-mediated document verification workflow.
type VerificationService struct {
	DB          *database.DBinstanceStruct
	resolver    identity.Resolver
	concurrency int
	now         func() time.Time
}

// PendingRequestView is a row of the staff review queue.
type PendingRequestView struct {
	model.DocumentVerificationRequest
	BusinessName *string `json:"business_name"`
	HasResume    bool    `json:"has_resume"`
}

// PendingPage is one page of the review queue.
type PendingPage struct {
	Items    []PendingRequestView `json:"items"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Total    int64                `json:"total"`
}

// DocumentDetail pairs a requested slot with the live document and its live status.
type DocumentDetail struct {
	Document    string `json:"document"`
	Value       string `json:"value"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

// RequestDetail is one outstanding request with its live document details.
type RequestDetail struct {
	RequestID   uuid.UUID        `json:"request_id"`
	RequestedBy string           `json:"requested_by"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	Documents   []DocumentDetail `json:"documents"`
}

// UpdateDocumentInput is a staff decision on one requested document.
type UpdateDocumentInput struct {
	RequestID  uuid.UUID
	CardNumber string
	Document   string
	Status     string
}

const maxPageSize = 100

// Create opens a request for the given slots, every slot seeded as pending.
func (s *VerificationService) Create(ctx context.Context, card, requestedBy string, slots []string) (*model.DocumentVerificationRequest, error) {
	card, err := model.ParseCardNumber(card)
	if err != nil {
		return nil, apperror.Field("card_number", err.Error())
	}
	names, err := canonicalSlots(slots)
	if err != nil {
		return nil, err
	}

	req := model.DocumentVerificationRequest{
		CardNumber:  card,
		RequestedBy: requestedBy,
		Documents:   model.PendingStatuses(names),
		Status:      model.DocumentStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, apperror.Unexpected("Failed to create verification request", err)
	}
	return &req, nil
}

func canonicalSlots(slots []string) ([]string, error) {
	if len(slots) == 0 {
		return nil, apperror.Field("documents", "at least one document is required")
	}
	fields := map[string]string{}
	seen := map[string]bool{}
	names := []string{}
	for _, raw := range slots {
		slot, ok := model.LookupSlot(strings.TrimSpace(raw))
		if !ok {
			fields[raw] = "unknown document"
			continue
		}
		if !seen[slot.Name] {
			seen[slot.Name] = true
			names = append(names, slot.Name)
		}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("Unknown documents", fields)
	}
	return names, nil
}

// ListPending returns one page of pending requests, oldest first, with the
// requesting business name and whether the member has a resume on file.
func (s *VerificationService) ListPending(ctx context.Context, page, pageSize int) (*PendingPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	db := s.DB.WithContext(ctx)
	var total int64
	if err := db.Model(&model.DocumentVerificationRequest{}).
		Where("status = ?", model.DocumentStatusPending).
		Count(&total).Error; err != nil {
		return nil, apperror.Unexpected("Failed to count verification requests", err)
	}

	reqs := []model.DocumentVerificationRequest{}
	if err := db.Where("status = ?", model.DocumentStatusPending).
		Order("created_at ASC").Order("id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&reqs).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch verification requests", err)
	}

	cards := make([]string, 0, len(reqs))
	businesses := make([]string, 0, len(reqs))
	for _, r := range reqs {
		cards = append(cards, r.CardNumber)
		businesses = append(businesses, r.RequestedBy)
	}

	withResume := map[string]bool{}
	if len(cards) > 0 {
		var found []string
		if err := db.Model(&model.MemberDocuments{}).
			Where("card_number IN ? AND COALESCE(resume, '') <> ''", cards).
			Pluck("card_number", &found).Error; err != nil {
			return nil, apperror.Unexpected("Failed to fetch documents", err)
		}
		for _, c := range found {
			withResume[c] = true
		}
	}
	names := identity.ResolveBusinesses(ctx, s.resolver, businesses, s.concurrency)

	out := &PendingPage{Page: page, PageSize: pageSize, Total: total, Items: make([]PendingRequestView, 0, len(reqs))}
	for _, r := range reqs {
		v := PendingRequestView{DocumentVerificationRequest: r, HasResume: withResume[r.CardNumber]}
		if b, ok := names[r.RequestedBy]; ok {
			v.BusinessName = nonEmpty(b.BusinessName)
		}
		out.Items = append(out.Items, v)
	}
	return out, nil
}

// ListForBusiness returns the requests a business opened, newest first.
func (s *VerificationService) ListForBusiness(ctx context.Context, businessID string) ([]model.DocumentVerificationRequest, error) {
	reqs := []model.DocumentVerificationRequest{}
	if err := s.DB.WithContext(ctx).Where("requested_by = ?", businessID).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch verification requests", err)
	}
	return reqs, nil
}

// MemberDetail lists, for every outstanding request of a member, each
// requested slot with the live document and the live status from the
// document store, pending when it has none.
func (s *VerificationService) MemberDetail(ctx context.Context, card string) ([]RequestDetail, error) {
	db := s.DB.WithContext(ctx)
	reqs := []model.DocumentVerificationRequest{}
	if err := db.Where("card_number = ? AND status IN ?", card,
		[]string{model.DocumentStatusPending, model.DocumentStatusProcessing}).
		Order("created_at ASC").Find(&reqs).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch verification requests", err)
	}

	var docs model.MemberDocuments
	if err := db.Where("card_number = ?", card).Limit(1).Find(&docs).Error; err != nil {
		return nil, apperror.Unexpected("Failed to fetch documents", err)
	}
	values := docs.Values()

	out := make([]RequestDetail, 0, len(reqs))
	for _, r := range reqs {
		d := RequestDetail{
			RequestID:   r.ID,
			RequestedBy: r.RequestedBy,
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
			Documents:   []DocumentDetail{},
		}
		for _, name := range r.Requests() {
			d.Documents = append(d.Documents, DocumentDetail{
				Document:    name,
				Value:       values[name],
				DisplayName: model.DisplayName(values[name]),
				Status:      docs.StatusOf(name),
			})
		}
		out = append(out, d)
	}
	return out, nil
}

// UpdateDocumentStatus records a staff decision on one document. The request
// snapshot and the member's document status are written in one transaction.
func (s *VerificationService) UpdateDocumentStatus(ctx context.Context, in UpdateDocumentInput) (*model.DocumentVerificationRequest, error) {
	if !model.IsDocumentStatus(in.Status) {
		return nil, apperror.Field("status", "must be one of pending, processing, verified, rejected")
	}
	slot, ok := model.LookupSlot(strings.TrimSpace(in.Document))
	if !ok {
		return nil, apperror.Field("document_name", "unknown document")
	}

	var req model.DocumentVerificationRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND card_number = ?", in.RequestID, in.CardNumber).
			First(&req).Error; err != nil {
			return notFoundOr(err, "Verification request %s not found for card %s", in.RequestID, in.CardNumber)
		}
		if _, requested := req.Documents[slot.Name]; !requested {
			return apperror.Field("document_name", slot.Name+" is not part of this request")
		}

		now := s.now().UTC()
		if err := tx.Exec(
			`UPDATE document_verification_requests
			 SET documents = documents || jsonb_build_object(CAST(? AS text), CAST(? AS text)), updated_at = ?
			 WHERE id = ?`,
			slot.Name, in.Status, now, req.ID,
		).Error; err != nil {
			return apperror.Unexpected("Failed to update verification request", err)
		}

		defaults, err := json.Marshal(model.PendingStatuses(model.AllSlotNames()))
		if err != nil {
			return apperror.Unexpected("Failed to encode document status", err)
		}
		if err := tx.Exec(
			`INSERT INTO member_documents (card_number, document_status, created_at, updated_at)
			 VALUES (?, CAST(? AS jsonb) || jsonb_build_object(CAST(? AS text), CAST(? AS text)), ?, ?)
			 ON CONFLICT (card_number) DO UPDATE SET
			 	document_status = COALESCE(member_documents.document_status, '{}'::jsonb) || jsonb_build_object(CAST(? AS text), CAST(? AS text)),
			 	updated_at = EXCLUDED.updated_at`,
			req.CardNumber, string(defaults), slot.Name, in.Status, now, now,
			slot.Name, in.Status,
		).Error; err != nil {
			return apperror.Unexpected("Failed to update document status", err)
		}

		if err := tx.First(&req, "id = ?", req.ID).Error; err != nil {
			return apperror.Unexpected("Failed to reload verification request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DocumentStatusUpdates.WithLabelValues(in.Status).Inc()
	return &req, nil
}

// UpdateRequestStatus sets the request-level status. It is never derived
// from the per-document statuses.
func (s *VerificationService) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) (*model.DocumentVerificationRequest, error) {
	if !model.IsDocumentStatus(status) {
		return nil, apperror.Field("status", "must be one of pending, processing, verified, rejected")
	}
	db := s.DB.WithContext(ctx)
	res := db.Model(&model.DocumentVerificationRequest{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": s.now().UTC()})
	if res.Error != nil {
		return nil, apperror.Unexpected("Failed to update verification request", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Verification request %s not found", id)
	}
	var req model.DocumentVerificationRequest
	if err := db.First(&req, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Verification request %s not found", id)
	}
	return &req, nil
}
