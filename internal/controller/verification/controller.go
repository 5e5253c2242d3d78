// Package verification provides HTTP handlers for document verification requests.
package verification

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/controller"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

const defaultPageSize = 20

// VerificationController handles document verification endpoints
type VerificationController struct {
	Verification *service.VerificationService
}

// NewVerificationController creates a new instance of VerificationController
func NewVerificationController(svc *service.Services) *VerificationController {
	return &VerificationController{Verification: svc.Verification}
}

type createRequest struct {
	CardNumber string       `json:"card_number" binding:"required"`
	Documents  documentList `json:"documents" binding:"required"`
}

// documentList accepts either a list of document names or a
// name -> status object, whose keys are taken. Every requested document
// starts as pending whatever status the object carries.
type documentList []string

func (d *documentList) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err == nil {
		*d = names
		return nil
	}
	var byName map[string]string
	if err := json.Unmarshal(b, &byName); err != nil {
		return errors.New("documents must be a list of names or an object keyed by name")
	}
	names = make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)
	*d = names
	return nil
}

type documentDecision struct {
	CardNumber   string `json:"card_number" binding:"required"`
	DocumentName string `json:"document_name" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utilities.RespondError(c, apperror.Field("id", "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		utilities.RespondError(c, apperror.Field(name, "must be an integer"))
		return 0, false
	}
	return v, true
}

// CreateRequest opens a verification request for some of a member's documents.
// @Summary Request document verification
// @Description Every requested document starts as pending
// @Tags Verification
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param request body createRequest true "Member card and document names, as a list or a name to status object"
// @Success 201 {object} model.DocumentVerificationRequest
// @Failure 400 {object} utilities.ErrorResponse "Invalid card number or unknown document"
// @Router /verification/requests [post]
func (vc *VerificationController) CreateRequest(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	var req createRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	created, err := vc.Verification.Create(c.Request.Context(), req.CardNumber, p.BusinessID, req.Documents)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusCreated, "Verification requested", created)
}

// MyRequests lists the requests the calling business opened.
// @Summary Own verification requests
// @Tags Verification
// @Produce json
// @Success 200 {array} model.DocumentVerificationRequest
// @Router /verification/requests/mine [get]
func (vc *VerificationController) MyRequests(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	reqs, err := vc.Verification.ListForBusiness(c.Request.Context(), p.BusinessID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, reqs)
}

// ListPending pages through pending requests, oldest first.
// @Summary Pending verification requests
// @Tags Verification
// @Produce json
// @Param page query integer false "Page, starting at 1"
// @Param page_size query integer false "Page size, at most 100"
// @Success 200 {object} service.PendingPage
// @Router /verification/requests [get]
func (vc *VerificationController) ListPending(c *gin.Context) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	size, ok := intQuery(c, "page_size", defaultPageSize)
	if !ok {
		return
	}
	out, err := vc.Verification.ListPending(c.Request.Context(), page, size)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, out)
}

// MemberDetail shows every outstanding request of a member with the live documents.
// @Summary Outstanding requests of a member
// @Tags Verification
// @Produce json
// @Param card path string true "Member card number"
// @Success 200 {array} service.RequestDetail
// @Failure 400 {object} utilities.ErrorResponse "Invalid card number"
// @Router /verification/members/{card} [get]
func (vc *VerificationController) MemberDetail(c *gin.Context) {
	card, err := model.ParseCardNumber(c.Param("card"))
	if err != nil {
		utilities.RespondError(c, apperror.Field("card", err.Error()))
		return
	}
	out, err := vc.Verification.MemberDetail(c.Request.Context(), card)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, out)
}

// UpdateDocumentStatus records a decision on one requested document.
// @Summary Decide on one document
// @Description Updates the request snapshot and the member's document status together
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param decision body documentDecision true "Document and status"
// @Success 200 {object} model.DocumentVerificationRequest
// @Failure 400 {object} utilities.ErrorResponse "Unknown status or document"
// @Failure 404 {object} utilities.ErrorResponse "Request not found"
// @Router /verification/requests/{id}/documents [patch]
func (vc *VerificationController) UpdateDocumentStatus(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req documentDecision
	if !controller.BindJSON(c, &req) {
		return
	}
	card, err := model.ParseCardNumber(req.CardNumber)
	if err != nil {
		utilities.RespondError(c, apperror.Field("card_number", err.Error()))
		return
	}

	updated, err := vc.Verification.UpdateDocumentStatus(c.Request.Context(), service.UpdateDocumentInput{
		RequestID:  id,
		CardNumber: card,
		Document:   req.DocumentName,
		Status:     strings.TrimSpace(req.Status),
	})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Document status updated", updated)
}

// UpdateRequestStatus sets the overall status of a request.
// @Summary Set request status
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param status body statusRequest true "New status"
// @Success 200 {object} model.DocumentVerificationRequest
// @Failure 404 {object} utilities.ErrorResponse "Request not found"
// @Router /verification/requests/{id}/status [patch]
func (vc *VerificationController) UpdateRequestStatus(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req statusRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	updated, err := vc.Verification.UpdateRequestStatus(c.Request.Context(), id, strings.TrimSpace(req.Status))
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Request status updated", updated)
}
