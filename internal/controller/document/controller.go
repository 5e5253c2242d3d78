// Package document provides HTTP handlers for a member's own document store.
package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/controller"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

// DocumentController handles member document endpoints
type DocumentController struct {
	Documents *service.DocumentService
	Members   *service.MemberService
}

// NewDocumentController creates a new instance of DocumentController
func NewDocumentController(svc *service.Services) *DocumentController {
	return &DocumentController{Documents: svc.Documents, Members: svc.Members}
}

// GetDocuments returns the caller's documents with their verification status.
// @Summary Get own documents
// @Description Returns an empty object when nothing was uploaded yet
// @Tags Document
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.MemberDocuments
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Router /member/documents [get]
func (dc *DocumentController) GetDocuments(c *gin.Context) {
	card, ok := controller.MemberCard(c, dc.Members)
	if !ok {
		return
	}
	docs, err := dc.Documents.Get(c.Request.Context(), card)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	if docs == nil {
		utilities.Respond(c, http.StatusOK, gin.H{})
		return
	}
	utilities.Respond(c, http.StatusOK, docs)
}

// UpsertDocuments merges document references into the caller's store.
// @Summary Save document references
// @Description Keys are slot names or field names. A non-empty value replaces the stored one and sets it back to pending; empty values are ignored
// @Tags Document
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param documents body map[string]string true "Slot to reference"
// @Success 200 {object} model.MemberDocuments
// @Failure 400 {object} utilities.ErrorResponse "Unknown document slot"
// @Router /member/documents [post]
func (dc *DocumentController) UpsertDocuments(c *gin.Context) {
	card, ok := controller.MemberCard(c, dc.Members)
	if !ok {
		return
	}
	uploads := map[string]string{}
	if !controller.BindJSON(c, &uploads) {
		return
	}

	docs, err := dc.Documents.Upsert(c.Request.Context(), card, uploads)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Documents saved", docs)
}
