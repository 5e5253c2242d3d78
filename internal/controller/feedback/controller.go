// Package feedback provides HTTP handlers for HR feedback on members.
package feedback

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/controller"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

// FeedbackController handles HR feedback endpoints
type FeedbackController struct {
	Feedback *service.FeedbackService
}

// NewFeedbackController creates a new instance of FeedbackController
func NewFeedbackController(svc *service.Services) *FeedbackController {
	return &FeedbackController{Feedback: svc.Feedback}
}

type feedbackRequest struct {
	CardNumber string `json:"card_number" binding:"required"`
	Feedback   string `json:"feedback" binding:"required"`
}

// AddFeedback appends feedback about a member from the calling business.
// @Summary Leave feedback on a member
// @Tags Feedback
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param feedback body feedbackRequest true "Member card and feedback"
// @Success 201 {array} model.FeedbackEntry "Every feedback entry of the member"
// @Failure 400 {object} utilities.ErrorResponse "Invalid card number or empty feedback"
// @Router /feedback [post]
func (fc *FeedbackController) AddFeedback(c *gin.Context) {
	p, ok := controller.Principal(c)
	if !ok {
		return
	}
	var req feedbackRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	entries, err := fc.Feedback.Add(c.Request.Context(), req.CardNumber, p.BusinessID, req.Feedback)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusCreated, "Feedback saved", entries)
}

// GetFeedback returns every feedback entry of a member, oldest first.
// @Summary Feedback on a member
// @Tags Feedback
// @Produce json
// @Param card path string true "Member card number"
// @Success 200 {array} model.FeedbackEntry
// @Router /feedback/{card} [get]
func (fc *FeedbackController) GetFeedback(c *gin.Context) {
	card, err := model.ParseCardNumber(c.Param("card"))
	if err != nil {
		utilities.RespondError(c, apperror.Field("card", err.Error()))
		return
	}
	entries, err := fc.Feedback.Get(c.Request.Context(), card)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, entries)
}
