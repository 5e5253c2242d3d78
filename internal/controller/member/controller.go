// Package member provides the member lookup handler.
package member

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

// MemberController handles member lookup
type MemberController struct {
	Members *service.MemberService
}

// NewMemberController creates a new instance of MemberController
func NewMemberController(svc *service.Services) *MemberController {
	return &MemberController{Members: svc.Members}
}

// Lookup resolves a card or mobile number to a member profile.
// @Summary Look up a member
// @Description A card lookup still answers when the directory is down, with empty identity fields. A mobile lookup cannot
// @Tags Member
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param handle query string true "16-digit card number or 10-digit mobile number"
// @Success 200 {object} service.MemberProfile
// @Failure 400 {object} utilities.ErrorResponse "Handle is neither a card nor a mobile number"
// @Failure 401 {object} utilities.ErrorResponse "Directory unavailable for a mobile lookup"
// @Failure 404 {object} utilities.ErrorResponse "Member not found"
// @Router /member/lookup [get]
func (mc *MemberController) Lookup(c *gin.Context) {
	handle, err := model.ParseMemberHandle(c.Query("handle"))
	if err != nil {
		utilities.RespondError(c, apperror.Field("handle", err.Error()))
		return
	}
	profile, err := mc.Members.Lookup(c.Request.Context(), handle)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.Respond(c, http.StatusOK, profile)
}
