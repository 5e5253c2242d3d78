// Package controller holds what the HTTP handlers of every area share:
// caller identification, path parameters and request binding.
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/auth"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

// Principal returns the caller or answers 401.
func Principal(c *gin.Context) (auth.Principal, bool) {
	p, err := utilities.ExtractPrincipal(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{Message: err.Error()})
		return auth.Principal{}, false
	}
	return p, true
}

// MemberCard returns the card number of a member caller, resolving a
// mobile-number handle through the directory. Any failure is a 401.
func MemberCard(c *gin.Context, members *service.MemberService) (string, bool) {
	p, ok := Principal(c)
	if !ok {
		return "", false
	}
	handle, err := p.Handle()
	if err != nil {
		utilities.RespondError(c, apperror.Upstream("Token does not carry a member card or mobile number", err))
		return "", false
	}
	card, err := members.CardFor(c.Request.Context(), handle)
	if err != nil {
		utilities.RespondError(c, err)
		return "", false
	}
	return card, true
}

// UintParam parses a numeric path parameter or answers 400.
func UintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		utilities.RespondError(c, apperror.Field(name, "must be a positive integer"))
		return 0, false
	}
	return uint(v), true
}

// UintQuery parses an optional numeric query parameter; absent is zero.
func UintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utilities.RespondError(c, apperror.Field(name, "must be a positive integer"))
		return 0, false
	}
	return uint(v), true
}

// BindJSON binds the request body into obj or answers 400 with field detail.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		utilities.RespondError(c, utilities.BindError(err))
		return false
	}
	return true
}

// ResolveMember turns a card or mobile number given by a third party into a
// card number. Unlike MemberCard, an unknown mobile is a 404.
func ResolveMember(c *gin.Context, members *service.MemberService, field, raw string) (string, bool) {
	handle, err := model.ParseMemberHandle(raw)
	if err != nil {
		utilities.RespondError(c, apperror.Field(field, err.Error()))
		return "", false
	}
	if handle.Kind == model.HandleCard {
		return handle.CardNumber(), true
	}
	profile, err := members.Lookup(c.Request.Context(), handle)
	if err != nil {
		utilities.RespondError(c, err)
		return "", false
	}
	return profile.CardNumber, true
}
