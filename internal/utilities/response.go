package utilities

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"JobCard-backend/internal/apperror"
)

// Respond writes a success envelope carrying data.
func Respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope with a message and optional data.
func RespondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindUpstream:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// RespondError aborts the request with the failure envelope for err.
// Unexpected errors are logged here and answered with a generic message.
func RespondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Unexpected("Internal server error", err)
	}

	message := appErr.Message
	if appErr.Kind == apperror.KindUnexpected {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		message = "Something went wrong, please try again later"
	}

	c.AbortWithStatusJSON(StatusOf(appErr.Kind), ErrorResponse{
		Success: false,
		Message: message,
		Errors:  appErr.Fields,
	})
}

// BindError converts a gin binding error into a field-level validation error.
func BindError(err error) *apperror.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("Invalid request body: "+err.Error(), nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return apperror.Validation("Invalid request body", fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "numeric":
		return "must contain digits only"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be an email address"
	case "url":
		return "must be a URL"
	}
	return "failed on " + fe.Tag()
}

var registerOnce sync.Once

// RegisterJSONTagNames makes validation errors report json field names
// instead of Go struct field names.
func RegisterJSONTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	})
}
