package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/utilities"
)

var multipartOverhead = int64(8 * 1024) // rough padding for boundaries and headers

// SizeLimit caps the request body at maxBodyBytes plus multipart overhead.
// Requests that announce a larger body are refused right away; bodies that
// turn out larger fail reading with *http.MaxBytesError.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	limit := maxBodyBytes + multipartOverhead
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
				Message: "Entity too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// IsTooLarge reports whether err comes from reading past the SizeLimit cap.
func IsTooLarge(err error) bool {
	var maxBytesError *http.MaxBytesError
	return errors.As(err, &maxBytesError)
}
