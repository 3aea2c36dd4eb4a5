package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/DeH-M/MachTrueke/pkg/errors"
)

// ErrorHandler translates errors attached to the gin context into a
// JSON response with the status from the error taxonomy.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			c.JSON(errors.HTTPStatusFromError(err.Err), gin.H{
				"error": err.Error(),
			})
		}
	}
}
