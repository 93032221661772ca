package middleware

import (
	"github.com/MallamTeja/Fintrack/internal/transport/httpdto"
	"github.com/MallamTeja/Fintrack/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler logs errors attached with c.Error and answers with a 500
// envelope when the handler did not write a response itself.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Error("request error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		if !c.Writer.Written() {
			c.JSON(500, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
		}
	}
}
