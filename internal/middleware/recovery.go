package middleware

import (
	"net/http"
	"runtime/debug"

	"task-tracker/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func RecoveryWithLog(logger logrus.FieldLogger) gin.HandlerFunc {
	logger = logging.OrDiscard(logger)

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"panic":  r,
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"stack":  string(debug.Stack()),
				}).Error("Recovered from panic")

				abort(c, http.StatusInternalServerError, "Internal server error", "")
			}
		}()
		c.Next()
	}
}
