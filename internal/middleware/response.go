package middleware

import "github.com/gin-gonic/gin"

// abort writes the same failure envelope the handlers use.
func abort(c *gin.Context, status int, message, detail string) {
	body := gin.H{
		"success":    false,
		"message":    message,
		"statusCode": status,
	}
	if detail != "" {
		body["error"] = detail
	}
	c.AbortWithStatusJSON(status, body)
}
