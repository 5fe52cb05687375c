package handlers

import (
	"errors"
	"net/http"

	"task-tracker/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"statusCode"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, APIResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		StatusCode: status,
	})
}

func respondFailure(c *gin.Context, status int, message, detail string) {
	c.JSON(status, APIResponse{
		Success:    false,
		Message:    message,
		Error:      detail,
		StatusCode: status,
	})
}

// failureMessages are the per-endpoint texts for each error kind.
type failureMessages struct {
	notFound  string
	forbidden string
	internal  string
}

func respondError(c *gin.Context, logger logrus.FieldLogger, err error, msgs failureMessages) {
	var verr *apperrors.ValidationError

	switch {
	case errors.As(err, &verr):
		respondFailure(c, http.StatusUnprocessableEntity, verr.Error(), "Validation failed")
	case errors.Is(err, apperrors.ErrValidation):
		respondFailure(c, http.StatusUnprocessableEntity, err.Error(), "Validation failed")
	case errors.Is(err, apperrors.ErrUnauthenticated):
		respondFailure(c, http.StatusUnauthorized, "User not authenticated", "")
	case errors.Is(err, apperrors.ErrForbidden):
		respondFailure(c, http.StatusForbidden, msgs.forbidden, "")
	case errors.Is(err, apperrors.ErrNotFound):
		respondFailure(c, http.StatusNotFound, msgs.notFound, "")
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error(msgs.internal)
		respondFailure(c, http.StatusInternalServerError, msgs.internal, "")
	}
}

func respondBadBody(c *gin.Context, err error) {
	respondFailure(c, http.StatusBadRequest, "Invalid request body", err.Error())
}

// pathID parses the :id parameter. A malformed id can never match a row, so
// callers answer it with 404.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
