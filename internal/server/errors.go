package server

import (
	stdErrors "errors"
	"net/http"

	"taskmanager/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Unknown errors are
// logged and reported as a generic 500.
func (api *TaskAPI) respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := errors.ErrInternalServer.Error()

	switch {
	case stdErrors.Is(err, errors.ErrUserAlreadyExists),
		stdErrors.Is(err, errors.ErrValidationFailed),
		stdErrors.Is(err, errors.ErrBadRequest),
		stdErrors.Is(err, errors.ErrInvalidTaskID),
		stdErrors.Is(err, errors.ErrInvalidPriority),
		stdErrors.Is(err, errors.ErrInvalidStatus),
		stdErrors.Is(err, errors.ErrInvalidDate),
		stdErrors.Is(err, errors.ErrInvalidPaging):
		status, message = http.StatusBadRequest, err.Error()
	case stdErrors.Is(err, errors.ErrTaskNotFound),
		stdErrors.Is(err, errors.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case stdErrors.Is(err, errors.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case stdErrors.Is(err, errors.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case stdErrors.Is(err, errors.ErrUnauthorized),
		stdErrors.Is(err, errors.ErrInvalidToken):
		status, message = http.StatusUnauthorized, errors.ErrUnauthorized.Error()
	case stdErrors.Is(err, errors.ErrArchiveDisabled):
		status, message = http.StatusServiceUnavailable, err.Error()
	default:
		api.logger.Error().Err(err).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Msg("request failed")
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": message})
}
