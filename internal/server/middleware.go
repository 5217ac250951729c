package server

import (
	stdErrors "errors"
	"net/http"
	"strings"
	"time"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
	currentUserKey      = "current_user"
)

// authMiddleware resolves the bearer token to a stored user. Any failure is a
// 401; the user is then available through currentUser.
func (api *TaskAPI) authMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		parts := strings.SplitN(ctx.GetHeader(authorizationHeader), " ", 2)
		if len(parts) != 2 || parts[0] != bearerPrefix || strings.TrimSpace(parts[1]) == "" {
			api.respondError(ctx, errors.ErrUnauthorized)
			return
		}

		claims, err := api.tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			api.logger.Debug().Err(err).Msg("rejected bearer token")
			api.respondError(ctx, errors.ErrUnauthorized)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			api.respondError(ctx, errors.ErrUnauthorized)
			return
		}

		user, err := api.auth.UserByID(ctx.Request.Context(), userID)
		if err != nil {
			if stdErrors.Is(err, errors.ErrUserNotFound) {
				api.respondError(ctx, errors.ErrUnauthorized)
				return
			}
			api.respondError(ctx, err)
			return
		}

		ctx.Set(currentUserKey, user)
		ctx.Next()
	}
}

func currentUser(ctx *gin.Context) *models.User {
	user, _ := ctx.MustGet(currentUserKey).(*models.User)
	return user
}

func (api *TaskAPI) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		event := api.logger.Info()
		if status >= http.StatusInternalServerError {
			event = api.logger.Error()
		} else if status >= http.StatusBadRequest {
			event = api.logger.Warn()
		}
		event.
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("request handled")
	}
}
