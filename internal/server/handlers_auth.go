package server

import (
	"net/http"

	"taskmanager/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if !api.bind(ctx, &req) {
		return
	}

	if _, err := api.auth.Register(ctx.Request.Context(), req); err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.String(http.StatusCreated, "User registered successfully")
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if !api.bind(ctx, &req) {
		return
	}

	resp, err := api.auth.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (api *TaskAPI) getProfile(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.NewProfileResponse(currentUser(ctx)))
}

func (api *TaskAPI) updateProfile(ctx *gin.Context) {
	var req models.ProfileUpdateRequest
	if !api.bind(ctx, &req) {
		return
	}

	user, err := api.auth.UpdateProfile(ctx.Request.Context(), currentUser(ctx).ID, req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.NewProfileResponse(user))
}

func (api *TaskAPI) deleteProfile(ctx *gin.Context) {
	if err := api.auth.DeleteAccount(ctx.Request.Context(), currentUser(ctx).ID); err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
