package server

import (
	"fmt"
	"net/http"
	"strconv"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage = 0
	defaultSize = 10
	maxPageSize = 100

	exportFilename = "tasks.csv"
)

func taskID(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidTaskID
	}
	return id, nil
}

// paging reads page and size query parameters. Sizes above maxPageSize are
// clamped.
func paging(ctx *gin.Context) (int, int, error) {
	page, size := defaultPage, defaultSize

	if raw := ctx.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.ErrInvalidPaging
		}
		page = p
	}
	if raw := ctx.Query("size"); raw != "" {
		s, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.ErrInvalidPaging
		}
		size = min(s, maxPageSize)
	}
	return page, size, nil
}

func taskPage(p models.Page[models.Task]) models.Page[models.TaskResponse] {
	return models.NewPage(models.NewTaskResponses(p.Content), p.Page, p.Size, p.TotalElements)
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	var req models.TaskRequest
	if !api.bind(ctx, &req) {
		return
	}

	task, err := api.tasks.Create(ctx.Request.Context(), currentUser(ctx).ID, req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, models.NewTaskResponse(task))
}

func (api *TaskAPI) getTask(ctx *gin.Context) {
	id, err := taskID(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	task, err := api.tasks.Get(ctx.Request.Context(), currentUser(ctx).ID, id)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.NewTaskResponse(task))
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	id, err := taskID(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	var req models.TaskRequest
	if !api.bind(ctx, &req) {
		return
	}

	task, err := api.tasks.Update(ctx.Request.Context(), currentUser(ctx).ID, id, req)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.NewTaskResponse(task))
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	id, err := taskID(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	if err := api.tasks.Delete(ctx.Request.Context(), currentUser(ctx).ID, id); err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (api *TaskAPI) listTasks(ctx *gin.Context) {
	page, size, err := paging(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	result, err := api.tasks.List(ctx.Request.Context(), currentUser(ctx).ID, page, size)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskPage(result))
}

func (api *TaskAPI) searchTasks(ctx *gin.Context) {
	page, size, err := paging(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	query, ok := ctx.GetQuery("query")
	if !ok {
		api.respondError(ctx, fmt.Errorf("%w: query parameter is required", errors.ErrBadRequest))
		return
	}

	result, err := api.tasks.Search(ctx.Request.Context(), currentUser(ctx).ID, query, page, size)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskPage(result))
}

func (api *TaskAPI) filterByPriority(ctx *gin.Context) {
	page, size, err := paging(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	priority := models.Priority(ctx.Param("priority"))
	result, err := api.tasks.FilterByPriority(ctx.Request.Context(), currentUser(ctx).ID, priority, page, size)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskPage(result))
}

func (api *TaskAPI) filterByStatus(ctx *gin.Context) {
	page, size, err := paging(ctx)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	status := models.Status(ctx.Param("status"))
	result, err := api.tasks.FilterByStatus(ctx.Request.Context(), currentUser(ctx).ID, status, page, size)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskPage(result))
}

func (api *TaskAPI) tasksByDate(ctx *gin.Context) {
	date, err := models.ParseDate(ctx.Param("date"))
	if err != nil {
		api.respondError(ctx, errors.ErrInvalidDate)
		return
	}

	tasks, err := api.tasks.ByDate(ctx.Request.Context(), currentUser(ctx).ID, date)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.NewTaskResponses(tasks))
}

func (api *TaskAPI) taskStats(ctx *gin.Context) {
	stats, err := api.tasks.Stats(ctx.Request.Context(), currentUser(ctx).ID)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (api *TaskAPI) exportTasks(ctx *gin.Context) {
	body, err := api.tasks.ExportCSV(ctx.Request.Context(), currentUser(ctx).ID)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", "attachment; filename="+exportFilename)
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

func (api *TaskAPI) archiveTasks(ctx *gin.Context) {
	resp, err := api.tasks.ArchiveExport(ctx.Request.Context(), currentUser(ctx).ID)
	if err != nil {
		api.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, resp)
}
