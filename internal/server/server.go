package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/rs/zerolog"
)

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*models.LoginResponse, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, req models.ProfileUpdateRequest) (*models.User, error)
	DeleteAccount(ctx context.Context, id int64) error
}

type TaskService interface {
	Create(ctx context.Context, callerID int64, req models.TaskRequest) (*models.Task, error)
	Get(ctx context.Context, callerID, id int64) (*models.Task, error)
	Update(ctx context.Context, callerID, id int64, req models.TaskRequest) (*models.Task, error)
	Delete(ctx context.Context, callerID, id int64) error
	List(ctx context.Context, callerID int64, page, size int) (models.Page[models.Task], error)
	Search(ctx context.Context, callerID int64, query string, page, size int) (models.Page[models.Task], error)
	FilterByPriority(ctx context.Context, callerID int64, priority models.Priority, page, size int) (models.Page[models.Task], error)
	FilterByStatus(ctx context.Context, callerID int64, status models.Status, page, size int) (models.Page[models.Task], error)
	ByDate(ctx context.Context, callerID int64, date models.Date) ([]models.Task, error)
	Stats(ctx context.Context, callerID int64) (models.TaskStats, error)
	ExportCSV(ctx context.Context, callerID int64) ([]byte, error)
	ArchiveExport(ctx context.Context, callerID int64) (*models.ArchiveResponse, error)
}

type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

type TaskAPI struct {
	httpSrv  *http.Server
	auth     AuthService
	tasks    TaskService
	tokens   TokenParser
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewTaskAPI(authSvc AuthService, tasks TaskService, tokens TokenParser, cfg *Config, logger zerolog.Logger) *TaskAPI {
	if authSvc == nil || tasks == nil || tokens == nil {
		return nil
	}
	if cfg == nil {
		cfg = &Config{}
	}

	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	api := &TaskAPI{
		httpSrv: &http.Server{
			Addr:              net.JoinHostPort(addr, strconv.Itoa(port)),
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
		auth:     authSvc,
		tasks:    tasks,
		tokens:   tokens,
		validate: newValidator(),
		logger:   logger.With().Str("component", "http").Logger(),
	}
	api.configRoutes(cfg.Env)

	return api
}

func (api *TaskAPI) Addr() string {
	return api.httpSrv.Addr
}

func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}

	api.logger.Info().Str("addr", api.httpSrv.Addr).Msg("http server listening")
	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	return api.httpSrv.Shutdown(ctx)
}

func (api *TaskAPI) configRoutes(env string) {
	if env != EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(api.requestLogger(), gin.Recovery(), GzipRequestDecompress())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	})

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", api.register)
		authGroup.POST("/login", api.login)
	}

	tasks := router.Group("/api/tasks", api.authMiddleware())
	{
		tasks.POST("", api.createTask)
		tasks.GET("", api.listTasks)
		tasks.GET("/search", api.searchTasks)
		tasks.GET("/filter/priority/:priority", api.filterByPriority)
		tasks.GET("/filter/status/:status", api.filterByStatus)
		tasks.GET("/date/:date", api.tasksByDate)
		tasks.GET("/stats", api.taskStats)
		tasks.GET("/export", GzipResponseCompress(0), api.exportTasks)
		tasks.POST("/export/archive", api.archiveTasks)
		tasks.GET("/:id", api.getTask)
		tasks.PUT("/:id", api.updateTask)
		tasks.DELETE("/:id", api.deleteTask)
	}

	user := router.Group("/api/user", api.authMiddleware())
	{
		user.GET("/profile", api.getProfile)
		user.PUT("/profile", api.updateProfile)
		user.DELETE("/profile", api.deleteProfile)
	}

	api.httpSrv.Handler = router
}
