package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/auth"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/handler"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type RouterConfig struct {
	Prefix      string
	AdminAPIKey string
	Verifier    auth.TokenVerifier
	// Jobs is optional; without it the manual trigger route is not mounted.
	Jobs handler.JobRunner
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Jobs != nil {
		JobRouter(router.Group("/internal/jobs", middleware.RequireAdminAPIKey(cfg.AdminAPIKey)), handler.NewJobHandler(cfg.Jobs))
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := router.Group(prefix, middleware.RequireAuth(cfg.Verifier, services.Auth()))
	{
		UserRouter(api.Group("/users"), handler.NewUserHandler(services.Users()))
		ContextRouter(api.Group("/contexts"), handler.NewContextHandler(services.Contexts()))
		QuestionRouter(api.Group("/questions"), handler.NewQuestionHandler(services.Questions(), services.Answers()))
		AnswerRouter(api.Group("/answers"), handler.NewAnswerHandler(services.Answers()))
		ReRouteRouter(api.Group("/reroutes"), handler.NewReRouteHandler(services.ReRoutes()))
		CommentRouter(api.Group("/comments"), handler.NewCommentHandler(services.Comments()))
		RequestRouter(api.Group("/requests"), handler.NewRequestHandler(services.Requests()))
		NotificationRouter(api.Group("/notifications"), handler.NewNotificationHandler(services.Notifications()))
		PerformanceRouter(api.Group("/performance"), handler.NewPerformanceHandler(services.Performance()))
		WorkloadRouter(api.Group("/workload"), handler.NewWorkloadHandler(services.Workload()))

		translation := handler.NewTranslationHandler(services.Translation())
		api.POST("/translate", translation.Translate)
	}
}

var (
	adminOnly       = middleware.RequireRole(model.RoleAdmin)
	expertsAndAdmin = middleware.RequireRole(model.RoleExpert, model.RoleAdmin)
)
