package router

import (
	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/handler"
)

func QuestionRouter(rg *gin.RouterGroup, h *handler.QuestionHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/search", h.Search)
	rg.GET("/:questionId", h.Get)
	rg.GET("/:questionId/answers", h.ListAnswers)
}

func AnswerRouter(rg *gin.RouterGroup, h *handler.AnswerHandler) {
	rg.POST("", expertsAndAdmin, h.Add)
	rg.PUT("/:answerId/review", expertsAndAdmin, h.Review)
	rg.POST("/:answerId/reroute", adminOnly, h.ReRoute)
	rg.DELETE("/:answerId", adminOnly, h.Delete)
}

func ReRouteRouter(rg *gin.RouterGroup, h *handler.ReRouteHandler) {
	rg.POST("", adminOnly, h.Assign)
	rg.PATCH("/:questionId/reject", expertsAndAdmin, h.Reject)
	rg.GET("/:questionId", h.History)
}

func CommentRouter(rg *gin.RouterGroup, h *handler.CommentHandler) {
	rg.GET("/question/:questionId/answer/:answerId", h.List)
	rg.POST("/question/:questionId/answer/:answerId", h.Add)
}

func RequestRouter(rg *gin.RouterGroup, h *handler.RequestHandler) {
	rg.POST("", h.Create)
	rg.GET("", adminOnly, h.List)
	rg.GET("/:requestId/diff", adminOnly, h.Diff)
	rg.PATCH("/:requestId/status", adminOnly, h.UpdateStatus)
	// Owners delete their own; the service enforces it.
	rg.DELETE("/:requestId", h.Delete)
}

func NotificationRouter(rg *gin.RouterGroup, h *handler.NotificationHandler) {
	rg.GET("", h.List)
	rg.PATCH("/read-all", h.MarkAllAsRead)
	rg.PATCH("/:notificationId/read", h.MarkAsRead)
	rg.DELETE("/:notificationId", h.Delete)
	rg.POST("/subscription", h.SaveSubscription)
}
