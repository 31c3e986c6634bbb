package router

import (
	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/handler"
)

func UserRouter(rg *gin.RouterGroup, h *handler.UserHandler) {
	rg.GET("/me", h.Me)
	rg.PATCH("/me/preference", h.UpdatePreference)

	rg.GET("/experts", adminOnly, h.ListExperts)
	rg.PATCH("/:userId/block", adminOnly, h.SetBlocked)
	rg.PATCH("/:userId/role", adminOnly, h.SetRole)
}

func ContextRouter(rg *gin.RouterGroup, h *handler.ContextHandler) {
	rg.POST("", h.Create)
	rg.GET("/:contextId", h.Get)
}

func PerformanceRouter(rg *gin.RouterGroup, h *handler.PerformanceHandler) {
	// Self access is checked in the handler.
	rg.GET("/experts/:expertId", h.ExpertStats)
	rg.GET("/dashboard", adminOnly, h.Dashboard)
}

func WorkloadRouter(rg *gin.RouterGroup, h *handler.WorkloadHandler) {
	rg.Use(adminOnly)
	rg.POST("/balance", h.Balance)
	rg.GET("/runs/:runId", h.GetRun)
}

func JobRouter(rg *gin.RouterGroup, h *handler.JobHandler) {
	rg.POST("/:job/run", h.Run)
}
