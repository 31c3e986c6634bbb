package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/jobs"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type PerformanceHandler struct {
	performance service.PerformanceService
}

func NewPerformanceHandler(performance service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performance: performance}
}

// ExpertStats is open to admins and to the expert themself.
func (h *PerformanceHandler) ExpertStats(c *gin.Context) {
	expertID, ok := pathID(c, "expertId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := middleware.GetUser(ctx)
	if me.Role != model.RoleAdmin && me.ID != expertID {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}

	stats, err := h.performance.ExpertStats(ctx, expertID)
	if err != nil {
		writeError(c, err, "failed to load expert stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PerformanceHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.performance.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

type WorkloadHandler struct {
	workload service.WorkloadService
}

func NewWorkloadHandler(workload service.WorkloadService) *WorkloadHandler {
	return &WorkloadHandler{workload: workload}
}

func (h *WorkloadHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()
	me := middleware.GetUser(ctx)

	run, err := h.workload.Balance(ctx, &me.ID)
	if err != nil {
		writeError(c, err, "failed to dispatch balance run")
		return
	}
	c.JSON(http.StatusAccepted, dto.ToBalanceRunResponse(run))
}

func (h *WorkloadHandler) GetRun(c *gin.Context) {
	runID, ok := pathID(c, "runId")
	if !ok {
		return
	}

	run, err := h.workload.GetRun(c.Request.Context(), runID)
	if err != nil {
		writeError(c, err, "failed to load balance run")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceRunResponse(run))
}

type TranslationHandler struct {
	translation service.TranslationService
}

func NewTranslationHandler(translation service.TranslationService) *TranslationHandler {
	return &TranslationHandler{translation: translation}
}

func (h *TranslationHandler) Translate(c *gin.Context) {
	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	t, err := h.translation.Translate(c.Request.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		writeError(c, err, "failed to translate")
		return
	}
	c.JSON(http.StatusOK, dto.TranslateResponse{
		Text:           t.Text,
		SourceLanguage: t.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
}

// JobRunner runs a background job by name.
type JobRunner interface {
	Run(ctx context.Context, name string) error
}

type JobHandler struct {
	runner JobRunner
}

func NewJobHandler(runner JobRunner) *JobHandler {
	return &JobHandler{runner: runner}
}

// Run executes the job synchronously so the caller sees its outcome.
func (h *JobHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("job")

	if err := h.runner.Run(ctx, name); err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "manual job run failed", "error", err, "job", name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job failed", "job": name})
		return
	}

	slog.InfoContext(ctx, "job triggered manually", "job", name)
	c.JSON(http.StatusOK, gin.H{"job": name, "status": "completed"})
}
