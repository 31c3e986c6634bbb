package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type ReRouteHandler struct {
	reroutes service.ReRouteService
}

func NewReRouteHandler(reroutes service.ReRouteService) *ReRouteHandler {
	return &ReRouteHandler{reroutes: reroutes}
}

func (h *ReRouteHandler) Assign(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AssignReRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	entry, err := h.reroutes.Assign(ctx, service.AssignReRouteInput{
		ModeratorID: middleware.GetUser(ctx).ID,
		QuestionID:  req.QuestionID,
		AnswerID:    req.AnswerID,
		ExpertID:    req.ExpertID,
		Comment:     req.Comment,
	})
	if err != nil {
		writeError(c, err, "failed to re-route question")
		return
	}
	c.JSON(http.StatusCreated, dto.ToReRouteResponse(entry))
}

func (h *ReRouteHandler) Reject(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := middleware.GetUser(ctx)

	var req dto.RejectReRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	entry, err := h.reroutes.Reject(ctx, service.RejectReRouteInput{
		ActorID:    me.ID,
		ActorRole:  me.Role,
		QuestionID: questionID,
		Reason:     req.Reason,
	})
	if err != nil {
		writeError(c, err, "failed to reject re-route")
		return
	}
	c.JSON(http.StatusOK, dto.ToReRouteResponse(entry))
}

func (h *ReRouteHandler) History(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}

	history, err := h.reroutes.History(c.Request.Context(), questionID)
	if err != nil {
		writeError(c, err, "failed to load re-route history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.ToReRouteList(history)})
}
