package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type RequestHandler struct {
	requests service.RequestService
}

func NewRequestHandler(requests service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

func (h *RequestHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	created, err := h.requests.Create(ctx, service.CreateRequestInput{
		RequestedBy: middleware.GetUser(ctx).ID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Reason:      req.Reason,
		Details:     req.Details,
	})
	if err != nil {
		writeError(c, err, "failed to create request")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRequestResponse(created))
}

func (h *RequestHandler) List(c *gin.Context) {
	var q dto.ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	var status *model.RequestStatus
	if q.Status != "" {
		s := model.RequestStatus(q.Status)
		status = &s
	}

	result, page, err := h.requests.List(c.Request.Context(), status, q.Page, q.Limit)
	if err != nil {
		writeError(c, err, "failed to list requests")
		return
	}
	c.JSON(http.StatusOK, dto.ToPageResponse(result, page, dto.ToRequestResponse))
}

func (h *RequestHandler) Diff(c *gin.Context) {
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}

	diff, err := h.requests.GetDiff(c.Request.Context(), requestID)
	if err != nil {
		writeError(c, err, "failed to build request diff")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestDiffResponse(diff))
}

func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req dto.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	updated, err := h.requests.UpdateStatus(ctx, service.UpdateRequestStatusInput{
		ReviewerID: middleware.GetUser(ctx).ID,
		RequestID:  requestID,
		Status:     req.Status,
		Response:   req.Response,
	})
	if err != nil {
		writeError(c, err, "failed to update request status")
		return
	}
	c.JSON(http.StatusOK, dto.ToRequestResponse(updated))
}

func (h *RequestHandler) Delete(c *gin.Context) {
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := middleware.GetUser(ctx)

	if err := h.requests.SoftDelete(ctx, me.ID, me.Role, requestID); err != nil {
		writeError(c, err, "failed to delete request")
		return
	}
	c.Status(http.StatusNoContent)
}
