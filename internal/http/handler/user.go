package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToUserResponse(middleware.GetUser(c.Request.Context())))
}

func (h *UserHandler) UpdatePreference(c *gin.Context) {
	ctx := c.Request.Context()
	me := middleware.GetUser(ctx)

	var req dto.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.UpdatePreference(ctx, me.ID, model.Preference{
		Language:           req.Language,
		Domain:             req.Domain,
		EmailNotifications: req.EmailNotifications,
	})
	if err != nil {
		writeError(c, err, "failed to update preference")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) ListExperts(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.ListExpertsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	experts, err := h.users.ListExperts(ctx, q.IncludeBlocked)
	if err != nil {
		writeError(c, err, "failed to list experts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.ToUserList(experts)})
}

func (h *UserHandler) SetBlocked(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.SetBlocked(ctx, service.SetBlockedInput{
		ActorID: middleware.GetUser(ctx).ID,
		UserID:  userID,
		Blocked: *req.Blocked,
		Until:   req.Until,
	})
	if err != nil {
		writeError(c, err, "failed to update block status")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) SetRole(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.SetRole(ctx, middleware.GetUser(ctx).ID, userID, req.Role)
	if err != nil {
		writeError(c, err, "failed to update role")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
