package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type AnswerHandler struct {
	answers service.AnswerService
}

func NewAnswerHandler(answers service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

func (h *AnswerHandler) Add(c *gin.Context) {
	ctx := c.Request.Context()
	me := middleware.GetUser(ctx)

	var req dto.AddAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{QuestionID: &req.QuestionID})

	answer, err := h.answers.Add(ctx, service.AddAnswerInput{
		AuthorID:   me.ID,
		AuthorRole: me.Role,
		QuestionID: req.QuestionID,
		Text:       req.Text,
		Sources:    req.Sources,
		IsFinal:    req.IsFinal,
	})
	if err != nil {
		writeError(c, err, "failed to add answer")
		return
	}
	c.JSON(http.StatusCreated, dto.ToAnswerResponse(answer))
}

func (h *AnswerHandler) Review(c *gin.Context) {
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{AnswerID: &answerID})
	me := middleware.GetUser(ctx)

	var req dto.ReviewAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	answer, err := h.answers.Review(ctx, service.ReviewAnswerInput{
		ReviewerID:   me.ID,
		ReviewerRole: me.Role,
		AnswerID:     answerID,
		Action:       req.Action,
		Remarks:      req.Remarks,
	})
	if err != nil {
		writeError(c, err, "failed to review answer")
		return
	}
	c.JSON(http.StatusOK, dto.ToAnswerResponse(answer))
}

func (h *AnswerHandler) ReRoute(c *gin.Context) {
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{AnswerID: &answerID})

	var req dto.ReRouteAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	entry, err := h.answers.ReRouteReview(ctx, service.ReRouteReviewInput{
		ModeratorID: middleware.GetUser(ctx).ID,
		AnswerID:    answerID,
		ExpertID:    req.ExpertID,
		Comment:     req.Comment,
	})
	if err != nil {
		writeError(c, err, "failed to re-route answer")
		return
	}
	c.JSON(http.StatusOK, dto.ToReRouteResponse(entry))
}

func (h *AnswerHandler) Delete(c *gin.Context) {
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{AnswerID: &answerID})

	if err := h.answers.Delete(ctx, answerID); err != nil {
		writeError(c, err, "failed to delete answer")
		return
	}
	c.Status(http.StatusNoContent)
}

type CommentHandler struct {
	comments service.CommentService
}

func NewCommentHandler(comments service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	result, page, err := h.comments.GetComments(c.Request.Context(), questionID, answerID, q.Page, q.Limit)
	if err != nil {
		writeError(c, err, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, dto.ToPageResponse(result, page, dto.ToCommentResponse))
}

func (h *CommentHandler) Add(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	comment, err := h.comments.AddComment(ctx, service.AddCommentInput{
		AuthorID:   middleware.GetUser(ctx).ID,
		QuestionID: questionID,
		AnswerID:   answerID,
		Text:       req.Text,
	})
	if err != nil {
		writeError(c, err, "failed to add comment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentResponse(comment))
}
