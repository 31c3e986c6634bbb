package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/dto"
	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

type QuestionHandler struct {
	questions service.QuestionService
	answers   service.AnswerService
}

func NewQuestionHandler(questions service.QuestionService, answers service.AnswerService) *QuestionHandler {
	return &QuestionHandler{questions: questions, answers: answers}
}

func (h *QuestionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	q, err := h.questions.Create(ctx, service.CreateQuestionInput{
		AuthorID:  middleware.GetUser(ctx).ID,
		Text:      req.Text,
		Details:   req.Details,
		ContextID: req.ContextID,
		Priority:  req.Priority,
	})
	if err != nil {
		writeError(c, err, "failed to create question")
		return
	}
	c.JSON(http.StatusCreated, dto.ToQuestionResponse(q))
}

func (h *QuestionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.ListQuestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	var filter model.QuestionFilter
	if q.Status != "" {
		status := model.QuestionStatus(q.Status)
		filter.Status = &status
	}

	result, page, err := h.questions.List(ctx, filter, q.Page, q.Limit)
	if err != nil {
		writeError(c, err, "failed to list questions")
		return
	}
	c.JSON(http.StatusOK, dto.ToPageResponse(result, page, dto.ToQuestionResponse))
}

func (h *QuestionHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.SearchQuestionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	found, err := h.questions.Search(ctx, q.Q, q.Limit)
	if err != nil {
		writeError(c, err, "failed to search questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.ToQuestionList(found)})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{QuestionID: &questionID})

	q, err := h.questions.Get(ctx, questionID)
	if err != nil {
		writeError(c, err, "failed to load question")
		return
	}
	c.JSON(http.StatusOK, dto.ToQuestionResponse(q))
}

func (h *QuestionHandler) ListAnswers(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		return
	}
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{QuestionID: &questionID})

	answers, err := h.answers.ListByQuestion(ctx, questionID)
	if err != nil {
		writeError(c, err, "failed to list answers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dto.ToAnswerList(answers)})
}

type ContextHandler struct {
	contexts service.ContextService
}

func NewContextHandler(contexts service.ContextService) *ContextHandler {
	return &ContextHandler{contexts: contexts}
}

func (h *ContextHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	created, err := h.contexts.Create(ctx, middleware.GetUser(ctx).ID, req.Text)
	if err != nil {
		writeError(c, err, "failed to create context")
		return
	}
	c.JSON(http.StatusCreated, dto.ToContextResponse(created))
}

func (h *ContextHandler) Get(c *gin.Context) {
	contextID, ok := pathID(c, "contextId")
	if !ok {
		return
	}

	found, err := h.contexts.Get(c.Request.Context(), contextID)
	if err != nil {
		writeError(c, err, "failed to load context")
		return
	}
	c.JSON(http.StatusOK, dto.ToContextResponse(found))
}
