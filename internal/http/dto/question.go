package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type CreateQuestionRequest struct {
	Text      string         `json:"text" binding:"required,max=2000"`
	Details   string         `json:"details" binding:"max=5000"`
	ContextID *int64         `json:"context_id,string,omitempty"`
	Priority  model.Priority `json:"priority" binding:"omitempty,priority"`
}

type ListQuestionsQuery struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,question_status"`
}

type SearchQuestionsQuery struct {
	Q     string `form:"q" binding:"required,min=2,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type QuestionResponse struct {
	ID                int64                `json:"id,string"`
	Text              string               `json:"text"`
	Details           string               `json:"details,omitempty"`
	Status            model.QuestionStatus `json:"status"`
	ContextID         *int64               `json:"context_id,string,omitempty"`
	Priority          model.Priority       `json:"priority"`
	TotalAnswersCount int                  `json:"total_answers_count"`
	CreatedBy         int64                `json:"created_by,string"`
	AssignedExpertID  *int64               `json:"assigned_expert_id,string,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	ClosedAt          *time.Time           `json:"closed_at,omitempty"`
}

func ToQuestionResponse(q *model.Question) QuestionResponse {
	return QuestionResponse{
		ID:                q.ID,
		Text:              q.Text,
		Details:           q.Details,
		Status:            q.Status,
		ContextID:         q.ContextID,
		Priority:          q.Priority,
		TotalAnswersCount: q.TotalAnswersCount,
		CreatedBy:         q.CreatedBy,
		AssignedExpertID:  q.AssignedExpertID,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
		ClosedAt:          q.ClosedAt,
	}
}

func ToQuestionList(questions []model.Question) []QuestionResponse {
	return toList(questions, ToQuestionResponse)
}

type ContextRequest struct {
	Text string `json:"text" binding:"required,max=20000"`
}

type ContextResponse struct {
	ID        int64     `json:"id,string"`
	Text      string    `json:"text"`
	CreatedBy int64     `json:"created_by,string"`
	CreatedAt time.Time `json:"created_at"`
}

func ToContextResponse(c *model.Context) ContextResponse {
	return ContextResponse{ID: c.ID, Text: c.Text, CreatedBy: c.CreatedBy, CreatedAt: c.CreatedAt}
}
