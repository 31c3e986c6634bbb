package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type AddAnswerRequest struct {
	QuestionID int64    `json:"question_id,string" binding:"required"`
	Text       string   `json:"text" binding:"required,max=10000"`
	Sources    []string `json:"sources" binding:"max=20,dive,required,max=2048"`
	IsFinal    bool     `json:"is_final"`
}

type ReviewAnswerRequest struct {
	Action  model.ReviewAction `json:"action" binding:"required,review_action"`
	Remarks string             `json:"remarks" binding:"max=2000"`
}

type ReRouteAnswerRequest struct {
	ExpertID int64  `json:"expert_id,string" binding:"required"`
	Comment  string `json:"comment" binding:"max=1000"`
}

type ReviewResponse struct {
	ReviewerID int64              `json:"reviewer_id,string"`
	Action     model.ReviewAction `json:"action"`
	Remarks    string             `json:"remarks,omitempty"`
	At         time.Time          `json:"at"`
}

type AnswerResponse struct {
	ID            int64              `json:"id,string"`
	QuestionID    int64              `json:"question_id,string"`
	AuthorID      int64              `json:"author_id,string"`
	Iteration     int                `json:"iteration"`
	IsFinalAnswer bool               `json:"is_final_answer"`
	Text          string             `json:"text"`
	Sources       []string           `json:"sources"`
	ApprovalCount int                `json:"approval_count"`
	ReviewStatus  model.ReviewStatus `json:"review_status"`
	Reviews       []ReviewResponse   `json:"reviews"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func ToAnswerResponse(a *model.Answer) AnswerResponse {
	sources := a.Sources
	if sources == nil {
		sources = []string{}
	}
	return AnswerResponse{
		ID:            a.ID,
		QuestionID:    a.QuestionID,
		AuthorID:      a.AuthorID,
		Iteration:     a.Iteration,
		IsFinalAnswer: a.IsFinalAnswer,
		Text:          a.Text,
		Sources:       sources,
		ApprovalCount: a.ApprovalCount,
		ReviewStatus:  a.ReviewStatus,
		Reviews: toList(a.Reviews, func(r *model.Review) ReviewResponse {
			return ReviewResponse{ReviewerID: r.ReviewerID, Action: r.Action, Remarks: r.Remarks, At: r.At}
		}),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func ToAnswerList(answers []model.Answer) []AnswerResponse {
	return toList(answers, ToAnswerResponse)
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

type CommentResponse struct {
	ID         int64     `json:"id,string"`
	QuestionID int64     `json:"question_id,string"`
	AnswerID   int64     `json:"answer_id,string"`
	Text       string    `json:"text"`
	AuthorID   int64     `json:"author_id,string"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		QuestionID: c.QuestionID,
		AnswerID:   c.AnswerID,
		Text:       c.Text,
		AuthorID:   c.AuthorID,
		CreatedAt:  c.CreatedAt,
	}
}
