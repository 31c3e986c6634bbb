package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type AssignReRouteRequest struct {
	QuestionID int64  `json:"question_id,string" binding:"required"`
	AnswerID   *int64 `json:"answer_id,string,omitempty"`
	ExpertID   int64  `json:"expert_id,string" binding:"required"`
	Comment    string `json:"comment" binding:"max=1000"`
}

type RejectReRouteRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type ReRouteResponse struct {
	ID          int64               `json:"id,string"`
	QuestionID  int64               `json:"question_id,string"`
	AnswerID    *int64              `json:"answer_id,string,omitempty"`
	ExpertID    int64               `json:"expert_id,string"`
	ModeratorID int64               `json:"moderator_id,string"`
	Status      model.ReRouteStatus `json:"status"`
	Comment     string              `json:"comment,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

func ToReRouteResponse(h *model.ReRouteHistory) ReRouteResponse {
	return ReRouteResponse{
		ID:          h.ID,
		QuestionID:  h.QuestionID,
		AnswerID:    h.AnswerID,
		ExpertID:    h.ExpertID,
		ModeratorID: h.ModeratorID,
		Status:      h.Status,
		Comment:     h.Comment,
		CreatedAt:   h.CreatedAt,
	}
}

func ToReRouteList(history []model.ReRouteHistory) []ReRouteResponse {
	return toList(history, ToReRouteResponse)
}
