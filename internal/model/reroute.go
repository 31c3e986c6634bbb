package model

import "time"

type ReRouteStatus string

const (
	ReRouteStatusPending           ReRouteStatus = "pending"
	ReRouteStatusExpertRejected    ReRouteStatus = "expert_rejected"
	ReRouteStatusModeratorRejected ReRouteStatus = "moderator_rejected"
	ReRouteStatusCompleted         ReRouteStatus = "completed"
)

// ReRouteHistory is one append-only entry in a question's routing log.
type ReRouteHistory struct {
	ID          int64         `json:"id"`
	QuestionID  int64         `json:"question_id"`
	AnswerID    *int64        `json:"answer_id,omitempty"`
	ExpertID    int64         `json:"expert_id"`
	ModeratorID int64         `json:"moderator_id"`
	Status      ReRouteStatus `json:"status"`
	Comment     string        `json:"comment,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
