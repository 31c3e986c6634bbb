package model

import "time"

type NotificationType string

const (
	NotificationTypeAnswerSubmitted  NotificationType = "answer_submitted"
	NotificationTypeAnswerApproved   NotificationType = "answer_approved"
	NotificationTypeAnswerRejected   NotificationType = "answer_rejected"
	NotificationTypeAnswerFinalized  NotificationType = "answer_finalized"
	NotificationTypeQuestionRerouted NotificationType = "question_rerouted"
	NotificationTypeRerouteRejected  NotificationType = "reroute_rejected"
	NotificationTypeQuestionAssigned NotificationType = "question_assigned"
	NotificationTypeCommentAdded     NotificationType = "comment_added"
	NotificationTypeRequestUpdated   NotificationType = "request_updated"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	EntityID  int64            `json:"entity_id,string"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// PushPayload is handed to the external web-push dispatcher.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}
