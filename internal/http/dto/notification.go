package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type NotificationResponse struct {
	ID        int64                  `json:"id,string"`
	EntityID  int64                  `json:"entity_id,string"`
	Type      model.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

func ToNotificationResponse(n *model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		EntityID:  n.EntityID,
		Type:      n.Type,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

type NotificationPageResponse struct {
	PageResponse[NotificationResponse]
	Unread int `json:"unread"`
}

type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url,max=2048"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys"`
}

func (r PushSubscriptionRequest) ToModel() model.PushSubscription {
	return model.PushSubscription{Endpoint: r.Endpoint, P256dh: r.Keys.P256dh, Auth: r.Keys.Auth}
}

type CountResponse struct {
	Count int `json:"count"`
}
