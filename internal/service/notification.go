package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

// Notifier is the slice of NotificationService other services depend on.
type Notifier interface {
	Add(ctx context.Context, userID, entityID int64, notificationType model.NotificationType, message string) (*model.Notification, error)
}

// PushPublisher hands push payloads to the external web-push dispatcher.
type PushPublisher interface {
	PublishPush(ctx context.Context, userID int64, payload model.PushPayload) error
}

type NotificationPage struct {
	model.PageResult[model.Notification]
	Unread int
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, userID int64, page, limit int) (NotificationPage, model.Page, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, userID, notificationID int64) error
	SaveSubscription(ctx context.Context, userID int64, sub model.PushSubscription) error
	// AutoDelete removes notifications older than the retention window.
	AutoDelete(ctx context.Context, now time.Time) (int, error)
}

type notificationService struct {
	stores    StoreProvider
	push      PushPublisher
	paging    Paging
	retention time.Duration
}

func NewNotificationService(stores StoreProvider, push PushPublisher, paging Paging, retention time.Duration) NotificationService {
	return &notificationService{
		stores:    stores,
		push:      push,
		paging:    paging,
		retention: retention,
	}
}

func (s *notificationService) Add(ctx context.Context, userID, entityID int64, notificationType model.NotificationType, message string) (*model.Notification, error) {
	n := &model.Notification{
		ID:       id.New(),
		UserID:   userID,
		EntityID: entityID,
		Type:     notificationType,
		Message:  message,
	}
	if err := s.stores.Notifications().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	s.publishPush(ctx, n)
	return n, nil
}

// publishPush is best effort; the notification is already stored.
func (s *notificationService) publishPush(ctx context.Context, n *model.Notification) {
	if s.push == nil {
		return
	}
	user, err := s.stores.Users().GetByID(ctx, n.UserID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load user for push", "error", err, "user_id", n.UserID)
		return
	}
	if user.PushSubscription == nil {
		return
	}
	if err := s.push.PublishPush(ctx, n.UserID, BuildPushPayload(n)); err != nil {
		slog.WarnContext(ctx, "failed to publish push payload", "error", err, "user_id", n.UserID)
	}
}

func (s *notificationService) List(ctx context.Context, userID int64, page, limit int) (NotificationPage, model.Page, error) {
	p, err := s.paging.Normalize(page, limit)
	if err != nil {
		return NotificationPage{}, model.Page{}, err
	}

	result, err := s.stores.Notifications().ListByUser(ctx, userID, p)
	if err != nil {
		return NotificationPage{}, p, fmt.Errorf("listing notifications: %w", err)
	}
	unread, err := s.stores.Notifications().CountUnread(ctx, userID)
	if err != nil {
		return NotificationPage{}, p, fmt.Errorf("counting unread notifications: %w", err)
	}
	return NotificationPage{PageResult: result, Unread: unread}, p, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	if err := s.stores.Notifications().MarkAsRead(ctx, userID, notificationID); err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	n, err := s.stores.Notifications().MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, notificationID int64) error {
	if err := s.stores.Notifications().Delete(ctx, userID, notificationID); err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	return nil
}

func (s *notificationService) SaveSubscription(ctx context.Context, userID int64, sub model.PushSubscription) error {
	err := validation.ValidateStruct(&sub,
		validation.Field(&sub.Endpoint, validation.Required, is.URL),
		validation.Field(&sub.P256dh, validation.Required),
		validation.Field(&sub.Auth, validation.Required),
	)
	if err != nil {
		return invalid(err)
	}

	if _, err := s.stores.Users().Patch(ctx, userID, store.UserPatch{PushSubscription: &sub}); err != nil {
		return fmt.Errorf("saving push subscription: %w", notFound(err, ErrUserNotFound))
	}
	return nil
}

func (s *notificationService) AutoDelete(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.retention)
	n, err := s.stores.Notifications().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old notifications: %w", err)
	}
	slog.InfoContext(ctx, "old notifications deleted", "count", n, "cutoff", cutoff)
	return n, nil
}

var pushTitles = map[model.NotificationType]string{
	model.NotificationTypeAnswerSubmitted:  "New answer",
	model.NotificationTypeAnswerApproved:   "Answer approved",
	model.NotificationTypeAnswerRejected:   "Answer rejected",
	model.NotificationTypeAnswerFinalized:  "Final answer selected",
	model.NotificationTypeQuestionRerouted: "Question routed to you",
	model.NotificationTypeRerouteRejected:  "Re-route declined",
	model.NotificationTypeQuestionAssigned: "New question assigned",
	model.NotificationTypeCommentAdded:     "New comment",
	model.NotificationTypeRequestUpdated:   "Request updated",
}

// BuildPushPayload derives the web-push payload for a stored notification.
func BuildPushPayload(n *model.Notification) model.PushPayload {
	title, ok := pushTitles[n.Type]
	if !ok {
		title = "Notification"
	}
	url := "/questions/" + id.Format(n.EntityID)
	if n.Type == model.NotificationTypeRequestUpdated {
		url = "/requests/" + id.Format(n.EntityID)
	}
	return model.PushPayload{Title: title, Body: n.Message, URL: url}
}

// notify sends a notification after the owning transaction committed.
// Failures are logged and never fail the caller.
func notify(ctx context.Context, n Notifier, userID, entityID int64, notificationType model.NotificationType, message string) {
	if n == nil {
		return
	}
	if _, err := n.Add(ctx, userID, entityID, notificationType, message); err != nil {
		slog.ErrorContext(ctx, "failed to add notification",
			"error", err,
			"user_id", userID,
			"type", notificationType)
	}
}
