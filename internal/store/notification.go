package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type notificationDocument struct {
	Key       string `json:"_key"`
	UserID    string `json:"userId"`
	EntityID  string `json:"entityId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	IsRead    bool   `json:"isRead"`
	CreatedAt int64  `json:"createdAt"`
}

type notificationStore struct {
	docs *db.Documents
}

func newNotificationStore(docs *db.Documents) NotificationStore {
	return &notificationStore{docs: docs}
}

func (s *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = nowUTC()
	return mapErr(s.docs.Insert(ctx, db.CollectionNotifications, toNotificationDocument(n)))
}

func (s *notificationStore) ListByUser(ctx context.Context, userID int64, page model.Page) (model.PageResult[model.Notification], error) {
	bind := map[string]any{
		"@notifications": db.CollectionNotifications,
		"userId":         id.Format(userID),
	}

	total, err := db.First[countRow](ctx, s.docs, `
		RETURN { count: LENGTH(FOR n IN @@notifications FILTER n.userId == @userId RETURN 1) }`, bind)
	if err != nil {
		return model.PageResult[model.Notification]{}, mapErr(err)
	}

	bind["offset"], bind["limit"] = page.Offset(), page.Limit
	docs, err := db.All[notificationDocument](ctx, s.docs, `
		FOR n IN @@notifications
			FILTER n.userId == @userId
			SORT n.createdAt DESC, n._key DESC
			LIMIT @offset, @limit
			RETURN n`, bind)
	if err != nil {
		return model.PageResult[model.Notification]{}, mapErr(err)
	}

	items := make([]model.Notification, 0, len(docs))
	for _, doc := range docs {
		n, err := toNotificationModel(doc)
		if err != nil {
			return model.PageResult[model.Notification]{}, err
		}
		items = append(items, *n)
	}
	return model.PageResult[model.Notification]{Items: items, Total: total.Count}, nil
}

func (s *notificationStore) CountUnread(ctx context.Context, userID int64) (int, error) {
	row, err := db.First[countRow](ctx, s.docs, `
		RETURN { count: LENGTH(
			FOR n IN @@notifications FILTER n.userId == @userId AND n.isRead != true RETURN 1
		) }`, map[string]any{
		"@notifications": db.CollectionNotifications,
		"userId":         id.Format(userID),
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Count, nil
}

func (s *notificationStore) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	return s.mutateOwned(ctx, `UPDATE n WITH { isRead: true } IN @@notifications`, userID, notificationID)
}

func (s *notificationStore) Delete(ctx context.Context, userID, notificationID int64) error {
	return s.mutateOwned(ctx, `REMOVE n IN @@notifications`, userID, notificationID)
}

// mutateOwned applies op to the notification only when userID owns it.
func (s *notificationStore) mutateOwned(ctx context.Context, op string, userID, notificationID int64) error {
	row, err := db.First[countRow](ctx, s.docs, `
		LET touched = (
			FOR n IN @@notifications
				FILTER n._key == @key AND n.userId == @userId
				`+op+`
				RETURN 1
		)
		RETURN { count: LENGTH(touched) }`, map[string]any{
		"@notifications": db.CollectionNotifications,
		"key":            id.Format(notificationID),
		"userId":         id.Format(userID),
	})
	if err != nil {
		return mapErr(err)
	}
	if row.Count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *notificationStore) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	row, err := db.First[countRow](ctx, s.docs, `
		LET touched = (
			FOR n IN @@notifications
				FILTER n.userId == @userId AND n.isRead != true
				UPDATE n WITH { isRead: true } IN @@notifications
				RETURN 1
		)
		RETURN { count: LENGTH(touched) }`, map[string]any{
		"@notifications": db.CollectionNotifications,
		"userId":         id.Format(userID),
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Count, nil
}

func (s *notificationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	row, err := db.First[countRow](ctx, s.docs, `
		LET removed = (
			FOR n IN @@notifications
				FILTER n.createdAt < @cutoff
				REMOVE n IN @@notifications
				RETURN 1
		)
		RETURN { count: LENGTH(removed) }`, map[string]any{
		"@notifications": db.CollectionNotifications,
		"cutoff":         millis(cutoff),
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Count, nil
}

func toNotificationDocument(n *model.Notification) notificationDocument {
	return notificationDocument{
		Key:       id.Format(n.ID),
		UserID:    id.Format(n.UserID),
		EntityID:  id.Format(n.EntityID),
		Type:      string(n.Type),
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: millis(n.CreatedAt),
	}
}

func toNotificationModel(doc notificationDocument) (*model.Notification, error) {
	var (
		n   model.Notification
		err error
	)
	if n.ID, err = id.Parse(doc.Key); err != nil {
		return nil, fmt.Errorf("decoding notification: %w", err)
	}
	if n.UserID, err = id.Parse(doc.UserID); err != nil {
		return nil, fmt.Errorf("decoding notification user: %w", err)
	}
	if n.EntityID, err = id.Parse(doc.EntityID); err != nil {
		return nil, fmt.Errorf("decoding notification entity: %w", err)
	}
	n.Type = model.NotificationType(doc.Type)
	n.Message = doc.Message
	n.IsRead = doc.IsRead
	n.CreatedAt = fromMillis(doc.CreatedAt)
	return &n, nil
}
