package store

import (
	"context"
	"fmt"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type requestDocument struct {
	Key         string                    `json:"_key"`
	RequestedBy string                    `json:"requestedBy"`
	EntityType  string                    `json:"entityType"`
	EntityID    string                    `json:"entityId"`
	Reason      string                    `json:"reason"`
	Details     map[string]string         `json:"details"`
	Status      string                    `json:"status"`
	Responses   []requestResponseDocument `json:"responses"`
	IsDeleted   bool                      `json:"isDeleted"`
	CreatedAt   int64                     `json:"createdAt"`
	UpdatedAt   int64                     `json:"updatedAt"`
}

type requestResponseDocument struct {
	Status     string `json:"status"`
	ReviewerID string `json:"reviewerId"`
	Response   string `json:"response"`
	At         int64  `json:"at"`
}

type requestStore struct {
	docs *db.Documents
}

func newRequestStore(docs *db.Documents) RequestStore {
	return &requestStore{docs: docs}
}

func (s *requestStore) GetByID(ctx context.Context, requestID int64) (*model.Request, error) {
	var doc requestDocument
	if err := s.docs.Get(ctx, db.CollectionRequests, id.Format(requestID), &doc); err != nil {
		return nil, mapErr(err)
	}
	return toRequestModel(doc)
}

func (s *requestStore) Create(ctx context.Context, r *model.Request) error {
	now := nowUTC()
	r.CreatedAt, r.UpdatedAt = now, now
	return mapErr(s.docs.Insert(ctx, db.CollectionRequests, toRequestDocument(r)))
}

func (s *requestStore) Update(ctx context.Context, r *model.Request) error {
	r.UpdatedAt = nowUTC()
	doc := toRequestDocument(r)
	return mapErr(s.docs.Exec(ctx, `REPLACE @key WITH @doc IN @@requests`, map[string]any{
		"@requests": db.CollectionRequests,
		"key":       doc.Key,
		"doc":       doc,
	}))
}

func (s *requestStore) List(ctx context.Context, filter model.RequestFilter, page model.Page) (model.PageResult[model.Request], error) {
	var status any
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	bind := map[string]any{
		"@requests": db.CollectionRequests,
		"status":    status,
	}

	total, err := db.First[countRow](ctx, s.docs, `
		RETURN { count: LENGTH(
			FOR r IN @@requests
				FILTER r.isDeleted != true AND (@status == null OR r.status == @status)
				RETURN 1
		) }`, bind)
	if err != nil {
		return model.PageResult[model.Request]{}, mapErr(err)
	}

	bind["offset"], bind["limit"] = page.Offset(), page.Limit
	docs, err := db.All[requestDocument](ctx, s.docs, `
		FOR r IN @@requests
			FILTER r.isDeleted != true AND (@status == null OR r.status == @status)
			SORT r.createdAt DESC, r._key DESC
			LIMIT @offset, @limit
			RETURN r`, bind)
	if err != nil {
		return model.PageResult[model.Request]{}, mapErr(err)
	}

	items := make([]model.Request, 0, len(docs))
	for _, doc := range docs {
		r, err := toRequestModel(doc)
		if err != nil {
			return model.PageResult[model.Request]{}, err
		}
		items = append(items, *r)
	}
	return model.PageResult[model.Request]{Items: items, Total: total.Count}, nil
}

func (s *requestStore) CountPending(ctx context.Context) (int, error) {
	row, err := db.First[countRow](ctx, s.docs, `
		RETURN { count: LENGTH(
			FOR r IN @@requests FILTER r.isDeleted != true AND r.status IN @open RETURN 1
		) }`, map[string]any{
		"@requests": db.CollectionRequests,
		"open":      []string{string(model.RequestStatusPending), string(model.RequestStatusInReview)},
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Count, nil
}

func toRequestDocument(r *model.Request) requestDocument {
	responses := make([]requestResponseDocument, len(r.Responses))
	for i, resp := range r.Responses {
		responses[i] = requestResponseDocument{
			Status:     string(resp.Status),
			ReviewerID: id.Format(resp.ReviewerID),
			Response:   resp.Response,
			At:         millis(resp.At),
		}
	}
	details := r.Details
	if details == nil {
		details = map[string]string{}
	}
	return requestDocument{
		Key:         id.Format(r.ID),
		RequestedBy: id.Format(r.RequestedBy),
		EntityType:  string(r.EntityType),
		EntityID:    id.Format(r.EntityID),
		Reason:      r.Reason,
		Details:     details,
		Status:      string(r.Status),
		Responses:   responses,
		IsDeleted:   r.IsDeleted,
		CreatedAt:   millis(r.CreatedAt),
		UpdatedAt:   millis(r.UpdatedAt),
	}
}

func toRequestModel(doc requestDocument) (*model.Request, error) {
	requestID, err := id.Parse(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	requestedBy, err := id.Parse(doc.RequestedBy)
	if err != nil {
		return nil, fmt.Errorf("decoding request author: %w", err)
	}
	entityID, err := id.Parse(doc.EntityID)
	if err != nil {
		return nil, fmt.Errorf("decoding request entity: %w", err)
	}

	responses := make([]model.RequestResponse, 0, len(doc.Responses))
	for _, resp := range doc.Responses {
		reviewerID, err := id.Parse(resp.ReviewerID)
		if err != nil {
			return nil, fmt.Errorf("decoding request reviewer: %w", err)
		}
		responses = append(responses, model.RequestResponse{
			Status:     model.RequestStatus(resp.Status),
			ReviewerID: reviewerID,
			Response:   resp.Response,
			At:         fromMillis(resp.At),
		})
	}

	return &model.Request{
		ID:          requestID,
		RequestedBy: requestedBy,
		EntityType:  model.EntityType(doc.EntityType),
		EntityID:    entityID,
		Reason:      doc.Reason,
		Details:     doc.Details,
		Status:      model.RequestStatus(doc.Status),
		Responses:   responses,
		IsDeleted:   doc.IsDeleted,
		CreatedAt:   fromMillis(doc.CreatedAt),
		UpdatedAt:   fromMillis(doc.UpdatedAt),
	}, nil
}
