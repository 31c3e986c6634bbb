package store

import (
	"context"
	"fmt"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type contextDocument struct {
	Key       string `json:"_key"`
	Text      string `json:"text"`
	CreatedBy string `json:"createdBy"`
	CreatedAt int64  `json:"createdAt"`
}

type contextStore struct {
	docs *db.Documents
}

func newContextStore(docs *db.Documents) ContextStore {
	return &contextStore{docs: docs}
}

func (s *contextStore) GetByID(ctx context.Context, contextID int64) (*model.Context, error) {
	var doc contextDocument
	if err := s.docs.Get(ctx, db.CollectionContexts, id.Format(contextID), &doc); err != nil {
		return nil, mapErr(err)
	}
	return toContextModel(doc)
}

func (s *contextStore) Create(ctx context.Context, c *model.Context) error {
	c.CreatedAt = nowUTC()
	return mapErr(s.docs.Insert(ctx, db.CollectionContexts, toContextDocument(c)))
}

func toContextDocument(c *model.Context) contextDocument {
	return contextDocument{
		Key:       id.Format(c.ID),
		Text:      c.Text,
		CreatedBy: id.Format(c.CreatedBy),
		CreatedAt: millis(c.CreatedAt),
	}
}

func toContextModel(doc contextDocument) (*model.Context, error) {
	contextID, err := id.Parse(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding context: %w", err)
	}
	createdBy, err := id.Parse(doc.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("decoding context author: %w", err)
	}
	return &model.Context{
		ID:        contextID,
		Text:      doc.Text,
		CreatedBy: createdBy,
		CreatedAt: fromMillis(doc.CreatedAt),
	}, nil
}
