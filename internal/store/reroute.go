package store

import (
	"context"
	"fmt"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type reRouteDocument struct {
	Key         string  `json:"_key"`
	QuestionID  string  `json:"questionId"`
	AnswerID    *string `json:"answerId"`
	ExpertID    string  `json:"expertId"`
	ModeratorID string  `json:"moderatorId"`
	Status      string  `json:"status"`
	Comment     string  `json:"comment"`
	CreatedAt   int64   `json:"createdAt"`
}

type reRouteStore struct {
	docs *db.Documents
}

func newReRouteStore(docs *db.Documents) ReRouteStore {
	return &reRouteStore{docs: docs}
}

func (s *reRouteStore) Append(ctx context.Context, h *model.ReRouteHistory) error {
	h.CreatedAt = nowUTC()
	return mapErr(s.docs.Insert(ctx, db.CollectionReRoutes, toReRouteDocument(h)))
}

func (s *reRouteStore) ListByQuestion(ctx context.Context, questionID int64) ([]model.ReRouteHistory, error) {
	docs, err := db.All[reRouteDocument](ctx, s.docs, `
		FOR h IN @@reroutes
			FILTER h.questionId == @questionId
			SORT h.createdAt, h._key
			RETURN h`, map[string]any{
		"@reroutes":  db.CollectionReRoutes,
		"questionId": id.Format(questionID),
	})
	if err != nil {
		return nil, mapErr(err)
	}

	history := make([]model.ReRouteHistory, 0, len(docs))
	for _, doc := range docs {
		h, err := toReRouteModel(doc)
		if err != nil {
			return nil, err
		}
		history = append(history, *h)
	}
	return history, nil
}

func (s *reRouteStore) Latest(ctx context.Context, questionID int64) (*model.ReRouteHistory, error) {
	doc, err := db.First[reRouteDocument](ctx, s.docs, `
		FOR h IN @@reroutes
			FILTER h.questionId == @questionId
			SORT h.createdAt DESC, h._key DESC
			LIMIT 1
			RETURN h`, map[string]any{
		"@reroutes":  db.CollectionReRoutes,
		"questionId": id.Format(questionID),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toReRouteModel(doc)
}

func (s *reRouteStore) StatsByExpert(ctx context.Context, expertID int64) (model.ExpertStats, error) {
	type row struct {
		Received  int `json:"received"`
		Rejected  int `json:"rejected"`
		Completed int `json:"completed"`
	}
	r, err := db.First[row](ctx, s.docs, `
		LET mine = (FOR h IN @@reroutes FILTER h.expertId == @expert RETURN h.status)
		RETURN {
			received: LENGTH(mine[* FILTER CURRENT == @pending]),
			rejected: LENGTH(mine[* FILTER CURRENT == @rejected]),
			completed: LENGTH(mine[* FILTER CURRENT == @completed])
		}`, map[string]any{
		"@reroutes": db.CollectionReRoutes,
		"expert":    id.Format(expertID),
		"pending":   string(model.ReRouteStatusPending),
		"rejected":  string(model.ReRouteStatusExpertRejected),
		"completed": string(model.ReRouteStatusCompleted),
	})
	if err != nil {
		return model.ExpertStats{}, mapErr(err)
	}
	return model.ExpertStats{
		ExpertID:          expertID,
		ReRoutesReceived:  r.Received,
		ReRoutesRejected:  r.Rejected,
		ReRoutesCompleted: r.Completed,
	}, nil
}

func toReRouteDocument(h *model.ReRouteHistory) reRouteDocument {
	return reRouteDocument{
		Key:         id.Format(h.ID),
		QuestionID:  id.Format(h.QuestionID),
		AnswerID:    id.FormatPtr(h.AnswerID),
		ExpertID:    id.Format(h.ExpertID),
		ModeratorID: id.Format(h.ModeratorID),
		Status:      string(h.Status),
		Comment:     h.Comment,
		CreatedAt:   millis(h.CreatedAt),
	}
}

func toReRouteModel(doc reRouteDocument) (*model.ReRouteHistory, error) {
	var (
		h   model.ReRouteHistory
		err error
	)
	if h.ID, err = id.Parse(doc.Key); err != nil {
		return nil, fmt.Errorf("decoding reroute: %w", err)
	}
	if h.QuestionID, err = id.Parse(doc.QuestionID); err != nil {
		return nil, fmt.Errorf("decoding reroute question: %w", err)
	}
	if h.AnswerID, err = id.ParsePtr(doc.AnswerID); err != nil {
		return nil, fmt.Errorf("decoding reroute answer: %w", err)
	}
	if h.ExpertID, err = id.Parse(doc.ExpertID); err != nil {
		return nil, fmt.Errorf("decoding reroute expert: %w", err)
	}
	if h.ModeratorID, err = id.Parse(doc.ModeratorID); err != nil {
		return nil, fmt.Errorf("decoding reroute moderator: %w", err)
	}
	h.Status = model.ReRouteStatus(doc.Status)
	h.Comment = doc.Comment
	h.CreatedAt = fromMillis(doc.CreatedAt)
	return &h, nil
}
