package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type questionDocument struct {
	Key               string  `json:"_key"`
	Text              string  `json:"text"`
	Details           string  `json:"details"`
	Status            string  `json:"status"`
	ContextID         *string `json:"contextId"`
	Priority          string  `json:"priority"`
	TotalAnswersCount int     `json:"totalAnswersCount"`
	CreatedBy         string  `json:"createdBy"`
	AssignedExpertID  *string `json:"assignedExpertId"`
	CreatedAt         int64   `json:"createdAt"`
	UpdatedAt         int64   `json:"updatedAt"`
	ClosedAt          *int64  `json:"closedAt"`
}

type questionStore struct {
	docs *db.Documents
}

func newQuestionStore(docs *db.Documents) QuestionStore {
	return &questionStore{docs: docs}
}

func (s *questionStore) GetByID(ctx context.Context, questionID int64) (*model.Question, error) {
	var doc questionDocument
	if err := s.docs.Get(ctx, db.CollectionQuestions, id.Format(questionID), &doc); err != nil {
		return nil, mapErr(err)
	}
	return toQuestionModel(doc)
}

func (s *questionStore) GetByIDs(ctx context.Context, ids []int64) ([]model.Question, error) {
	keys := make([]string, len(ids))
	for i, v := range ids {
		keys[i] = id.Format(v)
	}
	docs, err := db.All[questionDocument](ctx, s.docs, `
		FOR key IN @keys
			LET q = DOCUMENT(@@questions, key)
			FILTER q != null
			RETURN q`, map[string]any{
		"@questions": db.CollectionQuestions,
		"keys":       keys,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toQuestionModels(docs)
}

func (s *questionStore) Create(ctx context.Context, q *model.Question) error {
	now := nowUTC()
	q.CreatedAt, q.UpdatedAt = now, now
	return mapErr(s.docs.Insert(ctx, db.CollectionQuestions, toQuestionDocument(q)))
}

func (s *questionStore) Update(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = nowUTC()
	doc := toQuestionDocument(q)
	return mapErr(s.docs.Exec(ctx, `REPLACE @key WITH @doc IN @@questions`, map[string]any{
		"@questions": db.CollectionQuestions,
		"key":        doc.Key,
		"doc":        doc,
	}))
}

func (s *questionStore) List(ctx context.Context, filter model.QuestionFilter, page model.Page) (model.PageResult[model.Question], error) {
	var status any
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	bind := map[string]any{
		"@questions": db.CollectionQuestions,
		"status":     status,
	}

	total, err := db.First[countRow](ctx, s.docs, `
		RETURN { count: LENGTH(FOR q IN @@questions FILTER @status == null OR q.status == @status RETURN 1) }`, bind)
	if err != nil {
		return model.PageResult[model.Question]{}, mapErr(err)
	}

	bind["offset"], bind["limit"] = page.Offset(), page.Limit
	docs, err := db.All[questionDocument](ctx, s.docs, `
		FOR q IN @@questions
			FILTER @status == null OR q.status == @status
			SORT q.createdAt DESC, q._key DESC
			LIMIT @offset, @limit
			RETURN q`, bind)
	if err != nil {
		return model.PageResult[model.Question]{}, mapErr(err)
	}

	items, err := toQuestionModels(docs)
	if err != nil {
		return model.PageResult[model.Question]{}, err
	}
	return model.PageResult[model.Question]{Items: items, Total: total.Count}, nil
}

func (s *questionStore) ListUnassigned(ctx context.Context, limit int) ([]model.Question, error) {
	docs, err := db.All[questionDocument](ctx, s.docs, `
		FOR q IN @@questions
			FILTER q.status IN @accepting AND q.assignedExpertId == null
			SORT q.priority == "high" ? 0 : q.priority == "medium" ? 1 : 2, q.createdAt, q._key
			LIMIT @limit
			RETURN q`, map[string]any{
		"@questions": db.CollectionQuestions,
		"accepting":  []string{string(model.QuestionStatusOpen), string(model.QuestionStatusInReview)},
		"limit":      limit,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toQuestionModels(docs)
}

func (s *questionStore) ExpireStale(ctx context.Context, cutoff, now time.Time) (int, error) {
	row, err := db.First[countRow](ctx, s.docs, `
		LET updated = (
			FOR q IN @@questions
				FILTER q.status == @open AND q.totalAnswersCount == 0 AND q.createdAt <= @cutoff
				UPDATE q WITH { status: @expired, updatedAt: @now, closedAt: @now } IN @@questions
				RETURN 1
		)
		RETURN { count: LENGTH(updated) }`, map[string]any{
		"@questions": db.CollectionQuestions,
		"open":       string(model.QuestionStatusOpen),
		"expired":    string(model.QuestionStatusExpired),
		"cutoff":     millis(cutoff),
		"now":        millis(now),
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Count, nil
}

func (s *questionStore) CountByStatus(ctx context.Context) (map[model.QuestionStatus]int, error) {
	type row struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	rows, err := db.All[row](ctx, s.docs, `
		FOR q IN @@questions
			COLLECT status = q.status WITH COUNT INTO n
			RETURN { status: status, count: n }`, map[string]any{
		"@questions": db.CollectionQuestions,
	})
	if err != nil {
		return nil, mapErr(err)
	}

	counts := map[model.QuestionStatus]int{
		model.QuestionStatusOpen:     0,
		model.QuestionStatusInReview: 0,
		model.QuestionStatusClosed:   0,
		model.QuestionStatusExpired:  0,
	}
	for _, r := range rows {
		counts[model.QuestionStatus(r.Status)] = r.Count
	}
	return counts, nil
}

func toQuestionDocument(q *model.Question) questionDocument {
	return questionDocument{
		Key:               id.Format(q.ID),
		Text:              q.Text,
		Details:           q.Details,
		Status:            string(q.Status),
		ContextID:         id.FormatPtr(q.ContextID),
		Priority:          string(q.Priority),
		TotalAnswersCount: q.TotalAnswersCount,
		CreatedBy:         id.Format(q.CreatedBy),
		AssignedExpertID:  id.FormatPtr(q.AssignedExpertID),
		CreatedAt:         millis(q.CreatedAt),
		UpdatedAt:         millis(q.UpdatedAt),
		ClosedAt:          millisPtr(q.ClosedAt),
	}
}

func toQuestionModel(doc questionDocument) (*model.Question, error) {
	questionID, err := id.Parse(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding question: %w", err)
	}
	createdBy, err := id.Parse(doc.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("decoding question author: %w", err)
	}
	contextID, err := id.ParsePtr(doc.ContextID)
	if err != nil {
		return nil, fmt.Errorf("decoding question context: %w", err)
	}
	assigned, err := id.ParsePtr(doc.AssignedExpertID)
	if err != nil {
		return nil, fmt.Errorf("decoding question expert: %w", err)
	}
	return &model.Question{
		ID:                questionID,
		Text:              doc.Text,
		Details:           doc.Details,
		Status:            model.QuestionStatus(doc.Status),
		ContextID:         contextID,
		Priority:          model.Priority(doc.Priority),
		TotalAnswersCount: doc.TotalAnswersCount,
		CreatedBy:         createdBy,
		AssignedExpertID:  assigned,
		CreatedAt:         fromMillis(doc.CreatedAt),
		UpdatedAt:         fromMillis(doc.UpdatedAt),
		ClosedAt:          fromMillisPtr(doc.ClosedAt),
	}, nil
}

func toQuestionModels(docs []questionDocument) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(docs))
	for _, doc := range docs {
		q, err := toQuestionModel(doc)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, nil
}
