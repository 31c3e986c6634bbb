package store

import (
	"context"
	"fmt"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type answerDocument struct {
	Key           string           `json:"_key"`
	QuestionID    string           `json:"questionId"`
	AuthorID      string           `json:"authorId"`
	Iteration     int              `json:"iteration"`
	IsFinalAnswer bool             `json:"isFinalAnswer"`
	Text          string           `json:"text"`
	Sources       []string         `json:"sources"`
	ApprovalCount int              `json:"approvalCount"`
	ReviewStatus  string           `json:"reviewStatus"`
	Reviews       []reviewDocument `json:"reviews"`
	Embedding     []float64        `json:"embedding,omitempty"`
	CreatedAt     int64            `json:"createdAt"`
	UpdatedAt     int64            `json:"updatedAt"`
}

type reviewDocument struct {
	ReviewerID string `json:"reviewerId"`
	Action     string `json:"action"`
	Remarks    string `json:"remarks"`
	At         int64  `json:"at"`
}

type answerStore struct {
	docs *db.Documents
}

func newAnswerStore(docs *db.Documents) AnswerStore {
	return &answerStore{docs: docs}
}

func (s *answerStore) GetByID(ctx context.Context, answerID int64) (*model.Answer, error) {
	var doc answerDocument
	if err := s.docs.Get(ctx, db.CollectionAnswers, id.Format(answerID), &doc); err != nil {
		return nil, mapErr(err)
	}
	return toAnswerModel(doc)
}

func (s *answerStore) Create(ctx context.Context, a *model.Answer) error {
	now := nowUTC()
	a.CreatedAt, a.UpdatedAt = now, now
	return mapErr(s.docs.Insert(ctx, db.CollectionAnswers, toAnswerDocument(a)))
}

func (s *answerStore) Update(ctx context.Context, a *model.Answer) error {
	a.UpdatedAt = nowUTC()
	doc := toAnswerDocument(a)
	return mapErr(s.docs.Exec(ctx, `REPLACE @key WITH @doc IN @@answers`, map[string]any{
		"@answers": db.CollectionAnswers,
		"key":      doc.Key,
		"doc":      doc,
	}))
}

func (s *answerStore) Delete(ctx context.Context, answerID int64) error {
	return mapErr(s.docs.Remove(ctx, db.CollectionAnswers, id.Format(answerID)))
}

func (s *answerStore) ListByQuestion(ctx context.Context, questionID int64) ([]model.Answer, error) {
	docs, err := db.All[answerDocument](ctx, s.docs, `
		FOR a IN @@answers
			FILTER a.questionId == @questionId
			SORT a.iteration
			RETURN a`, map[string]any{
		"@answers":   db.CollectionAnswers,
		"questionId": id.Format(questionID),
	})
	if err != nil {
		return nil, mapErr(err)
	}

	answers := make([]model.Answer, 0, len(docs))
	for _, doc := range docs {
		a, err := toAnswerModel(doc)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *a)
	}
	return answers, nil
}

func (s *answerStore) MaxIteration(ctx context.Context, questionID int64) (int, error) {
	summary, err := s.Summarize(ctx, questionID)
	if err != nil {
		return 0, err
	}
	return summary.MaxIteration, nil
}

func (s *answerStore) Summarize(ctx context.Context, questionID int64) (model.AnswerSummary, error) {
	type row struct {
		Count        int  `json:"count"`
		MaxIteration int  `json:"maxIteration"`
		HasFinal     bool `json:"hasFinal"`
	}
	r, err := db.First[row](ctx, s.docs, `
		LET answers = (FOR a IN @@answers FILTER a.questionId == @questionId RETURN a)
		RETURN {
			count: LENGTH(answers),
			maxIteration: MAX(answers[*].iteration) || 0,
			hasFinal: LENGTH(answers[* FILTER CURRENT.isFinalAnswer == true]) > 0
		}`, map[string]any{
		"@answers":   db.CollectionAnswers,
		"questionId": id.Format(questionID),
	})
	if err != nil {
		return model.AnswerSummary{}, mapErr(err)
	}
	return model.AnswerSummary{Count: r.Count, MaxIteration: r.MaxIteration, HasFinal: r.HasFinal}, nil
}

func (s *answerStore) ClearFinal(ctx context.Context, questionID, keepID int64) error {
	return mapErr(s.docs.Exec(ctx, `
		FOR a IN @@answers
			FILTER a.questionId == @questionId AND a._key != @keep AND a.isFinalAnswer == true
			UPDATE a WITH { isFinalAnswer: false, updatedAt: @now } IN @@answers`, map[string]any{
		"@answers":   db.CollectionAnswers,
		"questionId": id.Format(questionID),
		"keep":       id.Format(keepID),
		"now":        millis(nowUTC()),
	}))
}

func (s *answerStore) StatsByAuthor(ctx context.Context, authorID int64) (model.ExpertStats, error) {
	type row struct {
		Submitted int `json:"submitted"`
		Final     int `json:"final"`
		Approved  int `json:"approved"`
		Rejected  int `json:"rejected"`
		Pending   int `json:"pending"`
		Reviews   int `json:"reviews"`
	}
	key := id.Format(authorID)
	r, err := db.First[row](ctx, s.docs, `
		LET mine = (FOR a IN @@answers FILTER a.authorId == @author RETURN a)
		LET reviews = SUM(
			FOR a IN @@answers
				RETURN LENGTH(a.reviews[* FILTER CURRENT.reviewerId == @author])
		)
		RETURN {
			submitted: LENGTH(mine),
			final: LENGTH(mine[* FILTER CURRENT.isFinalAnswer == true]),
			approved: LENGTH(mine[* FILTER CURRENT.reviewStatus == @approved]),
			rejected: LENGTH(mine[* FILTER CURRENT.reviewStatus == @rejected]),
			pending: LENGTH(mine[* FILTER CURRENT.reviewStatus == @pending]),
			reviews: reviews
		}`, map[string]any{
		"@answers": db.CollectionAnswers,
		"author":   key,
		"approved": string(model.ReviewStatusApproved),
		"rejected": string(model.ReviewStatusRejected),
		"pending":  string(model.ReviewStatusPending),
	})
	if err != nil {
		return model.ExpertStats{}, mapErr(err)
	}
	return model.ExpertStats{
		ExpertID:         authorID,
		AnswersSubmitted: r.Submitted,
		FinalAnswers:     r.Final,
		ApprovedAnswers:  r.Approved,
		RejectedAnswers:  r.Rejected,
		PendingAnswers:   r.Pending,
		ReviewsGiven:     r.Reviews,
	}, nil
}

func toAnswerDocument(a *model.Answer) answerDocument {
	reviews := make([]reviewDocument, len(a.Reviews))
	for i, r := range a.Reviews {
		reviews[i] = reviewDocument{
			ReviewerID: id.Format(r.ReviewerID),
			Action:     string(r.Action),
			Remarks:    r.Remarks,
			At:         millis(r.At),
		}
	}
	sources := a.Sources
	if sources == nil {
		sources = []string{}
	}
	return answerDocument{
		Key:           id.Format(a.ID),
		QuestionID:    id.Format(a.QuestionID),
		AuthorID:      id.Format(a.AuthorID),
		Iteration:     a.Iteration,
		IsFinalAnswer: a.IsFinalAnswer,
		Text:          a.Text,
		Sources:       sources,
		ApprovalCount: a.ApprovalCount,
		ReviewStatus:  string(a.ReviewStatus),
		Reviews:       reviews,
		Embedding:     a.Embedding,
		CreatedAt:     millis(a.CreatedAt),
		UpdatedAt:     millis(a.UpdatedAt),
	}
}

func toAnswerModel(doc answerDocument) (*model.Answer, error) {
	answerID, err := id.Parse(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding answer: %w", err)
	}
	questionID, err := id.Parse(doc.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("decoding answer question: %w", err)
	}
	authorID, err := id.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("decoding answer author: %w", err)
	}

	reviews := make([]model.Review, 0, len(doc.Reviews))
	for _, r := range doc.Reviews {
		reviewerID, err := id.Parse(r.ReviewerID)
		if err != nil {
			return nil, fmt.Errorf("decoding answer reviewer: %w", err)
		}
		reviews = append(reviews, model.Review{
			ReviewerID: reviewerID,
			Action:     model.ReviewAction(r.Action),
			Remarks:    r.Remarks,
			At:         fromMillis(r.At),
		})
	}

	return &model.Answer{
		ID:            answerID,
		QuestionID:    questionID,
		AuthorID:      authorID,
		Iteration:     doc.Iteration,
		IsFinalAnswer: doc.IsFinalAnswer,
		Text:          doc.Text,
		Sources:       doc.Sources,
		ApprovalCount: doc.ApprovalCount,
		ReviewStatus:  model.ReviewStatus(doc.ReviewStatus),
		Reviews:       reviews,
		Embedding:     doc.Embedding,
		CreatedAt:     fromMillis(doc.CreatedAt),
		UpdatedAt:     fromMillis(doc.UpdatedAt),
	}, nil
}
