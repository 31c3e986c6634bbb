package store

import (
	"context"
	"fmt"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type commentDocument struct {
	Key        string `json:"_key"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
	Text       string `json:"text"`
	AuthorID   string `json:"authorId"`
	CreatedAt  int64  `json:"createdAt"`
}

type commentStore struct {
	docs *db.Documents
}

func newCommentStore(docs *db.Documents) CommentStore {
	return &commentStore{docs: docs}
}

func (s *commentStore) Create(ctx context.Context, c *model.Comment) error {
	c.CreatedAt = nowUTC()
	return mapErr(s.docs.Insert(ctx, db.CollectionComments, toCommentDocument(c)))
}

func (s *commentStore) ListByAnswer(ctx context.Context, questionID, answerID int64, page model.Page) (model.PageResult[model.Comment], error) {
	bind := map[string]any{
		"@comments":  db.CollectionComments,
		"questionId": id.Format(questionID),
		"answerId":   id.Format(answerID),
	}

	total, err := db.First[countRow](ctx, s.docs, `
		RETURN { count: LENGTH(
			FOR c IN @@comments
				FILTER c.questionId == @questionId AND c.answerId == @answerId
				RETURN 1
		) }`, bind)
	if err != nil {
		return model.PageResult[model.Comment]{}, mapErr(err)
	}

	// Snowflake keys are time ordered, so they break createdAt ties in insertion order.
	bind["offset"], bind["limit"] = page.Offset(), page.Limit
	docs, err := db.All[commentDocument](ctx, s.docs, `
		FOR c IN @@comments
			FILTER c.questionId == @questionId AND c.answerId == @answerId
			SORT c.createdAt, c._key
			LIMIT @offset, @limit
			RETURN c`, bind)
	if err != nil {
		return model.PageResult[model.Comment]{}, mapErr(err)
	}

	items := make([]model.Comment, 0, len(docs))
	for _, doc := range docs {
		c, err := toCommentModel(doc)
		if err != nil {
			return model.PageResult[model.Comment]{}, err
		}
		items = append(items, *c)
	}
	return model.PageResult[model.Comment]{Items: items, Total: total.Count}, nil
}

func toCommentDocument(c *model.Comment) commentDocument {
	return commentDocument{
		Key:        id.Format(c.ID),
		QuestionID: id.Format(c.QuestionID),
		AnswerID:   id.Format(c.AnswerID),
		Text:       c.Text,
		AuthorID:   id.Format(c.AuthorID),
		CreatedAt:  millis(c.CreatedAt),
	}
}

func toCommentModel(doc commentDocument) (*model.Comment, error) {
	var (
		c   model.Comment
		err error
	)
	if c.ID, err = id.Parse(doc.Key); err != nil {
		return nil, fmt.Errorf("decoding comment: %w", err)
	}
	if c.QuestionID, err = id.Parse(doc.QuestionID); err != nil {
		return nil, fmt.Errorf("decoding comment question: %w", err)
	}
	if c.AnswerID, err = id.Parse(doc.AnswerID); err != nil {
		return nil, fmt.Errorf("decoding comment answer: %w", err)
	}
	if c.AuthorID, err = id.Parse(doc.AuthorID); err != nil {
		return nil, fmt.Errorf("decoding comment author: %w", err)
	}
	c.Text = doc.Text
	c.CreatedAt = fromMillis(doc.CreatedAt)
	return &c, nil
}
