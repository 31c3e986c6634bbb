package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type AddCommentInput struct {
	AuthorID   int64
	QuestionID int64
	AnswerID   int64
	Text       string
}

func (in AddCommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, validation.Required, validation.Length(1, 1000)),
	)
}

type CommentService interface {
	// GetComments returns one page of the thread in insertion order plus the
	// thread total. Pages past the end are empty.
	GetComments(ctx context.Context, questionID, answerID int64, page, limit int) (model.PageResult[model.Comment], model.Page, error)
	AddComment(ctx context.Context, in AddCommentInput) (*model.Comment, error)
}

type commentService struct {
	stores   StoreProvider
	txRunner TxRunner
	notifier Notifier
	paging   Paging
}

func NewCommentService(stores StoreProvider, txRunner TxRunner, notifier Notifier, paging Paging) CommentService {
	return &commentService{
		stores:   stores,
		txRunner: txRunner,
		notifier: notifier,
		paging:   paging,
	}
}

func (s *commentService) GetComments(ctx context.Context, questionID, answerID int64, page, limit int) (model.PageResult[model.Comment], model.Page, error) {
	p, err := s.paging.Normalize(page, limit)
	if err != nil {
		return model.PageResult[model.Comment]{}, model.Page{}, err
	}

	result, err := s.stores.Comments().ListByAnswer(ctx, questionID, answerID, p)
	if err != nil {
		return model.PageResult[model.Comment]{}, p, fmt.Errorf("listing comments: %w", err)
	}
	return result, p, nil
}

func (s *commentService) AddComment(ctx context.Context, in AddCommentInput) (*model.Comment, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	var (
		comment  *model.Comment
		answerBy int64
	)
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		a, err := sp.Answers().GetByID(ctx, in.AnswerID)
		if err != nil {
			return notFound(err, ErrAnswerNotFound)
		}
		if a.QuestionID != in.QuestionID {
			return ErrAnswerMismatch
		}

		c := &model.Comment{
			ID:         id.New(),
			QuestionID: in.QuestionID,
			AnswerID:   in.AnswerID,
			Text:       in.Text,
			AuthorID:   in.AuthorID,
		}
		if err := sp.Comments().Create(ctx, c); err != nil {
			return fmt.Errorf("%w: %w", ErrCommentNotCreated, err)
		}

		comment, answerBy = c, a.AuthorID
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "comment added",
		"comment_id", comment.ID,
		"answer_id", comment.AnswerID)

	if answerBy != comment.AuthorID {
		notify(ctx, s.notifier, answerBy, comment.QuestionID, model.NotificationTypeCommentAdded,
			"Someone commented on your answer.")
	}

	return comment, nil
}
