package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

// QuestionIndex is the full-text index over question text.
type QuestionIndex interface {
	Index(ctx context.Context, q *model.Question) error
	Search(ctx context.Context, query string, limit int) ([]int64, error)
}

type CreateQuestionInput struct {
	AuthorID  int64
	Text      string
	Details   string
	ContextID *int64
	Priority  model.Priority
}

func (in CreateQuestionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, validation.Required, validation.Length(5, 2000)),
		validation.Field(&in.Details, validation.Length(0, 5000)),
		validation.Field(&in.Priority, validation.In(model.PriorityLow, model.PriorityMedium, model.PriorityHigh)),
	)
}

type QuestionService interface {
	Create(ctx context.Context, in CreateQuestionInput) (*model.Question, error)
	Get(ctx context.Context, questionID int64) (*model.Question, error)
	List(ctx context.Context, filter model.QuestionFilter, page, limit int) (model.PageResult[model.Question], model.Page, error)
	Search(ctx context.Context, query string, limit int) ([]model.Question, error)
	// ExpireStale marks open questions without answers older than the expiry window as expired.
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	// Reindex loads every question into the search index.
	Reindex(ctx context.Context) (int, error)
}

type questionService struct {
	stores       StoreProvider
	index        QuestionIndex
	paging       Paging
	expiryWindow time.Duration
}

func NewQuestionService(stores StoreProvider, index QuestionIndex, paging Paging, expiryWindow time.Duration) QuestionService {
	return &questionService{
		stores:       stores,
		index:        index,
		paging:       paging,
		expiryWindow: expiryWindow,
	}
}

func (s *questionService) Create(ctx context.Context, in CreateQuestionInput) (*model.Question, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	if in.ContextID != nil {
		if _, err := s.stores.Contexts().GetByID(ctx, *in.ContextID); err != nil {
			return nil, notFound(err, ErrContextNotFound)
		}
	}

	q := &model.Question{
		ID:        id.New(),
		Text:      in.Text,
		Details:   in.Details,
		Status:    model.QuestionStatusOpen,
		ContextID: in.ContextID,
		Priority:  in.Priority,
		CreatedBy: in.AuthorID,
	}
	if err := s.stores.Questions().Create(ctx, q); err != nil {
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.indexQuestion(ctx, q)

	slog.InfoContext(ctx, "question created",
		"question_id", q.ID,
		"priority", q.Priority)

	return q, nil
}

func (s *questionService) indexQuestion(ctx context.Context, q *model.Question) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, q); err != nil {
		slog.WarnContext(ctx, "failed to index question", "error", err, "question_id", q.ID)
	}
}

func (s *questionService) Get(ctx context.Context, questionID int64) (*model.Question, error) {
	q, err := s.stores.Questions().GetByID(ctx, questionID)
	if err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}
	return q, nil
}

func (s *questionService) List(ctx context.Context, filter model.QuestionFilter, page, limit int) (model.PageResult[model.Question], model.Page, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return model.PageResult[model.Question]{}, model.Page{}, invalid(validation.Errors{"status": validation.ErrInInvalid})
	}
	p, err := s.paging.Normalize(page, limit)
	if err != nil {
		return model.PageResult[model.Question]{}, model.Page{}, err
	}

	result, err := s.stores.Questions().List(ctx, filter, p)
	if err != nil {
		return model.PageResult[model.Question]{}, p, fmt.Errorf("listing questions: %w", err)
	}
	return result, p, nil
}

func (s *questionService) Search(ctx context.Context, query string, limit int) ([]model.Question, error) {
	query = strings.TrimSpace(query)
	if err := validation.Validate(query, validation.Required, validation.Length(2, 200)); err != nil {
		return nil, invalid(validation.Errors{"q": err})
	}
	if s.index == nil {
		return nil, fmt.Errorf("search %w", ErrUnavailable)
	}
	if limit <= 0 || limit > s.paging.MaxLimit {
		limit = s.paging.DefaultLimit
	}

	ids, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching questions: %w", err)
	}
	if len(ids) == 0 {
		return []model.Question{}, nil
	}

	found, err := s.stores.Questions().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading search hits: %w", err)
	}
	return found, nil
}

func (s *questionService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.expiryWindow)
	n, err := s.stores.Questions().ExpireStale(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("expiring questions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "stale questions expired", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (s *questionService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	const batch = 200
	indexed := 0
	for page := 1; ; page++ {
		result, err := s.stores.Questions().List(ctx, model.QuestionFilter{}, model.Page{Page: page, Limit: batch})
		if err != nil {
			return indexed, fmt.Errorf("listing questions for reindex: %w", err)
		}
		for i := range result.Items {
			if err := s.index.Index(ctx, &result.Items[i]); err != nil {
				return indexed, fmt.Errorf("indexing question %d: %w", result.Items[i].ID, err)
			}
			indexed++
		}
		if len(result.Items) < batch {
			return indexed, nil
		}
	}
}
