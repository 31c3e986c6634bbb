package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/common/llm"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

type AddAnswerInput struct {
	AuthorID   int64
	AuthorRole model.Role
	QuestionID int64
	Text       string
	Sources    []string
	// IsFinal is honoured for admins only; experts reach final through review.
	IsFinal bool
}

func (in AddAnswerInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, validation.Required, validation.Length(1, 10000)),
		validation.Field(&in.Sources, validation.Length(0, 20), validation.Each(validation.Required, is.URL)),
	)
}

type ReviewAnswerInput struct {
	ReviewerID   int64
	ReviewerRole model.Role
	AnswerID     int64
	Action       model.ReviewAction
	Remarks      string
}

func (in ReviewAnswerInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Action, validation.Required, validation.In(model.ReviewActionApprove, model.ReviewActionReject)),
		validation.Field(&in.Remarks, validation.Length(0, 2000)),
	)
}

type ReRouteReviewInput struct {
	ModeratorID int64
	AnswerID    int64
	ExpertID    int64
	Comment     string
}

type AnswerService interface {
	Add(ctx context.Context, in AddAnswerInput) (*model.Answer, error)
	Review(ctx context.Context, in ReviewAnswerInput) (*model.Answer, error)
	// ReRouteReview rejects the answer and hands the question to another expert.
	ReRouteReview(ctx context.Context, in ReRouteReviewInput) (*model.ReRouteHistory, error)
	Delete(ctx context.Context, answerID int64) error
	ListByQuestion(ctx context.Context, questionID int64) ([]model.Answer, error)
}

type answerService struct {
	stores            StoreProvider
	txRunner          TxRunner
	notifier          Notifier
	embedder          llm.Embedder
	approvalThreshold int
}

func NewAnswerService(stores StoreProvider, txRunner TxRunner, notifier Notifier, embedder llm.Embedder, approvalThreshold int) AnswerService {
	if approvalThreshold < 1 {
		approvalThreshold = 1
	}
	return &answerService{
		stores:            stores,
		txRunner:          txRunner,
		notifier:          notifier,
		embedder:          embedder,
		approvalThreshold: approvalThreshold,
	}
}

func (s *answerService) Add(ctx context.Context, in AddAnswerInput) (*model.Answer, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	if !in.AuthorRole.CanAnswer() {
		return nil, ErrNotPermitted
	}

	embedding := s.embed(ctx, in.Text)

	var (
		answer   *model.Answer
		question *model.Question
	)
	err := retryOnConflict(ctx, "add_answer", func() error {
		return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
			q, err := sp.Questions().GetByID(ctx, in.QuestionID)
			if err != nil {
				return notFound(err, ErrQuestionNotFound)
			}
			if !q.AcceptsAnswers() {
				return ErrQuestionNotOpen
			}

			maxIteration, err := sp.Answers().MaxIteration(ctx, q.ID)
			if err != nil {
				return fmt.Errorf("reading iteration: %w", err)
			}

			a := &model.Answer{
				ID:           id.New(),
				QuestionID:   q.ID,
				AuthorID:     in.AuthorID,
				Iteration:    maxIteration + 1,
				Text:         in.Text,
				Sources:      in.Sources,
				ReviewStatus: model.ReviewStatusPending,
				Embedding:    embedding,
			}
			final := in.IsFinal && in.AuthorRole == model.RoleAdmin
			if final {
				a.IsFinalAnswer = true
				a.ReviewStatus = model.ReviewStatusApproved
			}

			if err := sp.Answers().Create(ctx, a); err != nil {
				return fmt.Errorf("%w: %w", ErrAnswerNotCreated, err)
			}

			q.TotalAnswersCount++
			if final {
				if err := sp.Answers().ClearFinal(ctx, q.ID, a.ID); err != nil {
					return fmt.Errorf("clearing final answers: %w", err)
				}
				closeQuestion(q)
			} else {
				q.Status = model.QuestionStatusInReview
			}

			if err := completeReRoute(ctx, sp, q, a); err != nil {
				return err
			}

			if err := sp.Questions().Update(ctx, q); err != nil {
				return fmt.Errorf("updating question: %w", err)
			}

			answer, question = a, q
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "answer added",
		"answer_id", answer.ID,
		"question_id", question.ID,
		"iteration", answer.Iteration,
		"is_final", answer.IsFinalAnswer)

	if question.CreatedBy != answer.AuthorID {
		notify(ctx, s.notifier, question.CreatedBy, question.ID, model.NotificationTypeAnswerSubmitted,
			fmt.Sprintf("A new answer (iteration %d) was submitted to your question.", answer.Iteration))
	}

	return answer, nil
}

func (s *answerService) embed(ctx context.Context, text string) []float64 {
	if s.embedder == nil {
		return nil
	}
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		slog.WarnContext(ctx, "failed to embed answer, storing without embedding", "error", err)
		return nil
	}
	return embedding
}

// completeReRoute closes a pending re-route when the routed expert answers.
func completeReRoute(ctx context.Context, sp StoreProvider, q *model.Question, a *model.Answer) error {
	if q.AssignedExpertID == nil || *q.AssignedExpertID != a.AuthorID {
		return nil
	}

	latest, err := sp.ReRoutes().Latest(ctx, q.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading re-route history: %w", err)
	}
	if latest.Status != model.ReRouteStatusPending || latest.ExpertID != a.AuthorID {
		return nil
	}

	return sp.ReRoutes().Append(ctx, &model.ReRouteHistory{
		ID:          id.New(),
		QuestionID:  q.ID,
		AnswerID:    &a.ID,
		ExpertID:    a.AuthorID,
		ModeratorID: latest.ModeratorID,
		Status:      model.ReRouteStatusCompleted,
	})
}

func closeQuestion(q *model.Question) {
	now := time.Now().UTC()
	q.Status = model.QuestionStatusClosed
	q.ClosedAt = &now
	q.AssignedExpertID = nil
}

func (s *answerService) Review(ctx context.Context, in ReviewAnswerInput) (*model.Answer, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	if !in.ReviewerRole.CanAnswer() {
		return nil, ErrNotPermitted
	}

	var (
		answer   *model.Answer
		question *model.Question
		final    bool
	)
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		a, err := sp.Answers().GetByID(ctx, in.AnswerID)
		if err != nil {
			return notFound(err, ErrAnswerNotFound)
		}
		if a.AuthorID == in.ReviewerID {
			return ErrSelfReview
		}
		if a.ReviewStatus != model.ReviewStatusPending {
			return ErrReviewClosed
		}
		if a.HasReviewed(in.ReviewerID) {
			return ErrAlreadyReviewed
		}

		q, err := sp.Questions().GetByID(ctx, a.QuestionID)
		if err != nil {
			return notFound(err, ErrQuestionNotFound)
		}
		if !q.AcceptsAnswers() {
			return ErrQuestionNotOpen
		}

		a.Reviews = append(a.Reviews, model.Review{
			ReviewerID: in.ReviewerID,
			Action:     in.Action,
			Remarks:    in.Remarks,
			At:         time.Now().UTC(),
		})

		switch in.Action {
		case model.ReviewActionApprove:
			a.ApprovalCount++
			if in.ReviewerRole == model.RoleAdmin || a.ApprovalCount >= s.approvalThreshold {
				a.IsFinalAnswer = true
				a.ReviewStatus = model.ReviewStatusApproved
				if err := sp.Answers().ClearFinal(ctx, q.ID, a.ID); err != nil {
					return fmt.Errorf("clearing final answers: %w", err)
				}
				closeQuestion(q)
				final = true
			}
		case model.ReviewActionReject:
			a.ReviewStatus = model.ReviewStatusRejected
			q.Status = model.QuestionStatusOpen
		}

		if err := sp.Answers().Update(ctx, a); err != nil {
			return fmt.Errorf("updating answer: %w", err)
		}
		if err := sp.Questions().Update(ctx, q); err != nil {
			return fmt.Errorf("updating question: %w", err)
		}

		answer, question = a, q
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "answer reviewed",
		"answer_id", answer.ID,
		"question_id", question.ID,
		"action", in.Action,
		"approval_count", answer.ApprovalCount,
		"is_final", answer.IsFinalAnswer)

	switch {
	case final:
		notify(ctx, s.notifier, answer.AuthorID, question.ID, model.NotificationTypeAnswerFinalized,
			"Your answer was selected as the final answer.")
		if question.CreatedBy != answer.AuthorID {
			notify(ctx, s.notifier, question.CreatedBy, question.ID, model.NotificationTypeAnswerFinalized,
				"Your question has a final answer.")
		}
	case in.Action == model.ReviewActionApprove:
		notify(ctx, s.notifier, answer.AuthorID, question.ID, model.NotificationTypeAnswerApproved,
			fmt.Sprintf("Your answer received an approval (%d/%d).", answer.ApprovalCount, s.approvalThreshold))
	default:
		notify(ctx, s.notifier, answer.AuthorID, question.ID, model.NotificationTypeAnswerRejected,
			"Your answer was rejected by a reviewer.")
	}

	return answer, nil
}

func (s *answerService) ReRouteReview(ctx context.Context, in ReRouteReviewInput) (*model.ReRouteHistory, error) {
	if err := validateReRouteComment(in.Comment); err != nil {
		return nil, err
	}

	var (
		answer *model.Answer
		entry  *model.ReRouteHistory
		q      *model.Question
	)
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		a, err := sp.Answers().GetByID(ctx, in.AnswerID)
		if err != nil {
			return notFound(err, ErrAnswerNotFound)
		}
		if a.AuthorID == in.ExpertID {
			return fmt.Errorf("%w: expert already authored this answer", ErrInvalidInput)
		}

		question, err := sp.Questions().GetByID(ctx, a.QuestionID)
		if err != nil {
			return notFound(err, ErrQuestionNotFound)
		}
		if !question.AcceptsAnswers() {
			return ErrQuestionNotOpen
		}

		if a.ReviewStatus == model.ReviewStatusPending {
			a.ReviewStatus = model.ReviewStatusRejected
			a.Reviews = append(a.Reviews, model.Review{
				ReviewerID: in.ModeratorID,
				Action:     model.ReviewActionReject,
				Remarks:    in.Comment,
				At:         time.Now().UTC(),
			})
			if err := sp.Answers().Update(ctx, a); err != nil {
				return fmt.Errorf("updating answer: %w", err)
			}
		}

		h, err := assignReRoute(ctx, sp, question, &a.ID, in.ExpertID, in.ModeratorID, in.Comment)
		if err != nil {
			return err
		}
		question.Status = model.QuestionStatusOpen
		if err := sp.Questions().Update(ctx, question); err != nil {
			return fmt.Errorf("updating question: %w", err)
		}

		answer, entry, q = a, h, question
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "answer re-routed",
		"answer_id", answer.ID,
		"question_id", q.ID,
		"expert_id", in.ExpertID)

	notify(ctx, s.notifier, in.ExpertID, q.ID, model.NotificationTypeQuestionRerouted,
		"A question was routed to you for a new answer.")
	notify(ctx, s.notifier, answer.AuthorID, q.ID, model.NotificationTypeAnswerRejected,
		"Your answer was rejected and the question was routed to another expert.")

	return entry, nil
}

func (s *answerService) Delete(ctx context.Context, answerID int64) error {
	var questionID int64
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		a, err := sp.Answers().GetByID(ctx, answerID)
		if err != nil {
			return notFound(err, ErrAnswerNotFound)
		}
		if err := sp.Answers().Delete(ctx, answerID); err != nil {
			return fmt.Errorf("deleting answer: %w", err)
		}

		q, err := sp.Questions().GetByID(ctx, a.QuestionID)
		if err != nil {
			return notFound(err, ErrQuestionNotFound)
		}
		summary, err := sp.Answers().Summarize(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("summarizing answers: %w", err)
		}
		recomputeQuestion(q, summary)

		if err := sp.Questions().Update(ctx, q); err != nil {
			return fmt.Errorf("updating question: %w", err)
		}
		questionID = q.ID
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "answer deleted", "answer_id", answerID, "question_id", questionID)
	return nil
}

// recomputeQuestion re-derives counters and status after answers were removed.
// Expired questions stay expired; closed ones reopen if they lost their final answer.
func recomputeQuestion(q *model.Question, summary model.AnswerSummary) {
	q.TotalAnswersCount = summary.Count
	if q.Status == model.QuestionStatusExpired {
		return
	}
	if q.Status == model.QuestionStatusClosed && summary.HasFinal {
		return
	}

	q.ClosedAt = nil
	if summary.Count == 0 {
		q.Status = model.QuestionStatusOpen
	} else {
		q.Status = model.QuestionStatusInReview
	}
}

func (s *answerService) ListByQuestion(ctx context.Context, questionID int64) ([]model.Answer, error) {
	if _, err := s.stores.Questions().GetByID(ctx, questionID); err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}
	answers, err := s.stores.Answers().ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	return answers, nil
}
