package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

type AssignReRouteInput struct {
	ModeratorID int64
	QuestionID  int64
	AnswerID    *int64
	ExpertID    int64
	Comment     string
}

type RejectReRouteInput struct {
	ActorID    int64
	ActorRole  model.Role
	QuestionID int64
	Reason     string
}

type ReRouteService interface {
	Assign(ctx context.Context, in AssignReRouteInput) (*model.ReRouteHistory, error)
	// Reject declines the pending re-route. Experts decline their own
	// assignment; admins withdraw it.
	Reject(ctx context.Context, in RejectReRouteInput) (*model.ReRouteHistory, error)
	History(ctx context.Context, questionID int64) ([]model.ReRouteHistory, error)
}

type reRouteService struct {
	stores   StoreProvider
	txRunner TxRunner
	notifier Notifier
}

func NewReRouteService(stores StoreProvider, txRunner TxRunner, notifier Notifier) ReRouteService {
	return &reRouteService{
		stores:   stores,
		txRunner: txRunner,
		notifier: notifier,
	}
}

func validateReRouteComment(comment string) error {
	if err := validation.Validate(comment, validation.Length(0, 1000)); err != nil {
		return invalid(validation.Errors{"comment": err})
	}
	return nil
}

func (s *reRouteService) Assign(ctx context.Context, in AssignReRouteInput) (*model.ReRouteHistory, error) {
	if err := validateReRouteComment(in.Comment); err != nil {
		return nil, err
	}

	var entry *model.ReRouteHistory
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		q, err := sp.Questions().GetByID(ctx, in.QuestionID)
		if err != nil {
			return notFound(err, ErrQuestionNotFound)
		}
		if !q.AcceptsAnswers() {
			return ErrQuestionNotOpen
		}

		if in.AnswerID != nil {
			a, err := sp.Answers().GetByID(ctx, *in.AnswerID)
			if err != nil {
				return notFound(err, ErrAnswerNotFound)
			}
			if a.QuestionID != q.ID {
				return ErrAnswerMismatch
			}
		}

		h, err := assignReRoute(ctx, sp, q, in.AnswerID, in.ExpertID, in.ModeratorID, in.Comment)
		if err != nil {
			return err
		}
		if err := sp.Questions().Update(ctx, q); err != nil {
			return fmt.Errorf("updating question: %w", err)
		}
		entry = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "question re-routed",
		"question_id", in.QuestionID,
		"expert_id", in.ExpertID)

	notify(ctx, s.notifier, in.ExpertID, in.QuestionID, model.NotificationTypeQuestionRerouted,
		"A question was routed to you.")

	return entry, nil
}

// assignReRoute validates the target expert, appends a pending entry and points
// the question at the expert. The caller persists the question.
func assignReRoute(ctx context.Context, sp StoreProvider, q *model.Question, answerID *int64, expertID, moderatorID int64, comment string) (*model.ReRouteHistory, error) {
	if expertID == moderatorID {
		return nil, ErrSelfAction
	}

	expert, err := sp.Users().GetByID(ctx, expertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrExpertUnavailable
		}
		return nil, fmt.Errorf("loading expert: %w", err)
	}
	if expert.Role != model.RoleExpert || expert.IsBlocked {
		return nil, ErrExpertUnavailable
	}

	h := &model.ReRouteHistory{
		ID:          id.New(),
		QuestionID:  q.ID,
		AnswerID:    answerID,
		ExpertID:    expertID,
		ModeratorID: moderatorID,
		Status:      model.ReRouteStatusPending,
		Comment:     comment,
	}
	if err := sp.ReRoutes().Append(ctx, h); err != nil {
		return nil, fmt.Errorf("appending re-route history: %w", err)
	}

	q.AssignedExpertID = &expertID
	return h, nil
}

func (s *reRouteService) Reject(ctx context.Context, in RejectReRouteInput) (*model.ReRouteHistory, error) {
	if err := validateReRouteComment(in.Reason); err != nil {
		return nil, err
	}

	var entry *model.ReRouteHistory
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		q, err := sp.Questions().GetByID(ctx, in.QuestionID)
		if err != nil {
			return notFound(err, ErrQuestionNotFound)
		}

		latest, err := sp.ReRoutes().Latest(ctx, q.ID)
		if err != nil {
			return notFound(err, ErrNoPendingReRoute)
		}
		if latest.Status != model.ReRouteStatusPending {
			return ErrNoPendingReRoute
		}

		var status model.ReRouteStatus
		switch in.ActorRole {
		case model.RoleExpert:
			if latest.ExpertID != in.ActorID {
				return ErrNotAssignee
			}
			status = model.ReRouteStatusExpertRejected
		case model.RoleAdmin:
			status = model.ReRouteStatusModeratorRejected
		default:
			return ErrNotPermitted
		}

		h := &model.ReRouteHistory{
			ID:          id.New(),
			QuestionID:  q.ID,
			AnswerID:    latest.AnswerID,
			ExpertID:    latest.ExpertID,
			ModeratorID: latest.ModeratorID,
			Status:      status,
			Comment:     in.Reason,
		}
		if err := sp.ReRoutes().Append(ctx, h); err != nil {
			return fmt.Errorf("appending re-route history: %w", err)
		}

		if q.AssignedExpertID != nil && *q.AssignedExpertID == latest.ExpertID {
			q.AssignedExpertID = nil
			if err := sp.Questions().Update(ctx, q); err != nil {
				return fmt.Errorf("updating question: %w", err)
			}
		}
		entry = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "re-route rejected",
		"question_id", in.QuestionID,
		"status", entry.Status)

	if entry.Status == model.ReRouteStatusExpertRejected {
		notify(ctx, s.notifier, entry.ModeratorID, entry.QuestionID, model.NotificationTypeRerouteRejected,
			"An expert declined a re-routed question.")
	} else {
		notify(ctx, s.notifier, entry.ExpertID, entry.QuestionID, model.NotificationTypeRerouteRejected,
			"A question routed to you was withdrawn.")
	}

	return entry, nil
}

func (s *reRouteService) History(ctx context.Context, questionID int64) ([]model.ReRouteHistory, error) {
	if _, err := s.stores.Questions().GetByID(ctx, questionID); err != nil {
		return nil, notFound(err, ErrQuestionNotFound)
	}
	history, err := s.stores.ReRoutes().ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing re-route history: %w", err)
	}
	return history, nil
}
