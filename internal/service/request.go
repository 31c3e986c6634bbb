package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type CreateRequestInput struct {
	RequestedBy int64
	EntityType  model.EntityType
	EntityID    int64
	Reason      string
	Details     map[string]string
}

func (in CreateRequestInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.EntityType, validation.Required,
			validation.In(model.EntityTypeQuestion, model.EntityTypeAnswer, model.EntityTypeContext)),
		validation.Field(&in.EntityID, validation.Required),
		validation.Field(&in.Reason, validation.Required, validation.Length(5, 1000)),
		validation.Field(&in.Details, validation.By(func(any) error {
			allowed := editableFields[in.EntityType]
			for k := range in.Details {
				if !allowed[k] {
					return fmt.Errorf("field %q cannot be changed on a %s", k, in.EntityType)
				}
			}
			return nil
		})),
	)
}

type UpdateRequestStatusInput struct {
	ReviewerID int64
	RequestID  int64
	Status     model.RequestStatus
	Response   string
}

type RequestService interface {
	Create(ctx context.Context, in CreateRequestInput) (*model.Request, error)
	Get(ctx context.Context, requestID int64) (*model.Request, error)
	List(ctx context.Context, status *model.RequestStatus, page, limit int) (model.PageResult[model.Request], model.Page, error)
	UpdateStatus(ctx context.Context, in UpdateRequestStatusInput) (*model.Request, error)
	// GetDiff compares the flagged entity with the values the request asks for.
	GetDiff(ctx context.Context, requestID int64) (*model.RequestDiff, error)
	// SoftDelete hides the request. Only its author or an admin may do this.
	SoftDelete(ctx context.Context, actorID int64, role model.Role, requestID int64) error
}

type requestService struct {
	stores   StoreProvider
	txRunner TxRunner
	notifier Notifier
	paging   Paging
}

func NewRequestService(stores StoreProvider, txRunner TxRunner, notifier Notifier, paging Paging) RequestService {
	return &requestService{
		stores:   stores,
		txRunner: txRunner,
		notifier: notifier,
		paging:   paging,
	}
}

var editableFields = map[model.EntityType]map[string]bool{
	model.EntityTypeQuestion: {"text": true, "details": true, "priority": true, "status": true},
	model.EntityTypeAnswer:   {"text": true, "sources": true},
	model.EntityTypeContext:  {"text": true},
}

func (s *requestService) Create(ctx context.Context, in CreateRequestInput) (*model.Request, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	if _, err := entityFields(ctx, s.stores, in.EntityType, in.EntityID); err != nil {
		return nil, err
	}

	r := &model.Request{
		ID:          id.New(),
		RequestedBy: in.RequestedBy,
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		Reason:      in.Reason,
		Details:     in.Details,
		Status:      model.RequestStatusPending,
		Responses:   []model.RequestResponse{},
	}
	if err := s.stores.Requests().Create(ctx, r); err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	slog.InfoContext(ctx, "request created",
		"request_id", r.ID,
		"entity_type", r.EntityType,
		"entity_id", r.EntityID)

	return r, nil
}

func (s *requestService) Get(ctx context.Context, requestID int64) (*model.Request, error) {
	r, err := s.stores.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, ErrRequestNotFound)
	}
	if r.IsDeleted {
		return nil, ErrRequestNotFound
	}
	return r, nil
}

func (s *requestService) List(ctx context.Context, status *model.RequestStatus, page, limit int) (model.PageResult[model.Request], model.Page, error) {
	if status != nil && !status.IsValid() {
		return model.PageResult[model.Request]{}, model.Page{}, invalid(validation.Errors{"status": validation.ErrInInvalid})
	}
	p, err := s.paging.Normalize(page, limit)
	if err != nil {
		return model.PageResult[model.Request]{}, model.Page{}, err
	}

	result, err := s.stores.Requests().List(ctx, model.RequestFilter{Status: status}, p)
	if err != nil {
		return model.PageResult[model.Request]{}, p, fmt.Errorf("listing requests: %w", err)
	}
	return result, p, nil
}

func (s *requestService) UpdateStatus(ctx context.Context, in UpdateRequestStatusInput) (*model.Request, error) {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Status, validation.Required,
			validation.In(model.RequestStatusInReview, model.RequestStatusApproved, model.RequestStatusRejected)),
		validation.Field(&in.Response, validation.Length(0, 2000)),
	)
	if err != nil {
		return nil, invalid(err)
	}

	var updated *model.Request
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		r, err := sp.Requests().GetByID(ctx, in.RequestID)
		if err != nil {
			return notFound(err, ErrRequestNotFound)
		}
		if r.IsDeleted {
			return ErrRequestNotFound
		}
		if !r.Status.CanTransitionTo(in.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, in.Status)
		}

		r.Status = in.Status
		r.Responses = append(r.Responses, model.RequestResponse{
			Status:     in.Status,
			ReviewerID: in.ReviewerID,
			Response:   strings.TrimSpace(in.Response),
			At:         time.Now().UTC(),
		})
		if err := sp.Requests().Update(ctx, r); err != nil {
			return fmt.Errorf("updating request: %w", err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "request status updated",
		"request_id", updated.ID,
		"status", updated.Status)

	notify(ctx, s.notifier, updated.RequestedBy, updated.ID, model.NotificationTypeRequestUpdated,
		fmt.Sprintf("Your request is now %s.", updated.Status))

	return updated, nil
}

func (s *requestService) GetDiff(ctx context.Context, requestID int64) (*model.RequestDiff, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	current, err := entityFields(ctx, s.stores, r.EntityType, r.EntityID)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]string, len(r.Details))
	changed := []string{}
	for k, v := range r.Details {
		requested[k] = v
		if current[k] != v {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)

	return &model.RequestDiff{
		Request:   r,
		Current:   current,
		Requested: requested,
		Changed:   changed,
	}, nil
}

func (s *requestService) SoftDelete(ctx context.Context, actorID int64, role model.Role, requestID int64) error {
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		r, err := sp.Requests().GetByID(ctx, requestID)
		if err != nil {
			return notFound(err, ErrRequestNotFound)
		}
		if r.IsDeleted {
			return ErrRequestNotFound
		}
		if r.RequestedBy != actorID && role != model.RoleAdmin {
			return ErrNotOwner
		}

		r.IsDeleted = true
		if err := sp.Requests().Update(ctx, r); err != nil {
			return fmt.Errorf("deleting request: %w", err)
		}
		return nil
	})
}

// entityFields loads the editable fields of the flagged entity as strings.
func entityFields(ctx context.Context, sp StoreProvider, entityType model.EntityType, entityID int64) (map[string]string, error) {
	switch entityType {
	case model.EntityTypeQuestion:
		q, err := sp.Questions().GetByID(ctx, entityID)
		if err != nil {
			return nil, notFound(err, ErrQuestionNotFound)
		}
		return map[string]string{
			"text":     q.Text,
			"details":  q.Details,
			"priority": string(q.Priority),
			"status":   string(q.Status),
		}, nil
	case model.EntityTypeAnswer:
		a, err := sp.Answers().GetByID(ctx, entityID)
		if err != nil {
			return nil, notFound(err, ErrAnswerNotFound)
		}
		return map[string]string{
			"text":    a.Text,
			"sources": strings.Join(a.Sources, "\n"),
		}, nil
	case model.EntityTypeContext:
		c, err := sp.Contexts().GetByID(ctx, entityID)
		if err != nil {
			return nil, notFound(err, ErrContextNotFound)
		}
		return map[string]string{"text": c.Text}, nil
	}
	return nil, invalid(validation.Errors{"entity_type": validation.ErrInInvalid})
}
