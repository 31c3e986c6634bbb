package service

import (
	"context"
	"fmt"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type PerformanceService interface {
	ExpertStats(ctx context.Context, expertID int64) (*model.ExpertStats, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
}

type performanceService struct {
	stores StoreProvider
}

func NewPerformanceService(stores StoreProvider) PerformanceService {
	return &performanceService{stores: stores}
}

func (s *performanceService) ExpertStats(ctx context.Context, expertID int64) (*model.ExpertStats, error) {
	if _, err := s.stores.Users().GetByID(ctx, expertID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	stats, err := s.stores.Answers().StatsByAuthor(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("loading answer stats: %w", err)
	}
	reroutes, err := s.stores.ReRoutes().StatsByExpert(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("loading re-route stats: %w", err)
	}

	stats.ExpertID = expertID
	stats.ReRoutesReceived = reroutes.ReRoutesReceived
	stats.ReRoutesRejected = reroutes.ReRoutesRejected
	stats.ReRoutesCompleted = reroutes.ReRoutesCompleted
	return &stats, nil
}

func (s *performanceService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	byStatus, err := s.stores.Questions().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting questions: %w", err)
	}
	experts, err := s.stores.Users().CountExperts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting experts: %w", err)
	}
	pending, err := s.stores.Requests().CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting pending requests: %w", err)
	}

	for _, st := range []model.QuestionStatus{
		model.QuestionStatusOpen,
		model.QuestionStatusInReview,
		model.QuestionStatusClosed,
		model.QuestionStatusExpired,
	} {
		if _, ok := byStatus[st]; !ok {
			byStatus[st] = 0
		}
	}

	return &model.Dashboard{
		QuestionsByStatus: byStatus,
		TotalExperts:      experts.Total,
		BlockedExperts:    experts.Blocked,
		PendingRequests:   pending,
	}, nil
}
