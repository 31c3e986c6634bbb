package handler_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/middleware"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

// asUser stands in for RequireAuth.
func asUser(u *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.WithUser(c.Request.Context(), u))
		c.Next()
	}
}

type mockQuestionService struct {
	createFn func(ctx context.Context, in service.CreateQuestionInput) (*model.Question, error)
	listFn   func(ctx context.Context, filter model.QuestionFilter, page, limit int) (model.PageResult[model.Question], model.Page, error)
	searchFn func(ctx context.Context, query string, limit int) ([]model.Question, error)
}

func (m *mockQuestionService) Create(ctx context.Context, in service.CreateQuestionInput) (*model.Question, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Question{}, nil
}

func (m *mockQuestionService) Get(context.Context, int64) (*model.Question, error) {
	return nil, service.ErrQuestionNotFound
}

func (m *mockQuestionService) List(ctx context.Context, filter model.QuestionFilter, page, limit int) (model.PageResult[model.Question], model.Page, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, page, limit)
	}
	return model.PageResult[model.Question]{}, model.Page{Page: 1, Limit: 10}, nil
}

func (m *mockQuestionService) Search(ctx context.Context, query string, limit int) ([]model.Question, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockQuestionService) ExpireStale(context.Context, time.Time) (int, error) { return 0, nil }
func (m *mockQuestionService) Reindex(context.Context) (int, error)                { return 0, nil }

type mockAnswerService struct {
	addFn     func(ctx context.Context, in service.AddAnswerInput) (*model.Answer, error)
	reviewFn  func(ctx context.Context, in service.ReviewAnswerInput) (*model.Answer, error)
	deleteFn  func(ctx context.Context, answerID int64) error
	addCalls  int
	lastInput service.AddAnswerInput
}

func (m *mockAnswerService) Add(ctx context.Context, in service.AddAnswerInput) (*model.Answer, error) {
	m.addCalls++
	m.lastInput = in
	if m.addFn != nil {
		return m.addFn(ctx, in)
	}
	return &model.Answer{ID: 1, QuestionID: in.QuestionID, AuthorID: in.AuthorID, Iteration: 1}, nil
}

func (m *mockAnswerService) Review(ctx context.Context, in service.ReviewAnswerInput) (*model.Answer, error) {
	if m.reviewFn != nil {
		return m.reviewFn(ctx, in)
	}
	return &model.Answer{ID: in.AnswerID}, nil
}

func (m *mockAnswerService) ReRouteReview(_ context.Context, in service.ReRouteReviewInput) (*model.ReRouteHistory, error) {
	return &model.ReRouteHistory{AnswerID: &in.AnswerID, ExpertID: in.ExpertID}, nil
}

func (m *mockAnswerService) Delete(ctx context.Context, answerID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, answerID)
	}
	return nil
}

func (m *mockAnswerService) ListByQuestion(context.Context, int64) ([]model.Answer, error) {
	return []model.Answer{}, nil
}

type mockCommentService struct {
	getCommentsFn func(ctx context.Context, questionID, answerID int64, page, limit int) (model.PageResult[model.Comment], model.Page, error)
	addCommentFn  func(ctx context.Context, in service.AddCommentInput) (*model.Comment, error)
}

func (m *mockCommentService) GetComments(ctx context.Context, questionID, answerID int64, page, limit int) (model.PageResult[model.Comment], model.Page, error) {
	if m.getCommentsFn != nil {
		return m.getCommentsFn(ctx, questionID, answerID, page, limit)
	}
	return model.PageResult[model.Comment]{}, model.Page{Page: 1, Limit: 10}, nil
}

func (m *mockCommentService) AddComment(ctx context.Context, in service.AddCommentInput) (*model.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, in)
	}
	return &model.Comment{QuestionID: in.QuestionID, AnswerID: in.AnswerID, Text: in.Text}, nil
}

type mockRequestService struct {
	softDeleteFn   func(ctx context.Context, actorID int64, role model.Role, requestID int64) error
	updateStatusFn func(ctx context.Context, in service.UpdateRequestStatusInput) (*model.Request, error)
}

func (m *mockRequestService) Create(_ context.Context, in service.CreateRequestInput) (*model.Request, error) {
	return &model.Request{RequestedBy: in.RequestedBy, EntityType: in.EntityType, EntityID: in.EntityID, Status: model.RequestStatusPending}, nil
}

func (m *mockRequestService) Get(context.Context, int64) (*model.Request, error) {
	return nil, service.ErrRequestNotFound
}

func (m *mockRequestService) List(context.Context, *model.RequestStatus, int, int) (model.PageResult[model.Request], model.Page, error) {
	return model.PageResult[model.Request]{}, model.Page{Page: 1, Limit: 10}, nil
}

func (m *mockRequestService) UpdateStatus(ctx context.Context, in service.UpdateRequestStatusInput) (*model.Request, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, in)
	}
	return &model.Request{ID: in.RequestID, Status: in.Status}, nil
}

func (m *mockRequestService) GetDiff(context.Context, int64) (*model.RequestDiff, error) {
	return nil, service.ErrRequestNotFound
}

func (m *mockRequestService) SoftDelete(ctx context.Context, actorID int64, role model.Role, requestID int64) error {
	if m.softDeleteFn != nil {
		return m.softDeleteFn(ctx, actorID, role, requestID)
	}
	return nil
}

type mockNotificationService struct {
	listFn func(ctx context.Context, userID int64, page, limit int) (service.NotificationPage, model.Page, error)
}

func (m *mockNotificationService) Add(context.Context, int64, int64, model.NotificationType, string) (*model.Notification, error) {
	return &model.Notification{}, nil
}

func (m *mockNotificationService) List(ctx context.Context, userID int64, page, limit int) (service.NotificationPage, model.Page, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, page, limit)
	}
	return service.NotificationPage{}, model.Page{Page: 1, Limit: 10}, nil
}

func (m *mockNotificationService) MarkAsRead(context.Context, int64, int64) error {
	return service.ErrNotificationNotFound
}

func (m *mockNotificationService) MarkAllAsRead(context.Context, int64) (int, error) { return 3, nil }
func (m *mockNotificationService) Delete(context.Context, int64, int64) error        { return nil }

func (m *mockNotificationService) SaveSubscription(context.Context, int64, model.PushSubscription) error {
	return nil
}

func (m *mockNotificationService) AutoDelete(context.Context, time.Time) (int, error) { return 0, nil }

type mockPerformanceService struct {
	expertStatsCalls int
}

func (m *mockPerformanceService) ExpertStats(_ context.Context, expertID int64) (*model.ExpertStats, error) {
	m.expertStatsCalls++
	return &model.ExpertStats{ExpertID: expertID, AnswersSubmitted: 4}, nil
}

func (m *mockPerformanceService) Dashboard(context.Context) (*model.Dashboard, error) {
	return &model.Dashboard{}, nil
}

type mockJobRunner struct {
	runFn func(ctx context.Context, name string) error
	ran   []string
}

func (m *mockJobRunner) Run(ctx context.Context, name string) error {
	m.ran = append(m.ran, name)
	if m.runFn != nil {
		return m.runFn(ctx, name)
	}
	return nil
}

type mockContextService struct {
	createFn func(ctx context.Context, authorID int64, text string) (*model.Context, error)
	getFn    func(ctx context.Context, contextID int64) (*model.Context, error)
}

func (m *mockContextService) Create(ctx context.Context, authorID int64, text string) (*model.Context, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, text)
	}
	return &model.Context{CreatedBy: authorID, Text: text}, nil
}

func (m *mockContextService) Get(ctx context.Context, contextID int64) (*model.Context, error) {
	if m.getFn != nil {
		return m.getFn(ctx, contextID)
	}
	return nil, service.ErrContextNotFound
}
