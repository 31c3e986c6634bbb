package handler_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vicharanashala/ajrasakha-sub003/internal/http/handler"
	"github.com/vicharanashala/ajrasakha-sub003/internal/jobs"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

var _ = Describe("CommentHandler", func() {
	var (
		router *gin.Engine
		svc    *mockCommentService
	)

	BeforeEach(func() {
		svc = &mockCommentService{}
		h := handler.NewCommentHandler(svc)
		router = gin.New()
		rg := router.Group("/comments", asUser(&model.User{ID: 100, Role: model.RoleUser}))
		rg.GET("/question/:questionId/answer/:answerId", h.List)
		rg.POST("/question/:questionId/answer/:answerId", h.Add)
	})

	It("returns the page envelope", func() {
		svc.getCommentsFn = func(_ context.Context, questionID, answerID int64, page, limit int) (model.PageResult[model.Comment], model.Page, error) {
			Expect(questionID).To(Equal(int64(1)))
			Expect(answerID).To(Equal(int64(2)))
			Expect(page).To(Equal(3))
			Expect(limit).To(Equal(0))
			return model.PageResult[model.Comment]{Total: 25}, model.Page{Page: 3, Limit: 10}, nil
		}

		w := perform(router, http.MethodGet, "/comments/question/1/answer/2?page=3", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["items"]).To(BeEmpty())
		Expect(resp["items"]).NotTo(BeNil())
		Expect(resp["total"]).To(BeEquivalentTo(25))
		Expect(resp["page"]).To(BeEquivalentTo(3))
		Expect(resp["limit"]).To(BeEquivalentTo(10))
	})

	It("rejects a limit over 100", func() {
		w := perform(router, http.MethodGet, "/comments/question/1/answer/2?limit=101", nil)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(w)["fields"]).To(HaveKeyWithValue("limit", "max"))
	})

	It("returns 400 when the answer belongs to another question", func() {
		svc.addCommentFn = func(context.Context, service.AddCommentInput) (*model.Comment, error) {
			return nil, service.ErrAnswerMismatch
		}

		w := perform(router, http.MethodPost, "/comments/question/1/answer/2", map[string]any{"text": "Which dose?"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 500 when the comment was not created", func() {
		svc.addCommentFn = func(context.Context, service.AddCommentInput) (*model.Comment, error) {
			return nil, service.ErrCommentNotCreated
		}

		w := perform(router, http.MethodPost, "/comments/question/1/answer/2", map[string]any{"text": "Which dose?"})
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("RequestHandler", func() {
	var (
		router *gin.Engine
		svc    *mockRequestService
		user   *model.User
	)

	BeforeEach(func() {
		svc = &mockRequestService{}
		user = &model.User{ID: 100, Role: model.RoleUser}
		h := handler.NewRequestHandler(svc)
		router = gin.New()
		rg := router.Group("/requests", asUser(user))
		rg.POST("", h.Create)
		rg.PATCH("/:requestId/status", h.UpdateStatus)
		rg.DELETE("/:requestId", h.Delete)
	})

	It("validates the entity type", func() {
		w := perform(router, http.MethodPost, "/requests", map[string]any{
			"entity_type": "comment",
			"entity_id":   "7",
			"reason":      "typo",
		})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(w)["fields"]).To(HaveKeyWithValue("entity_type", "entity_type"))
	})

	It("creates a request for the caller", func() {
		w := perform(router, http.MethodPost, "/requests", map[string]any{
			"entity_type": "answer",
			"entity_id":   "7",
			"reason":      "dose is wrong",
			"details":     map[string]string{"text": "Use 2 ml per litre"},
		})

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(decode(w)).To(HaveKeyWithValue("requested_by", "100"))
	})

	It("returns 409 for a transition out of a final status", func() {
		svc.updateStatusFn = func(context.Context, service.UpdateRequestStatusInput) (*model.Request, error) {
			return nil, service.ErrInvalidTransition
		}

		w := perform(router, http.MethodPatch, "/requests/9/status", map[string]any{"status": "approved"})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 403 when a non-owner deletes", func() {
		svc.softDeleteFn = func(_ context.Context, actorID int64, role model.Role, requestID int64) error {
			Expect(actorID).To(Equal(int64(100)))
			Expect(role).To(Equal(model.RoleUser))
			Expect(requestID).To(Equal(int64(9)))
			return service.ErrNotOwner
		}

		w := perform(router, http.MethodDelete, "/requests/9", nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})
})

var _ = Describe("NotificationHandler", func() {
	var router *gin.Engine

	BeforeEach(func() {
		svc := &mockNotificationService{
			listFn: func(_ context.Context, userID int64, _, _ int) (service.NotificationPage, model.Page, error) {
				return service.NotificationPage{
					PageResult: model.PageResult[model.Notification]{
						Items: []model.Notification{{ID: 1, UserID: userID, EntityID: 1000, Type: model.NotificationTypeAnswerApproved, CreatedAt: time.Now()}},
						Total: 1,
					},
					Unread: 1,
				}, model.Page{Page: 1, Limit: 10}, nil
			},
		}
		h := handler.NewNotificationHandler(svc)
		router = gin.New()
		rg := router.Group("/notifications", asUser(&model.User{ID: 100}))
		rg.GET("", h.List)
		rg.PATCH("/read-all", h.MarkAllAsRead)
		rg.PATCH("/:notificationId/read", h.MarkAsRead)
		rg.POST("/subscription", h.SaveSubscription)
	})

	It("lists with the unread count", func() {
		w := perform(router, http.MethodGet, "/notifications", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["unread"]).To(BeEquivalentTo(1))
		Expect(resp["items"]).To(HaveLen(1))
		Expect(resp["items"].([]any)[0]).To(HaveKeyWithValue("entity_id", "1000"))
	})

	It("returns 404 for someone else's notification", func() {
		w := perform(router, http.MethodPatch, "/notifications/5/read", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("reports how many were marked read", func() {
		w := perform(router, http.MethodPatch, "/notifications/read-all", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["count"]).To(BeEquivalentTo(3))
	})

	It("requires subscription keys", func() {
		w := perform(router, http.MethodPost, "/notifications/subscription", map[string]any{
			"endpoint": "https://fcm.googleapis.com/fcm/send/abc",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("PerformanceHandler", func() {
	var (
		router *gin.Engine
		svc    *mockPerformanceService
		caller *model.User
	)

	BeforeEach(func() {
		svc = &mockPerformanceService{}
		caller = &model.User{ID: 200, Role: model.RoleExpert}
		h := handler.NewPerformanceHandler(svc)
		router = gin.New()
		router.GET("/performance/experts/:expertId", func(c *gin.Context) { asUser(caller)(c) }, h.ExpertStats)
	})

	It("lets experts read their own stats", func() {
		w := perform(router, http.MethodGet, "/performance/experts/200", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)).To(HaveKeyWithValue("expert_id", "200"))
	})

	It("forbids experts reading someone else", func() {
		w := perform(router, http.MethodGet, "/performance/experts/201", nil)

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(svc.expertStatsCalls).To(Equal(0))
	})

	It("lets admins read anyone", func() {
		caller = &model.User{ID: 300, Role: model.RoleAdmin}

		w := perform(router, http.MethodGet, "/performance/experts/201", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("JobHandler", func() {
	var (
		router *gin.Engine
		runner *mockJobRunner
	)

	BeforeEach(func() {
		runner = &mockJobRunner{}
		router = gin.New()
		router.POST("/internal/jobs/:job/run", handler.NewJobHandler(runner).Run)
	})

	It("runs the named job", func() {
		w := perform(router, http.MethodPost, "/internal/jobs/expire-questions/run", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(runner.ran).To(Equal([]string{"expire-questions"}))
	})

	It("returns 404 for unknown jobs", func() {
		runner.runFn = func(_ context.Context, name string) error {
			return jobs.ErrUnknownJob
		}

		w := perform(router, http.MethodPost, "/internal/jobs/nope/run", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 500 when the job fails", func() {
		runner.runFn = func(context.Context, string) error { return errors.New("arangodb down") }

		w := perform(router, http.MethodPost, "/internal/jobs/backup-database/run", nil)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
