package service_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

var _ = Describe("NotificationService", func() {
	var (
		ctx  context.Context
		db   *memDB
		push *mockPushPublisher
		svc  service.NotificationService
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		push = &mockPushPublisher{}
		seedPeople(db)
		svc = service.NewNotificationService(db, push, service.Paging{DefaultLimit: 10, MaxLimit: 100}, 30*24*time.Hour)
	})

	subscribe := func(userID int64) {
		Expect(svc.SaveSubscription(ctx, userID, model.PushSubscription{
			Endpoint: "https://push.example.com/abc", P256dh: "key", Auth: "secret",
		})).To(Succeed())
	}

	It("stores notifications without push for users with no subscription", func() {
		n, err := svc.Add(ctx, expertID, questionID, model.NotificationTypeAnswerApproved, "approved")
		Expect(err).NotTo(HaveOccurred())
		Expect(n.IsRead).To(BeFalse())
		Expect(push.payloads).To(BeEmpty())
	})

	It("publishes a push payload when the user subscribed", func() {
		subscribe(expertID)

		_, err := svc.Add(ctx, expertID, questionID, model.NotificationTypeQuestionAssigned, "new question")
		Expect(err).NotTo(HaveOccurred())
		Expect(push.payloads).To(ConsistOf(model.PushPayload{
			Title: "New question assigned",
			Body:  "new question",
			URL:   "/questions/1000",
		}))
	})

	It("keeps the notification when push publishing fails", func() {
		subscribe(expertID)
		push.publishFn = func(context.Context, int64, model.PushPayload) error { return errors.New("redis down") }

		_, err := svc.Add(ctx, expertID, questionID, model.NotificationTypeQuestionAssigned, "new question")
		Expect(err).NotTo(HaveOccurred())
		Expect(db.notificationsFor(expertID)).To(HaveLen(1))
	})

	It("writes only the subscription so a concurrent block survives", func() {
		users := service.NewUserService(db)
		until := time.Now().Add(time.Hour)
		_, err := users.SetBlocked(ctx, service.SetBlockedInput{ActorID: adminID, UserID: expertID, Blocked: true, Until: &until})
		Expect(err).NotTo(HaveOccurred())

		subscribe(expertID)

		last := db.userPatches[len(db.userPatches)-1]
		Expect(last.PushSubscription).NotTo(BeNil())
		Expect(last.Block).To(BeNil())
		stored := db.user(expertID)
		Expect(stored.IsBlocked).To(BeTrue())
		Expect(stored.BlockedUntil).NotTo(BeNil())
		Expect(stored.PushSubscription.Endpoint).To(Equal("https://push.example.com/abc"))

		_, err = users.SetBlocked(ctx, service.SetBlockedInput{ActorID: adminID, UserID: expertID, Blocked: false})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.user(expertID).PushSubscription).NotTo(BeNil())
	})

	It("returns not found when saving a subscription for an unknown user", func() {
		err := svc.SaveSubscription(ctx, 1, model.PushSubscription{
			Endpoint: "https://push.example.com/abc", P256dh: "key", Auth: "secret",
		})
		Expect(err).To(MatchError(service.ErrUserNotFound))
	})

	It("rejects subscriptions without a valid endpoint", func() {
		err := svc.SaveSubscription(ctx, expertID, model.PushSubscription{Endpoint: "not a url", P256dh: "k", Auth: "a"})
		Expect(err).To(MatchError(service.ErrInvalidInput))
	})

	It("lists newest first with the unread count", func() {
		for _, msg := range []string{"one", "two", "three"} {
			_, err := svc.Add(ctx, expertID, questionID, model.NotificationTypeCommentAdded, msg)
			Expect(err).NotTo(HaveOccurred())
		}
		first := db.notificationsFor(expertID)[0]
		Expect(svc.MarkAsRead(ctx, expertID, first.ID)).To(Succeed())

		page, _, err := svc.List(ctx, expertID, 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(3))
		Expect(page.Unread).To(Equal(2))
		Expect(page.Items[0].Message).To(Equal("three"))
	})

	It("returns an empty page for a page number far past the end", func() {
		_, err := svc.Add(ctx, expertID, questionID, model.NotificationTypeCommentAdded, "one")
		Expect(err).NotTo(HaveOccurred())

		page, p, err := svc.List(ctx, expertID, math.MaxInt64/50, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Offset()).To(BeNumerically(">=", 0))
		Expect(page.Items).To(BeEmpty())
		Expect(page.Total).To(Equal(1))
	})

	It("only lets owners mark or delete their notifications", func() {
		n, err := svc.Add(ctx, expertID, questionID, model.NotificationTypeCommentAdded, "hi")
		Expect(err).NotTo(HaveOccurred())

		Expect(svc.MarkAsRead(ctx, otherExpert, n.ID)).To(MatchError(service.ErrNotificationNotFound))
		Expect(svc.Delete(ctx, otherExpert, n.ID)).To(MatchError(service.ErrNotificationNotFound))
		Expect(svc.Delete(ctx, expertID, n.ID)).To(Succeed())
	})

	It("marks everything read", func() {
		for i := 0; i < 3; i++ {
			_, _ = svc.Add(ctx, expertID, questionID, model.NotificationTypeCommentAdded, "x")
		}
		n, err := svc.MarkAllAsRead(ctx, expertID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
	})

	It("auto-deletes notifications older than the retention window", func() {
		now := time.Now().UTC()
		Expect(db.Notifications().Create(ctx, &model.Notification{ID: 1, UserID: expertID, CreatedAt: now.Add(-31 * 24 * time.Hour)})).To(Succeed())
		Expect(db.Notifications().Create(ctx, &model.Notification{ID: 2, UserID: expertID, CreatedAt: now.Add(-time.Hour)})).To(Succeed())

		n, err := svc.AutoDelete(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(db.notificationsFor(expertID)).To(HaveLen(1))
	})

	DescribeTable("BuildPushPayload links to the entity",
		func(t model.NotificationType, url string) {
			p := service.BuildPushPayload(&model.Notification{EntityID: 42, Type: t, Message: "m"})
			Expect(p.URL).To(Equal(url))
			Expect(p.Body).To(Equal("m"))
		},
		Entry("question events", model.NotificationTypeAnswerSubmitted, "/questions/42"),
		Entry("request updates", model.NotificationTypeRequestUpdated, "/requests/42"),
	)
})
