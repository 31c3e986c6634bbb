package service_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
)

const (
	farmerID    int64 = 100
	expertID    int64 = 200
	otherExpert int64 = 201
	thirdExpert int64 = 202
	adminID     int64 = 300
	questionID  int64 = 1000
)

func seedPeople(db *memDB) {
	db.putUser(model.User{ID: farmerID, Email: "farmer@example.com", Role: model.RoleUser})
	db.putUser(model.User{ID: expertID, Email: "expert@example.com", Role: model.RoleExpert})
	db.putUser(model.User{ID: otherExpert, Email: "other@example.com", Role: model.RoleExpert})
	db.putUser(model.User{ID: thirdExpert, Email: "third@example.com", Role: model.RoleExpert})
	db.putUser(model.User{ID: adminID, Email: "admin@example.com", Role: model.RoleAdmin})
}

var _ = Describe("AnswerService", func() {
	var (
		ctx      context.Context
		db       *memDB
		notifier *mockNotifier
		svc      service.AnswerService
	)

	addAnswer := func(author int64, role model.Role) (*model.Answer, error) {
		return svc.Add(ctx, service.AddAnswerInput{
			AuthorID:   author,
			AuthorRole: role,
			QuestionID: questionID,
			Text:       "Spray neem oil every seven days.",
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		notifier = &mockNotifier{}
		seedPeople(db)
		db.putQuestion(model.Question{ID: questionID, Text: "Leaf curl on chilli?", Status: model.QuestionStatusOpen, CreatedBy: farmerID})
		svc = service.NewAnswerService(db, db, notifier, nil, 2)
	})

	Describe("Add", func() {
		It("increments the answer count by exactly one and moves the question to review", func() {
			a, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Iteration).To(Equal(1))
			Expect(a.ReviewStatus).To(Equal(model.ReviewStatusPending))

			q := db.question(questionID)
			Expect(q.TotalAnswersCount).To(Equal(1))
			Expect(q.Status).To(Equal(model.QuestionStatusInReview))
			Expect(notifier.types()).To(ConsistOf(model.NotificationTypeAnswerSubmitted))
		})

		It("numbers iterations from the current maximum", func() {
			db.putAnswer(model.Answer{ID: 1, QuestionID: questionID, AuthorID: otherExpert, Iteration: 4})

			a, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Iteration).To(Equal(5))
		})

		It("gives concurrent answers distinct increasing iterations", func() {
			const n = 8
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := addAnswer(expertID, model.RoleExpert)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}

			answers, err := svc.ListByQuestion(ctx, questionID)
			Expect(err).NotTo(HaveOccurred())
			iterations := make([]int, len(answers))
			for i, a := range answers {
				iterations[i] = a.Iteration
			}
			Expect(iterations).To(Equal([]int{1, 2, 3, 4, 5, 6, 7, 8}))
			Expect(db.question(questionID).TotalAnswersCount).To(Equal(n))
		})

		It("retries the transaction after a write conflict", func() {
			db.conflicts = 2

			a, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Iteration).To(Equal(1))
			Expect(db.txCalls).To(Equal(3))
			Expect(db.question(questionID).TotalAnswersCount).To(Equal(1))
		})

		It("gives up after repeated conflicts and leaves nothing behind", func() {
			db.conflicts = 10

			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).To(MatchError(service.ErrConflict))
			Expect(db.txCalls).To(Equal(3))
			Expect(db.question(questionID).TotalAnswersCount).To(BeZero())
		})

		It("rolls back the answer when the question update fails", func() {
			db.failNext["questions.update"] = errors.New("disk full")

			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).To(HaveOccurred())

			answers, _ := svc.ListByQuestion(ctx, questionID)
			Expect(answers).To(BeEmpty())
			Expect(db.question(questionID).TotalAnswersCount).To(BeZero())
			Expect(notifier.sent).To(BeEmpty())
		})

		It("reports a failed insert as an internal error", func() {
			db.failNext["answers.create"] = errors.New("write failed")

			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).To(MatchError(service.ErrAnswerNotCreated))
		})

		It("rejects answers on a closed question", func() {
			q := db.question(questionID)
			q.Status = model.QuestionStatusClosed
			db.putQuestion(q)

			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).To(MatchError(service.ErrQuestionNotOpen))
		})

		It("returns not found for a missing question", func() {
			_, err := svc.Add(ctx, service.AddAnswerInput{AuthorID: expertID, AuthorRole: model.RoleExpert, QuestionID: 9, Text: "Some answer text"})
			Expect(err).To(MatchError(service.ErrQuestionNotFound))
		})

		It("refuses plain users", func() {
			_, err := addAnswer(farmerID, model.RoleUser)
			Expect(err).To(MatchError(service.ErrNotPermitted))
		})

		It("validates the text", func() {
			_, err := svc.Add(ctx, service.AddAnswerInput{AuthorID: expertID, AuthorRole: model.RoleExpert, QuestionID: questionID, Text: "  "})
			Expect(err).To(MatchError(service.ErrInvalidInput))
		})

		It("finalizes an admin answer marked final and closes the question", func() {
			db.putAnswer(model.Answer{ID: 1, QuestionID: questionID, AuthorID: expertID, Iteration: 1, IsFinalAnswer: true})

			a, err := svc.Add(ctx, service.AddAnswerInput{
				AuthorID: adminID, AuthorRole: model.RoleAdmin, QuestionID: questionID,
				Text: "Remove infected leaves.", IsFinal: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.IsFinalAnswer).To(BeTrue())

			previous, _ := db.answer(1)
			Expect(previous.IsFinalAnswer).To(BeFalse())
			q := db.question(questionID)
			Expect(q.Status).To(Equal(model.QuestionStatusClosed))
			Expect(q.ClosedAt).NotTo(BeNil())
		})

		It("ignores the final flag from experts", func() {
			a, err := svc.Add(ctx, service.AddAnswerInput{
				AuthorID: expertID, AuthorRole: model.RoleExpert, QuestionID: questionID,
				Text: "Remove infected leaves.", IsFinal: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.IsFinalAnswer).To(BeFalse())
		})

		It("completes a pending re-route when the routed expert answers", func() {
			q := db.question(questionID)
			q.AssignedExpertID = int64Ptr(expertID)
			db.putQuestion(q)
			Expect(db.ReRoutes().Append(ctx, &model.ReRouteHistory{
				ID: 1, QuestionID: questionID, ExpertID: expertID, ModeratorID: adminID, Status: model.ReRouteStatusPending,
			})).To(Succeed())

			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())

			history := db.reroutes()
			Expect(history).To(HaveLen(2))
			Expect(history[1].Status).To(Equal(model.ReRouteStatusCompleted))
		})

		It("stores the embedding when an embedder is configured", func() {
			svc = service.NewAnswerService(db, db, notifier, &mockEmbedder{}, 2)

			a, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			stored, _ := db.answer(a.ID)
			Expect(stored.Embedding).To(Equal([]float64{0.1, 0.2}))
		})

		It("still succeeds when embedding fails", func() {
			svc = service.NewAnswerService(db, db, notifier, &mockEmbedder{
				embedFn: func(context.Context, string) ([]float64, error) { return nil, errors.New("quota") },
			}, 2)

			a, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Embedding).To(BeNil())
		})

		It("does not fail when the notification cannot be stored", func() {
			notifier.addFn = func(context.Context, int64, int64, model.NotificationType, string) (*model.Notification, error) {
				return nil, errors.New("boom")
			}
			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Review", func() {
		var answer *model.Answer

		BeforeEach(func() {
			var err error
			answer, err = addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			notifier.sent = nil
		})

		review := func(reviewer int64, role model.Role, action model.ReviewAction) (*model.Answer, error) {
			return svc.Review(ctx, service.ReviewAnswerInput{
				ReviewerID: reviewer, ReviewerRole: role, AnswerID: answer.ID, Action: action,
			})
		}

		It("counts approvals until the threshold makes the answer final", func() {
			a, err := review(otherExpert, model.RoleExpert, model.ReviewActionApprove)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ApprovalCount).To(Equal(1))
			Expect(a.IsFinalAnswer).To(BeFalse())

			a, err = review(thirdExpert, model.RoleExpert, model.ReviewActionApprove)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ApprovalCount).To(Equal(2))
			Expect(a.IsFinalAnswer).To(BeTrue())
			Expect(a.ReviewStatus).To(Equal(model.ReviewStatusApproved))
			Expect(db.question(questionID).Status).To(Equal(model.QuestionStatusClosed))
			Expect(notifier.types()).To(ContainElement(model.NotificationTypeAnswerFinalized))
		})

		It("finalizes immediately on admin approval", func() {
			a, err := review(adminID, model.RoleAdmin, model.ReviewActionApprove)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.IsFinalAnswer).To(BeTrue())
		})

		It("reopens the question on rejection", func() {
			a, err := review(otherExpert, model.RoleExpert, model.ReviewActionReject)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ReviewStatus).To(Equal(model.ReviewStatusRejected))
			Expect(db.question(questionID).Status).To(Equal(model.QuestionStatusOpen))
			Expect(notifier.types()).To(ConsistOf(model.NotificationTypeAnswerRejected))
		})

		It("forbids reviewing your own answer", func() {
			_, err := review(expertID, model.RoleExpert, model.ReviewActionApprove)
			Expect(err).To(MatchError(service.ErrSelfReview))
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("allows one review per reviewer", func() {
			_, err := review(otherExpert, model.RoleExpert, model.ReviewActionApprove)
			Expect(err).NotTo(HaveOccurred())
			_, err = review(otherExpert, model.RoleExpert, model.ReviewActionApprove)
			Expect(err).To(MatchError(service.ErrAlreadyReviewed))
		})

		It("refuses reviews once the answer is decided", func() {
			_, err := review(otherExpert, model.RoleExpert, model.ReviewActionReject)
			Expect(err).NotTo(HaveOccurred())
			_, err = review(thirdExpert, model.RoleExpert, model.ReviewActionApprove)
			Expect(err).To(MatchError(service.ErrReviewClosed))
		})
	})

	Describe("ReRouteReview", func() {
		It("rejects the answer and routes the question to another expert", func() {
			answer, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())

			entry, err := svc.ReRouteReview(ctx, service.ReRouteReviewInput{
				ModeratorID: adminID, AnswerID: answer.ID, ExpertID: otherExpert, Comment: "needs dosage",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Status).To(Equal(model.ReRouteStatusPending))

			stored, _ := db.answer(answer.ID)
			Expect(stored.ReviewStatus).To(Equal(model.ReviewStatusRejected))
			q := db.question(questionID)
			Expect(*q.AssignedExpertID).To(Equal(otherExpert))
			Expect(q.Status).To(Equal(model.QuestionStatusOpen))
		})

		It("refuses to route to the answer's own author", func() {
			answer, _ := addAnswer(expertID, model.RoleExpert)
			_, err := svc.ReRouteReview(ctx, service.ReRouteReviewInput{ModeratorID: adminID, AnswerID: answer.ID, ExpertID: expertID})
			Expect(err).To(MatchError(service.ErrInvalidInput))
		})
	})

	Describe("Delete", func() {
		It("recomputes the count and reopens an unanswered question", func() {
			answer, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Delete(ctx, answer.ID)).To(Succeed())

			q := db.question(questionID)
			Expect(q.TotalAnswersCount).To(BeZero())
			Expect(q.Status).To(Equal(model.QuestionStatusOpen))
		})

		It("reopens a closed question whose final answer was removed", func() {
			_, err := addAnswer(expertID, model.RoleExpert)
			Expect(err).NotTo(HaveOccurred())
			final, err := svc.Add(ctx, service.AddAnswerInput{AuthorID: adminID, AuthorRole: model.RoleAdmin, QuestionID: questionID, Text: "Final advice text", IsFinal: true})
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Delete(ctx, final.ID)).To(Succeed())

			q := db.question(questionID)
			Expect(q.TotalAnswersCount).To(Equal(1))
			Expect(q.Status).To(Equal(model.QuestionStatusInReview))
		})

		It("returns not found for unknown answers", func() {
			Expect(svc.Delete(ctx, 42)).To(MatchError(service.ErrAnswerNotFound))
		})
	})

	It("lists answers of unknown questions as not found", func() {
		_, err := svc.ListByQuestion(ctx, 77)
		Expect(err).To(MatchError(service.ErrQuestionNotFound))
	})
})
