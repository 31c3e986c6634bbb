package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
	"github.com/vicharanashala/ajrasakha-sub003/internal/worker"
)

type mockConsumer struct {
	mu sync.Mutex

	batches [][]queue.Message
	readErr error

	acked      []string
	requeued   []string
	dlq        []string
	dlqReason  string
	requeueErr error
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	next := m.batches[0]
	m.batches = m.batches[1:]
	return next, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requeueErr != nil {
		return m.requeueErr
	}
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg.ID)
	m.dlqReason = errMsg
	return nil
}

func (m *mockConsumer) ackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acked)
}

type mockApplier struct {
	mu sync.Mutex

	applyFn      func(ctx context.Context, runID int64, chunkIndex int, assignments []model.Assignment) (int, error)
	applyCalls   int
	failCalls    int
	failedChunks []int
}

func (m *mockApplier) ApplyChunk(ctx context.Context, runID int64, chunkIndex int, assignments []model.Assignment) (int, error) {
	m.mu.Lock()
	m.applyCalls++
	fn := m.applyFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, runID, chunkIndex, assignments)
	}
	return len(assignments), nil
}

func (m *mockApplier) FailChunk(ctx context.Context, runID int64, chunkIndex int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCalls++
	m.failedChunks = append(m.failedChunks, chunkIndex)
	return nil
}

func chunkMessage(id string, idx, attempt int) queue.Message {
	return queue.Message{
		ID:         id,
		TaskType:   queue.TaskTypeBalanceChunk,
		RunID:      42,
		ChunkIndex: idx,
		Attempt:    attempt,
		Assignments: []model.Assignment{
			{QuestionID: 1, ExpertID: 2},
		},
	}
}

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		consumer *mockConsumer
		applier  *mockApplier
		w        *worker.Worker
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		applier = &mockApplier{}
		w = worker.New(consumer, applier, worker.Config{Name: "test-1", MaxAttempts: 3})
	})

	Describe("Handle", func() {
		It("applies the chunk and acks the message", func() {
			Expect(w.Handle(ctx, chunkMessage("1-0", 0, 1))).To(Succeed())

			Expect(applier.applyCalls).To(Equal(1))
			Expect(consumer.acked).To(Equal([]string{"1-0"}))
			Expect(consumer.requeued).To(BeEmpty())
		})

		It("requeues a failed chunk below the attempt limit", func() {
			applier.applyFn = func(context.Context, int64, int, []model.Assignment) (int, error) {
				return 0, errors.New("arangodb unavailable")
			}

			err := w.Handle(ctx, chunkMessage("1-0", 2, 1))

			Expect(err).To(HaveOccurred())
			Expect(consumer.requeued).To(Equal([]string{"1-0"}))
			Expect(consumer.dlq).To(BeEmpty())
			Expect(applier.failCalls).To(Equal(0))
		})

		It("dead-letters and records the failure on the last attempt", func() {
			applier.applyFn = func(context.Context, int64, int, []model.Assignment) (int, error) {
				return 0, errors.New("arangodb unavailable")
			}

			Expect(w.Handle(ctx, chunkMessage("1-0", 2, 3))).NotTo(Succeed())

			Expect(consumer.dlq).To(Equal([]string{"1-0"}))
			Expect(consumer.dlqReason).To(ContainSubstring("arangodb unavailable"))
			Expect(consumer.requeued).To(BeEmpty())
			Expect(applier.failedChunks).To(Equal([]int{2}))
		})

		It("records the chunk as failed when the retry copy cannot be written", func() {
			applier.applyFn = func(context.Context, int64, int, []model.Assignment) (int, error) {
				return 0, errors.New("arangodb unavailable")
			}
			consumer.requeueErr = errors.New("xadd+xack: connection reset")

			Expect(w.Handle(ctx, chunkMessage("1-0", 2, 1))).NotTo(Succeed())

			Expect(consumer.acked).To(BeEmpty())
			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(BeEmpty())
			Expect(applier.failCalls).To(Equal(1))
			Expect(applier.failedChunks).To(Equal([]int{2}))
		})

		It("recovers from a panic and treats it as a failure", func() {
			applier.applyFn = func(context.Context, int64, int, []model.Assignment) (int, error) {
				panic("boom")
			}

			err := w.Handle(ctx, chunkMessage("1-0", 0, 1))

			Expect(err).To(MatchError(ContainSubstring("panic: boom")))
			Expect(consumer.requeued).To(HaveLen(1))
		})
	})

	Describe("Run", func() {
		It("drains batches until stopped", func() {
			consumer.batches = [][]queue.Message{
				{chunkMessage("1-0", 0, 1), chunkMessage("2-0", 1, 1)},
				{chunkMessage("3-0", 2, 1)},
			}

			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()

			Eventually(consumer.ackCount).Should(Equal(3))
			w.Stop()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("returns the context error on cancellation", func() {
			runCtx, cancel := context.WithCancel(ctx)
			consumer.readErr = errors.New("connection refused")
			w = worker.New(consumer, applier, worker.Config{Name: "test-1", ErrorBackoff: 10 * time.Millisecond})

			done := make(chan error, 1)
			go func() { done <- w.Run(runCtx) }()
			cancel()

			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})

var _ = Describe("Pool", func() {
	It("runs every worker and stops them together", func() {
		consumers := []*mockConsumer{
			{batches: [][]queue.Message{{chunkMessage("1-0", 0, 1)}}},
			{batches: [][]queue.Message{{chunkMessage("2-0", 1, 1)}}},
		}
		applier := &mockApplier{}
		pool := worker.NewPool(
			worker.New(consumers[0], applier, worker.Config{Name: "a"}),
			worker.New(consumers[1], applier, worker.Config{Name: "b"}),
		)
		Expect(pool.Size()).To(Equal(2))

		done := make(chan error, 1)
		go func() { done <- pool.Run(context.Background()) }()

		Eventually(consumers[0].ackCount).Should(Equal(1))
		Eventually(consumers[1].ackCount).Should(Equal(1))
		pool.Stop()
		Eventually(done).Should(Receive(BeNil()))
	})
})
