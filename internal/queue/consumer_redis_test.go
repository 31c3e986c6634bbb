package queue_test

import (
	"context"
	"errors"
	"net"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
)

// recordingHook captures commands instead of sending them to a server.
type recordingHook struct {
	mu       sync.Mutex
	single   []string
	batches  [][]redis.Cmder
	batchErr error
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.single = append(h.single, cmd.Name())
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.batches = append(h.batches, cmds)
		return h.batchErr
	}
}

func batchNames(cmds []redis.Cmder) []string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name())
	}
	return names
}

var _ = Describe("RedisConsumer", func() {
	var (
		ctx      context.Context
		hook     *recordingHook
		consumer *queue.RedisConsumer
		msg      queue.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		hook = &recordingHook{}
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		client.AddHook(hook)
		DeferCleanup(client.Close)

		var err error
		consumer, err = queue.NewRedisConsumer(client, queue.ConsumerConfig{
			Stream:      "assignments",
			Group:       "workers",
			Consumer:    "w-0",
			DLQStream:   "assignments:dlq",
			MaxAttempts: 3,
		})
		Expect(err).NotTo(HaveOccurred())
		hook.single = nil

		msg = queue.Message{
			ID:          "1700000000000-0",
			TaskType:    queue.TaskTypeBalanceChunk,
			RunID:       7,
			ChunkIndex:  1,
			Attempt:     1,
			Assignments: []model.Assignment{{QuestionID: 10, ExpertID: 20}},
		}
	})

	Describe("Requeue", func() {
		It("appends the retry copy and acks the original in one transaction", func() {
			Expect(consumer.Requeue(ctx, msg, "arangodb unavailable")).To(Succeed())

			Expect(hook.single).To(BeEmpty())
			Expect(hook.batches).To(HaveLen(1))
			batch := hook.batches[0]
			Expect(batchNames(batch)).To(Equal([]string{"multi", "xadd", "xack", "exec"}))
			Expect(batch[1].Args()[1]).To(Equal("assignments"))
			Expect(batch[2].Args()).To(Equal([]any{"xack", "assignments", "workers", "1700000000000-0"}))
		})

		It("never acks on its own when the transaction fails", func() {
			hook.batchErr = errors.New("connection reset")

			err := consumer.Requeue(ctx, msg, "arangodb unavailable")

			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			Expect(hook.single).NotTo(ContainElement("xack"))
		})

		It("gives up waiting when the context ends", func() {
			client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
			client.AddHook(hook)
			DeferCleanup(client.Close)
			slow, err := queue.NewRedisConsumer(client, queue.ConsumerConfig{
				Stream:       "assignments",
				Group:        "workers",
				RequeueDelay: 1 << 40,
			})
			Expect(err).NotTo(HaveOccurred())
			hook.batches = nil

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			Expect(slow.Requeue(cancelled, msg, "boom")).To(MatchError(context.Canceled))
			Expect(hook.batches).To(BeEmpty())
		})
	})

	Describe("SendDLQ", func() {
		It("moves the message to the dead letter stream atomically", func() {
			Expect(consumer.SendDLQ(ctx, msg, "max attempts")).To(Succeed())

			Expect(hook.batches).To(HaveLen(1))
			batch := hook.batches[0]
			Expect(batchNames(batch)).To(Equal([]string{"multi", "xadd", "xack", "exec"}))
			Expect(batch[1].Args()[1]).To(Equal("assignments:dlq"))
			Expect(batch[2].Args()[1]).To(Equal("assignments"))
		})
	})
})
