package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("decodes a balance chunk", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"task_type":   "balance_chunk",
				"run_id":      "77",
				"chunk_index": "3",
				"assignments": `[{"question_id":"10","expert_id":"20"}]`,
				"attempt":     "2",
				"trace_id":    "abc",
			},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.RunID).To(Equal(int64(77)))
		Expect(msg.ChunkIndex).To(Equal(3))
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.TraceID).To(Equal("abc"))
		Expect(msg.Assignments).To(Equal([]model.Assignment{{QuestionID: 10, ExpertID: 20}}))
	})

	It("defaults the attempt to one", func() {
		msg, err := queue.ParseMessage(redis.XMessage{Values: map[string]any{
			"run_id":      "1",
			"chunk_index": "0",
			"assignments": "[]",
		}})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
		Expect(msg.TaskType).To(Equal(queue.TaskTypeBalanceChunk))
	})

	DescribeTable("rejects malformed entries",
		func(values map[string]any) {
			_, err := queue.ParseMessage(redis.XMessage{Values: values})
			Expect(err).To(HaveOccurred())
		},
		Entry("missing run", map[string]any{"chunk_index": "0", "assignments": "[]"}),
		Entry("negative chunk", map[string]any{"run_id": "1", "chunk_index": "-1", "assignments": "[]"}),
		Entry("bad assignments", map[string]any{"run_id": "1", "chunk_index": "0", "assignments": "{"}),
		Entry("unknown task", map[string]any{"task_type": "ingest", "run_id": "1", "chunk_index": "0", "assignments": "[]"}),
	)
})
