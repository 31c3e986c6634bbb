package queue

import "github.com/vicharanashala/ajrasakha-sub003/internal/model"

type TaskType string

const (
	TaskTypeBalanceChunk TaskType = "balance_chunk"
)

// ChunkTask carries one slice of a workload balance run to the worker pool.
type ChunkTask struct {
	RunID       int64
	ChunkIndex  int
	Assignments []model.Assignment
	TraceID     *string
	Attempt     int
}
