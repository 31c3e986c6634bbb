package worker

import (
	"context"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
)

// Consumer is the chunk stream as seen by one worker. Requeue and SendDLQ
// move a message and ack it in one step; on error the message stays pending.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// ChunkApplier records balance chunk outcomes; service.WorkloadService
// implements it.
type ChunkApplier interface {
	ApplyChunk(ctx context.Context, runID int64, chunkIndex int, assignments []model.Assignment) (int, error)
	FailChunk(ctx context.Context, runID int64, chunkIndex int, reason string) error
}
