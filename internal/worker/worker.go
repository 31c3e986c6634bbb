package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
)

type Config struct {
	Name        string
	MaxAttempts int
	// ErrorBackoff is the pause after a failed read.
	ErrorBackoff time.Duration
}

// Worker applies balance chunks read from one consumer of the group.
type Worker struct {
	consumer Consumer
	applier  ChunkApplier
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

func New(consumer Consumer, applier ChunkApplier, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		applier:   applier,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "ajrasakha.worker." + w.cfg.Name,
	})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-w.stopCh:
				case <-time.After(w.cfg.ErrorBackoff):
				}
			}
		}
	}
}

// Stop signals the loop and waits for the in-flight batch.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		_ = w.Handle(ctx, msg)
	}
	return nil
}

// Handle processes msg and, on failure, requeues it or parks it in the DLQ.
// The processing error is returned for callers that log it.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	runID := msg.RunID
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     &runID,
		MessageID: &msgID,
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.apply_chunk")
	defer sc.End()
	ctx = sc.Context()

	err := w.processMessageSafe(ctx, msg)
	if err == nil {
		return nil
	}
	sc.RecordError(err)

	slog.ErrorContext(ctx, "chunk processing failed",
		"error", err,
		"chunk_index", msg.ChunkIndex,
		"attempt", msg.Attempt)
	w.handleFailedMessage(ctx, msg, err)
	return err
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in chunk processing",
				"panic", r,
				"chunk_index", msg.ChunkIndex)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage applies the chunk and acks it. The chunk is applied in one
// transaction, so a crash before the ack only causes a skipped re-delivery.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	start := time.Now()
	applied, err := w.applier.ApplyChunk(ctx, msg.RunID, msg.ChunkIndex, msg.Assignments)
	if err != nil {
		return fmt.Errorf("applying chunk: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Re-delivery is harmless; the run already records the chunk.
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}

	slog.InfoContext(ctx, "chunk processed",
		"chunk_index", msg.ChunkIndex,
		"applied", applied,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"chunk_index", msg.ChunkIndex,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		if failErr := w.applier.FailChunk(ctx, msg.RunID, msg.ChunkIndex, err.Error()); failErr != nil {
			slog.ErrorContext(ctx, "failed to record chunk failure", "error", failErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed chunk",
		"chunk_index", msg.ChunkIndex,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
		// A later successful apply of a reclaimed copy clears this.
		if failErr := w.applier.FailChunk(ctx, msg.RunID, msg.ChunkIndex, requeueErr.Error()); failErr != nil {
			slog.ErrorContext(ctx, "failed to record chunk failure", "error", failErr)
		}
	}
}
