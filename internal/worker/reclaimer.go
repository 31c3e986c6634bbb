package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
	// MaxPages bounds one sweep so a huge pending list cannot starve Stop.
	MaxPages int
}

// RedisReclaimer takes over chunks that stayed pending longer than MinIdle,
// usually because a worker died between reading and acking, and hands them
// to the processor. Ownership moves with XAUTOCLAIM so two reclaimers never
// process the same entry in one sweep.
type RedisReclaimer struct {
	client    *redis.Client
	cfg       RedisReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewRedisReclaimer wires a reclaimer. processor is typically Worker.Handle,
// which requeues or dead-letters failures on its own.
func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *RedisReclaimer {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (r *RedisReclaimer) Run(ctx context.Context) {
	defer close(r.stoppedCh)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "ajrasakha.worker.reclaimer"})

	slog.InfoContext(ctx, "reclaimer started",
		"stream", r.cfg.Stream,
		"group", r.cfg.Group,
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "reclaim sweep failed", "error", err, "reclaimed", n)
			} else if n > 0 {
				slog.InfoContext(ctx, "reclaim sweep finished", "reclaimed", n)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// Sweep claims idle entries page by page and processes each one. It returns
// how many entries it claimed. Processing failures are logged, not returned;
// the processor already routed them to a retry or the dead letter stream.
func (r *RedisReclaimer) Sweep(ctx context.Context) (int, error) {
	claimed := 0
	cursor := "0-0"
	for range r.cfg.MaxPages {
		messages, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.cfg.Stream,
			Group:    r.cfg.Group,
			Consumer: r.cfg.Consumer,
			MinIdle:  r.cfg.MinIdle,
			Start:    cursor,
			Count:    r.cfg.BatchSize,
		}).Result()
		if err != nil {
			return claimed, fmt.Errorf("xautoclaim (stream=%s): %w", r.cfg.Stream, err)
		}

		for _, msg := range messages {
			claimed++
			r.handle(ctx, msg)
		}

		if next == "0-0" || next == "" {
			break
		}
		cursor = next
	}
	return claimed, nil
}

func (r *RedisReclaimer) handle(ctx context.Context, msg redis.XMessage) {
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	parsed, err := queue.ParseMessage(msg)
	if err != nil {
		// A malformed entry would be claimed again on every sweep.
		slog.ErrorContext(ctx, "reclaimed entry is malformed, sending to DLQ", "error", err)
		if dlqErr := r.consumer.SendDLQ(ctx, queue.Message{ID: msg.ID, Raw: msg}, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to park malformed entry", "error", dlqErr)
		}
		return
	}

	runID := parsed.RunID
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: &runID})

	start := time.Now()
	if err := r.processor(ctx, parsed); err != nil {
		slog.WarnContext(ctx, "reclaimed chunk failed again",
			"error", err,
			"chunk_index", parsed.ChunkIndex,
			"attempt", parsed.Attempt)
		return
	}
	slog.InfoContext(ctx, "reclaimed chunk processed",
		"chunk_index", parsed.ChunkIndex,
		"duration_ms", time.Since(start).Milliseconds())
}
