package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type Producer interface {
	Enqueue(ctx context.Context, task ChunkTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task ChunkTask) error {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	assignments, err := json.Marshal(task.Assignments)
	if err != nil {
		return fmt.Errorf("encoding assignments: %w", err)
	}

	fields := map[string]any{
		"task_type":   string(TaskTypeBalanceChunk),
		"run_id":      task.RunID,
		"chunk_index": task.ChunkIndex,
		"assignments": string(assignments),
		"attempt":     attempt,
	}

	if task.TraceID != nil && *task.TraceID != "" {
		fields["trace_id"] = *task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue chunk: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued balance chunk",
		"run_id", task.RunID,
		"chunk_index", task.ChunkIndex,
		"assignments", len(task.Assignments),
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// PushPublisher appends web-push payloads to a stream read by the external
// push dispatcher.
type PushPublisher struct {
	client *redis.Client
	stream string
}

func NewPushPublisher(client *redis.Client, stream string) *PushPublisher {
	return &PushPublisher{client: client, stream: stream}
}

func (p *PushPublisher) PublishPush(ctx context.Context, userID int64, payload model.PushPayload) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{
			"user_id": userID,
			"title":   payload.Title,
			"body":    payload.Body,
			"url":     payload.URL,
		},
	}).Err(); err != nil {
		return fmt.Errorf("publish push (stream=%s): %w", p.stream, err)
	}
	return nil
}
