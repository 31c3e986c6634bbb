package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/balancer"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/queue"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

const planBatchSize = 500

// ChunkQueue hands balance chunks to the worker pool.
type ChunkQueue interface {
	Enqueue(ctx context.Context, task queue.ChunkTask) error
}

type WorkloadService interface {
	// Plan pairs unassigned questions with the least loaded unblocked experts.
	Plan(ctx context.Context) ([]model.Assignment, error)
	// Dispatch records a balance run and enqueues one task per chunk.
	Dispatch(ctx context.Context, createdBy *int64, assignments []model.Assignment) (*model.BalanceRun, error)
	Balance(ctx context.Context, createdBy *int64) (*model.BalanceRun, error)
	GetRun(ctx context.Context, runID int64) (*model.BalanceRun, error)
	// ApplyChunk writes one chunk's assignments. Re-delivered chunks that were
	// already applied are skipped.
	ApplyChunk(ctx context.Context, runID int64, chunkIndex int, assignments []model.Assignment) (int, error)
	// FailChunk records a chunk that exhausted its retries.
	FailChunk(ctx context.Context, runID int64, chunkIndex int, reason string) error
}

type workloadService struct {
	stores   StoreProvider
	txRunner TxRunner
	notifier Notifier
	queue    ChunkQueue
	poolSize int
}

func NewWorkloadService(stores StoreProvider, txRunner TxRunner, notifier Notifier, chunks ChunkQueue) WorkloadService {
	return &workloadService{
		stores:   stores,
		txRunner: txRunner,
		notifier: notifier,
		queue:    chunks,
		poolSize: balancer.PoolSize(runtime.NumCPU()),
	}
}

func (s *workloadService) Plan(ctx context.Context) ([]model.Assignment, error) {
	questions, err := s.stores.Questions().ListUnassigned(ctx, planBatchSize)
	if err != nil {
		return nil, fmt.Errorf("listing unassigned questions: %w", err)
	}
	if len(questions) == 0 {
		return []model.Assignment{}, nil
	}

	loads, err := s.stores.Users().ExpertLoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading expert workloads: %w", err)
	}

	plan := balancer.Plan(questions, loads)
	slog.InfoContext(ctx, "workload planned",
		"questions", len(questions),
		"experts", len(loads),
		"assignments", len(plan))
	return plan, nil
}

func (s *workloadService) Dispatch(ctx context.Context, createdBy *int64, assignments []model.Assignment) (*model.BalanceRun, error) {
	for i, a := range assignments {
		if a.QuestionID == 0 || a.ExpertID == 0 {
			return nil, fmt.Errorf("%w: assignment %d is missing an id", ErrInvalidInput, i)
		}
	}
	if s.queue == nil {
		return nil, fmt.Errorf("workload queue %w", ErrUnavailable)
	}

	chunks := balancer.Chunk(assignments, s.poolSize)
	run := &model.BalanceRun{
		ID:               id.New(),
		CreatedBy:        createdBy,
		TotalAssignments: len(assignments),
		TotalChunks:      len(chunks),
		AppliedChunks:    []int{},
		FailedChunks:     []int{},
	}
	run.Settle()
	if err := s.stores.BalanceRuns().Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating balance run: %w", err)
	}

	var traceID *string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		t := sc.TraceID().String()
		traceID = &t
	}

	for i, chunk := range chunks {
		err := s.queue.Enqueue(ctx, queue.ChunkTask{
			RunID:       run.ID,
			ChunkIndex:  i,
			Assignments: chunk,
			TraceID:     traceID,
		})
		if err == nil {
			continue
		}

		slog.ErrorContext(ctx, "failed to enqueue balance chunk",
			"error", err,
			"run_id", run.ID,
			"chunk_index", i)

		// Chunks that never reached the queue will never report back.
		for j := i; j < len(chunks); j++ {
			if ferr := s.FailChunk(ctx, run.ID, j, err.Error()); ferr != nil {
				return nil, fmt.Errorf("recording unqueued chunk: %w", ferr)
			}
		}
		return s.GetRun(ctx, run.ID)
	}

	slog.InfoContext(ctx, "balance run dispatched",
		"run_id", run.ID,
		"assignments", run.TotalAssignments,
		"chunks", run.TotalChunks,
		"pool_size", s.poolSize)

	return run, nil
}

func (s *workloadService) Balance(ctx context.Context, createdBy *int64) (*model.BalanceRun, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, createdBy, plan)
}

func (s *workloadService) GetRun(ctx context.Context, runID int64) (*model.BalanceRun, error) {
	run, err := s.stores.BalanceRuns().GetByID(ctx, runID)
	if err != nil {
		return nil, notFound(err, ErrBalanceRunNotFound)
	}
	return run, nil
}

func (s *workloadService) ApplyChunk(ctx context.Context, runID int64, chunkIndex int, assignments []model.Assignment) (int, error) {
	var applied []model.Assignment
	err := retryOnConflict(ctx, "apply_chunk", func() error {
		applied = nil
		return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
			run, err := sp.BalanceRuns().GetByID(ctx, runID)
			if err != nil {
				return notFound(err, ErrBalanceRunNotFound)
			}
			if run.ChunkApplied(chunkIndex) {
				slog.InfoContext(ctx, "chunk already applied, skipping",
					"run_id", runID,
					"chunk_index", chunkIndex)
				return nil
			}

			for _, a := range assignments {
				ok, err := applyAssignment(ctx, sp, a)
				if err != nil {
					return err
				}
				if ok {
					applied = append(applied, a)
				}
			}

			if err := sp.BalanceRuns().MarkChunk(ctx, runID, chunkIndex, model.ChunkOutcomeApplied, ""); err != nil {
				return fmt.Errorf("recording applied chunk: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	for _, a := range applied {
		notify(ctx, s.notifier, a.ExpertID, a.QuestionID, model.NotificationTypeQuestionAssigned,
			"A new question was assigned to you.")
	}

	slog.InfoContext(ctx, "balance chunk applied",
		"run_id", runID,
		"chunk_index", chunkIndex,
		"applied", len(applied),
		"skipped", len(assignments)-len(applied))

	return len(applied), nil
}

// applyAssignment points the question at the expert unless the question
// stopped accepting answers, got an expert meanwhile, or the expert is blocked.
func applyAssignment(ctx context.Context, sp StoreProvider, a model.Assignment) (bool, error) {
	q, err := sp.Questions().GetByID(ctx, a.QuestionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading question: %w", err)
	}
	if !q.AcceptsAnswers() {
		return false, nil
	}
	if q.AssignedExpertID != nil {
		return *q.AssignedExpertID == a.ExpertID, nil
	}

	expert, err := sp.Users().GetByID(ctx, a.ExpertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading expert: %w", err)
	}
	if expert.Role != model.RoleExpert || expert.IsBlocked {
		return false, nil
	}

	q.AssignedExpertID = &a.ExpertID
	if err := sp.Questions().Update(ctx, q); err != nil {
		return false, fmt.Errorf("assigning question: %w", err)
	}
	return true, nil
}

func (s *workloadService) FailChunk(ctx context.Context, runID int64, chunkIndex int, reason string) error {
	return retryOnConflict(ctx, "fail_chunk", func() error {
		return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
			run, err := sp.BalanceRuns().GetByID(ctx, runID)
			if err != nil {
				return notFound(err, ErrBalanceRunNotFound)
			}
			if run.ChunkApplied(chunkIndex) || slices.Contains(run.FailedChunks, chunkIndex) {
				return nil
			}

			if err := sp.BalanceRuns().MarkChunk(ctx, runID, chunkIndex, model.ChunkOutcomeFailed, reason); err != nil {
				return fmt.Errorf("recording failed chunk: %w", err)
			}
			run.RecordChunk(chunkIndex, model.ChunkOutcomeFailed)
			run.Settle()

			slog.WarnContext(ctx, "balance chunk failed",
				"run_id", runID,
				"chunk_index", chunkIndex,
				"reason", reason,
				"status", run.Status)
			return nil
		})
	})
}
