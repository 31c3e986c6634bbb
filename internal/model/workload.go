package model

import (
	"slices"
	"time"
)

type Assignment struct {
	QuestionID int64 `json:"question_id,string"`
	ExpertID   int64 `json:"expert_id,string"`
}

type BalanceRunStatus string

const (
	BalanceRunStatusRunning        BalanceRunStatus = "running"
	BalanceRunStatusCompleted      BalanceRunStatus = "completed"
	BalanceRunStatusPartialFailure BalanceRunStatus = "partial_failure"
)

// ChunkOutcome is the recorded result of one chunk of a balance run.
type ChunkOutcome string

const (
	ChunkOutcomeApplied ChunkOutcome = "applied"
	ChunkOutcomeFailed  ChunkOutcome = "failed"
)

// BalanceRun tracks one dispatch of assignment chunks to the worker pool.
type BalanceRun struct {
	ID               int64            `json:"id"`
	CreatedBy        *int64           `json:"created_by,omitempty"`
	TotalAssignments int              `json:"total_assignments"`
	TotalChunks      int              `json:"total_chunks"`
	AppliedChunks    []int            `json:"applied_chunks"`
	FailedChunks     []int            `json:"failed_chunks"`
	Status           BalanceRunStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (r *BalanceRun) ChunkApplied(index int) bool {
	return slices.Contains(r.AppliedChunks, index)
}

// RecordChunk folds one chunk outcome into the bookkeeping. An applied chunk
// clears an earlier failure; a failure never overrides an applied chunk.
func (r *BalanceRun) RecordChunk(index int, outcome ChunkOutcome) {
	switch outcome {
	case ChunkOutcomeApplied:
		r.FailedChunks = slices.DeleteFunc(r.FailedChunks, func(i int) bool { return i == index })
		if !r.ChunkApplied(index) {
			r.AppliedChunks = append(r.AppliedChunks, index)
		}
	case ChunkOutcomeFailed:
		if !r.ChunkApplied(index) && !slices.Contains(r.FailedChunks, index) {
			r.FailedChunks = append(r.FailedChunks, index)
		}
	}
}

// Settle derives the run status from the chunk bookkeeping.
func (r *BalanceRun) Settle() {
	switch {
	case len(r.AppliedChunks)+len(r.FailedChunks) < r.TotalChunks:
		r.Status = BalanceRunStatusRunning
	case len(r.FailedChunks) > 0:
		r.Status = BalanceRunStatusPartialFailure
	default:
		r.Status = BalanceRunStatusCompleted
	}
}
