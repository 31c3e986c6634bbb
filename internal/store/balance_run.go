package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type balanceRunDocument struct {
	Key              string  `json:"_key"`
	CreatedBy        *string `json:"createdBy"`
	TotalAssignments int     `json:"totalAssignments"`
	TotalChunks      int     `json:"totalChunks"`
	CreatedAt        int64   `json:"createdAt"`
}

type balanceChunkDocument struct {
	Key        string `json:"_key"`
	RunID      string `json:"runId"`
	ChunkIndex int    `json:"chunkIndex"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	UpdatedAt  int64  `json:"updatedAt"`
}

type balanceRunStore struct {
	docs *db.Documents
}

func newBalanceRunStore(docs *db.Documents) BalanceRunStore {
	return &balanceRunStore{docs: docs}
}

func (s *balanceRunStore) GetByID(ctx context.Context, runID int64) (*model.BalanceRun, error) {
	var doc balanceRunDocument
	if err := s.docs.Get(ctx, db.CollectionBalanceRuns, id.Format(runID), &doc); err != nil {
		return nil, mapErr(err)
	}
	run, err := toBalanceRunModel(doc)
	if err != nil {
		return nil, err
	}

	chunks, err := db.All[balanceChunkDocument](ctx, s.docs, `
		FOR c IN @@chunks
			FILTER c.runId == @runId
			SORT c.chunkIndex
			RETURN c`, map[string]any{
		"@chunks": db.CollectionBalanceChunks,
		"runId":   doc.Key,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	for _, c := range chunks {
		run.RecordChunk(c.ChunkIndex, model.ChunkOutcome(c.Status))
		if t := fromMillis(c.UpdatedAt); t.After(run.UpdatedAt) {
			run.UpdatedAt = t
		}
	}
	run.Settle()
	return run, nil
}

func (s *balanceRunStore) Create(ctx context.Context, run *model.BalanceRun) error {
	now := nowUTC()
	run.CreatedAt, run.UpdatedAt = now, now
	return mapErr(s.docs.Insert(ctx, db.CollectionBalanceRuns, toBalanceRunDocument(run)))
}

// MarkChunk upserts the chunk document keyed by run and index, so redelivered
// chunks touch the same document and never the run itself.
func (s *balanceRunStore) MarkChunk(ctx context.Context, runID int64, chunkIndex int, outcome model.ChunkOutcome, reason string) error {
	doc := balanceChunkDocument{
		Key:        chunkKey(runID, chunkIndex),
		RunID:      id.Format(runID),
		ChunkIndex: chunkIndex,
		Status:     string(outcome),
		Reason:     reason,
		UpdatedAt:  millis(nowUTC()),
	}
	return mapErr(s.docs.Exec(ctx, `
		UPSERT { _key: @doc._key }
		INSERT @doc
		UPDATE (@doc.status == @applied || OLD.status != @applied
			? { status: @doc.status, reason: @doc.reason, updatedAt: @doc.updatedAt }
			: {})
		IN @@chunks`, map[string]any{
		"@chunks": db.CollectionBalanceChunks,
		"doc":     doc,
		"applied": string(model.ChunkOutcomeApplied),
	}))
}

func chunkKey(runID int64, chunkIndex int) string {
	return id.Format(runID) + "-" + strconv.Itoa(chunkIndex)
}

func toBalanceRunDocument(r *model.BalanceRun) balanceRunDocument {
	return balanceRunDocument{
		Key:              id.Format(r.ID),
		CreatedBy:        id.FormatPtr(r.CreatedBy),
		TotalAssignments: r.TotalAssignments,
		TotalChunks:      r.TotalChunks,
		CreatedAt:        millis(r.CreatedAt),
	}
}

func toBalanceRunModel(doc balanceRunDocument) (*model.BalanceRun, error) {
	runID, err := id.Parse(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding balance run: %w", err)
	}
	createdBy, err := id.ParsePtr(doc.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("decoding balance run author: %w", err)
	}
	createdAt := fromMillis(doc.CreatedAt)
	return &model.BalanceRun{
		ID:               runID,
		CreatedBy:        createdBy,
		TotalAssignments: doc.TotalAssignments,
		TotalChunks:      doc.TotalChunks,
		AppliedChunks:    []int{},
		FailedChunks:     []int{},
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}, nil
}
