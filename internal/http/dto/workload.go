package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type BalanceRunResponse struct {
	ID               int64                  `json:"id,string"`
	CreatedBy        *int64                 `json:"created_by,string,omitempty"`
	TotalAssignments int                    `json:"total_assignments"`
	TotalChunks      int                    `json:"total_chunks"`
	AppliedChunks    []int                  `json:"applied_chunks"`
	FailedChunks     []int                  `json:"failed_chunks"`
	Status           model.BalanceRunStatus `json:"status"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func ToBalanceRunResponse(r *model.BalanceRun) BalanceRunResponse {
	applied, failed := r.AppliedChunks, r.FailedChunks
	if applied == nil {
		applied = []int{}
	}
	if failed == nil {
		failed = []int{}
	}
	return BalanceRunResponse{
		ID:               r.ID,
		CreatedBy:        r.CreatedBy,
		TotalAssignments: r.TotalAssignments,
		TotalChunks:      r.TotalChunks,
		AppliedChunks:    applied,
		FailedChunks:     failed,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type TranslateRequest struct {
	Text           string `json:"text" binding:"required,max=5000"`
	TargetLanguage string `json:"target_language" binding:"required,max=32"`
}

type TranslateResponse struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}
