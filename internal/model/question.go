package model

import "time"

type QuestionStatus string

const (
	QuestionStatusOpen     QuestionStatus = "open"
	QuestionStatusInReview QuestionStatus = "in-review"
	QuestionStatusClosed   QuestionStatus = "closed"
	QuestionStatusExpired  QuestionStatus = "expired"
)

func (s QuestionStatus) IsValid() bool {
	switch s {
	case QuestionStatusOpen, QuestionStatusInReview, QuestionStatusClosed, QuestionStatusExpired:
		return true
	}
	return false
}

// IsTerminal is true for closed and expired questions.
func (s QuestionStatus) IsTerminal() bool {
	return s == QuestionStatusClosed || s == QuestionStatusExpired
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Question struct {
	ID                int64          `json:"id"`
	Text              string         `json:"text"`
	Details           string         `json:"details,omitempty"`
	Status            QuestionStatus `json:"status"`
	ContextID         *int64         `json:"context_id,omitempty"`
	Priority          Priority       `json:"priority"`
	TotalAnswersCount int            `json:"total_answers_count"`
	CreatedBy         int64          `json:"created_by"`
	AssignedExpertID  *int64         `json:"assigned_expert_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ClosedAt          *time.Time     `json:"closed_at,omitempty"`
}

// AcceptsAnswers is true until the question reaches a terminal status.
func (q *Question) AcceptsAnswers() bool {
	return !q.Status.IsTerminal()
}

// IsStale reports whether an unanswered open question has outlived window.
func (q *Question) IsStale(now time.Time, window time.Duration) bool {
	return q.Status == QuestionStatusOpen &&
		q.TotalAnswersCount == 0 &&
		!q.CreatedAt.After(now.Add(-window))
}

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	Status *QuestionStatus
}
