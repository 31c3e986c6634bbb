package model

import "time"

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

func (a ReviewAction) IsValid() bool {
	return a == ReviewActionApprove || a == ReviewActionReject
}

type Answer struct {
	ID            int64        `json:"id"`
	QuestionID    int64        `json:"question_id"`
	AuthorID      int64        `json:"author_id"`
	Iteration     int          `json:"iteration"`
	IsFinalAnswer bool         `json:"is_final_answer"`
	Text          string       `json:"text"`
	Sources       []string     `json:"sources"`
	ApprovalCount int          `json:"approval_count"`
	ReviewStatus  ReviewStatus `json:"review_status"`
	Reviews       []Review     `json:"reviews"`
	Embedding     []float64    `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type Review struct {
	ReviewerID int64        `json:"reviewer_id"`
	Action     ReviewAction `json:"action"`
	Remarks    string       `json:"remarks,omitempty"`
	At         time.Time    `json:"at"`
}

// HasReviewed reports whether userID already left a review.
func (a *Answer) HasReviewed(userID int64) bool {
	for _, r := range a.Reviews {
		if r.ReviewerID == userID {
			return true
		}
	}
	return false
}

// AnswerSummary is the aggregate used to recompute question counters.
type AnswerSummary struct {
	Count        int
	MaxIteration int
	HasFinal     bool
}
