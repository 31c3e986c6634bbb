package model

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusInReview RequestStatus = "in-review"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInReview, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a request in s may move to next.
// Approved and rejected are final.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return next == RequestStatusInReview || next == RequestStatusApproved || next == RequestStatusRejected
	case RequestStatusInReview:
		return next == RequestStatusApproved || next == RequestStatusRejected
	}
	return false
}

// EntityType names what a flag request points at.
type EntityType string

const (
	EntityTypeQuestion EntityType = "question"
	EntityTypeAnswer   EntityType = "answer"
	EntityTypeContext  EntityType = "context"
)

func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeQuestion, EntityTypeAnswer, EntityTypeContext:
		return true
	}
	return false
}

type Request struct {
	ID          int64             `json:"id"`
	RequestedBy int64             `json:"requested_by"`
	EntityType  EntityType        `json:"entity_type"`
	EntityID    int64             `json:"entity_id"`
	Reason      string            `json:"reason"`
	Details     map[string]string `json:"details,omitempty"`
	Status      RequestStatus     `json:"status"`
	Responses   []RequestResponse `json:"responses"`
	IsDeleted   bool              `json:"-"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type RequestResponse struct {
	Status     RequestStatus `json:"status"`
	ReviewerID int64         `json:"reviewer_id"`
	Response   string        `json:"response,omitempty"`
	At         time.Time     `json:"at"`
}

// RequestDiff puts the entity's current values next to the requested ones.
type RequestDiff struct {
	Request   *Request          `json:"request"`
	Current   map[string]string `json:"current"`
	Requested map[string]string `json:"requested"`
	Changed   []string          `json:"changed"`
}

type RequestFilter struct {
	Status *RequestStatus
}
