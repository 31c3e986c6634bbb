package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type CreateRequestRequest struct {
	EntityType model.EntityType  `json:"entity_type" binding:"required,entity_type"`
	EntityID   int64             `json:"entity_id,string" binding:"required"`
	Reason     string            `json:"reason" binding:"required,max=2000"`
	Details    map[string]string `json:"details"`
}

type UpdateRequestStatusRequest struct {
	Status   model.RequestStatus `json:"status" binding:"required,request_status"`
	Response string              `json:"response" binding:"max=2000"`
}

type ListRequestsQuery struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,request_status"`
}

type RequestResponseEntry struct {
	Status     model.RequestStatus `json:"status"`
	ReviewerID int64               `json:"reviewer_id,string"`
	Response   string              `json:"response,omitempty"`
	At         time.Time           `json:"at"`
}

type RequestResponse struct {
	ID          int64                  `json:"id,string"`
	RequestedBy int64                  `json:"requested_by,string"`
	EntityType  model.EntityType       `json:"entity_type"`
	EntityID    int64                  `json:"entity_id,string"`
	Reason      string                 `json:"reason"`
	Details     map[string]string      `json:"details,omitempty"`
	Status      model.RequestStatus    `json:"status"`
	Responses   []RequestResponseEntry `json:"responses"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func ToRequestResponse(r *model.Request) RequestResponse {
	return RequestResponse{
		ID:          r.ID,
		RequestedBy: r.RequestedBy,
		EntityType:  r.EntityType,
		EntityID:    r.EntityID,
		Reason:      r.Reason,
		Details:     r.Details,
		Status:      r.Status,
		Responses: toList(r.Responses, func(e *model.RequestResponse) RequestResponseEntry {
			return RequestResponseEntry{Status: e.Status, ReviewerID: e.ReviewerID, Response: e.Response, At: e.At}
		}),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type RequestDiffResponse struct {
	Request   RequestResponse   `json:"request"`
	Current   map[string]string `json:"current"`
	Requested map[string]string `json:"requested"`
	Changed   []string          `json:"changed"`
}

func ToRequestDiffResponse(d *model.RequestDiff) RequestDiffResponse {
	changed := d.Changed
	if changed == nil {
		changed = []string{}
	}
	return RequestDiffResponse{
		Request:   ToRequestResponse(d.Request),
		Current:   d.Current,
		Requested: d.Requested,
		Changed:   changed,
	}
}
