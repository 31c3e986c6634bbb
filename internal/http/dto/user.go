package dto

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type UserResponse struct {
	ID           int64            `json:"id,string"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Role         model.Role       `json:"role"`
	IsBlocked    bool             `json:"is_blocked"`
	BlockedUntil *time.Time       `json:"blocked_until,omitempty"`
	Preference   model.Preference `json:"preference"`
	HasPush      bool             `json:"has_push_subscription"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		IsBlocked:    u.IsBlocked,
		BlockedUntil: u.BlockedUntil,
		Preference:   u.Preference,
		HasPush:      u.PushSubscription != nil,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToUserList(users []model.User) []UserResponse {
	return toList(users, ToUserResponse)
}

type UpdatePreferenceRequest struct {
	Language           string `json:"language" binding:"max=32"`
	Domain             string `json:"domain" binding:"max=100"`
	EmailNotifications bool   `json:"email_notifications"`
}

type SetBlockedRequest struct {
	Blocked *bool      `json:"blocked" binding:"required"`
	Until   *time.Time `json:"until,omitempty"`
}

type SetRoleRequest struct {
	Role model.Role `json:"role" binding:"required,role"`
}

type ListExpertsQuery struct {
	IncludeBlocked bool `form:"include_blocked"`
}
