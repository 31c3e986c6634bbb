package model

import "time"

// Role is the closed set of actor kinds. Authorization checks compare
// against these constants only.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleExpert Role = "expert"
	RoleUser   Role = "user"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleExpert, RoleUser:
		return true
	}
	return false
}

// CanAnswer reports whether the role may submit or review answers.
func (r Role) CanAnswer() bool {
	return r == RoleAdmin || r == RoleExpert
}

type User struct {
	ID               int64             `json:"id"`
	ExternalID       *string           `json:"-"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Role             Role              `json:"role"`
	IsBlocked        bool              `json:"is_blocked"`
	BlockedUntil     *time.Time        `json:"blocked_until,omitempty"`
	Preference       Preference        `json:"preference"`
	PushSubscription *PushSubscription `json:"-"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type Preference struct {
	Language           string `json:"language,omitempty"`
	Domain             string `json:"domain,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`
}

// PushSubscription is a browser web-push endpoint. Delivery happens outside
// this service; only the subscription is stored.
type PushSubscription struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// ExpertLoad is an unblocked expert with the number of accepting questions
// currently assigned to them.
type ExpertLoad struct {
	ExpertID int64
	Open     int
}
