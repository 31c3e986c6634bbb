package model

import "time"

// Context is reference text a question can point at. Never updated.
type Context struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
