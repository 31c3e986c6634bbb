package model

import "time"

type Comment struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	AnswerID   int64     `json:"answer_id"`
	Text       string    `json:"text"`
	AuthorID   int64     `json:"author_id"`
	CreatedAt  time.Time `json:"created_at"`
}
