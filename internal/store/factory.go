package store

import (
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
)

// Stores hands out repositories bound to one Documents handle, either the
// database itself or a running transaction.
type Stores struct {
	docs *db.Documents
}

func NewStores(docs *db.Documents) *Stores {
	return &Stores{docs: docs}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.docs)
}

func (s *Stores) Contexts() ContextStore {
	return newContextStore(s.docs)
}

func (s *Stores) Questions() QuestionStore {
	return newQuestionStore(s.docs)
}

func (s *Stores) Answers() AnswerStore {
	return newAnswerStore(s.docs)
}

func (s *Stores) Comments() CommentStore {
	return newCommentStore(s.docs)
}

func (s *Stores) Requests() RequestStore {
	return newRequestStore(s.docs)
}

func (s *Stores) ReRoutes() ReRouteStore {
	return newReRouteStore(s.docs)
}

func (s *Stores) Notifications() NotificationStore {
	return newNotificationStore(s.docs)
}

func (s *Stores) BalanceRuns() BalanceRunStore {
	return newBalanceRunStore(s.docs)
}

// Docs exposes the raw handle for maintenance jobs such as backups.
func (s *Stores) Docs() *db.Documents {
	return s.docs
}
