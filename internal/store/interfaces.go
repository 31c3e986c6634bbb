package store

import (
	"context"
	"errors"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned on write-write conflicts and unique index violations
var ErrConflict = errors.New("conflict")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	// Patch writes only the fields set in patch and returns the stored user.
	Patch(ctx context.Context, userID int64, patch UserPatch) (*model.User, error)
	ListExperts(ctx context.Context, includeBlocked bool) ([]model.User, error)
	// ExpertLoads returns every unblocked expert with their count of assigned
	// questions that still accept answers, least loaded first.
	ExpertLoads(ctx context.Context) ([]model.ExpertLoad, error)
	UnblockExpired(ctx context.Context, now time.Time) (int, error)
	CountExperts(ctx context.Context) (model.ExpertCounts, error)
}

// UserPatch lists user fields to change. Nil fields keep their stored value,
// so writers touching different fields never overwrite each other.
type UserPatch struct {
	ExternalID       *string
	Role             *model.Role
	Preference       *model.Preference
	Block            *UserBlock
	PushSubscription *model.PushSubscription
}

// UserBlock sets the block flag. Until is cleared when nil.
type UserBlock struct {
	Blocked bool
	Until   *time.Time
}

// ContextStore defines the contract for context data access. Contexts are immutable.
type ContextStore interface {
	GetByID(ctx context.Context, id int64) (*model.Context, error)
	Create(ctx context.Context, c *model.Context) error
}

// QuestionStore defines the contract for question data access
type QuestionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	List(ctx context.Context, filter model.QuestionFilter, page model.Page) (model.PageResult[model.Question], error)
	// ListUnassigned returns questions that accept answers and have no expert, oldest first.
	ListUnassigned(ctx context.Context, limit int) ([]model.Question, error)
	// ExpireStale moves open, unanswered questions created at or before cutoff to expired.
	ExpireStale(ctx context.Context, cutoff, now time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[model.QuestionStatus]int, error)
}

// AnswerStore defines the contract for answer data access
type AnswerStore interface {
	GetByID(ctx context.Context, id int64) (*model.Answer, error)
	Create(ctx context.Context, a *model.Answer) error
	Update(ctx context.Context, a *model.Answer) error
	Delete(ctx context.Context, id int64) error
	ListByQuestion(ctx context.Context, questionID int64) ([]model.Answer, error)
	MaxIteration(ctx context.Context, questionID int64) (int, error)
	Summarize(ctx context.Context, questionID int64) (model.AnswerSummary, error)
	// ClearFinal unsets isFinalAnswer on every answer of the question except keepID.
	ClearFinal(ctx context.Context, questionID, keepID int64) error
	// StatsByAuthor fills the answer and review counters of ExpertStats.
	StatsByAuthor(ctx context.Context, authorID int64) (model.ExpertStats, error)
}

// CommentStore defines the contract for comment data access
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	// ListByAnswer returns comments in insertion order.
	ListByAnswer(ctx context.Context, questionID, answerID int64, page model.Page) (model.PageResult[model.Comment], error)
}

// RequestStore defines the contract for flag request data access
type RequestStore interface {
	// GetByID returns soft-deleted requests too; callers decide visibility.
	GetByID(ctx context.Context, id int64) (*model.Request, error)
	Create(ctx context.Context, r *model.Request) error
	Update(ctx context.Context, r *model.Request) error
	List(ctx context.Context, filter model.RequestFilter, page model.Page) (model.PageResult[model.Request], error)
	CountPending(ctx context.Context) (int, error)
}

// ReRouteStore is append-only
type ReRouteStore interface {
	Append(ctx context.Context, h *model.ReRouteHistory) error
	ListByQuestion(ctx context.Context, questionID int64) ([]model.ReRouteHistory, error)
	Latest(ctx context.Context, questionID int64) (*model.ReRouteHistory, error)
	// StatsByExpert fills the re-route counters of ExpertStats.
	StatsByExpert(ctx context.Context, expertID int64) (model.ExpertStats, error)
}

// NotificationStore defines the contract for notification data access
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64, page model.Page) (model.PageResult[model.Notification], error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	// MarkAsRead returns ErrNotFound when the notification does not belong to userID.
	MarkAsRead(ctx context.Context, userID, id int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, userID, id int64) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// BalanceRunStore defines the contract for workload balance run bookkeeping.
// Chunk outcomes live in their own documents so concurrent workers never
// write the same run document.
type BalanceRunStore interface {
	// GetByID returns the run with its chunk outcomes folded in and settled.
	GetByID(ctx context.Context, id int64) (*model.BalanceRun, error)
	Create(ctx context.Context, run *model.BalanceRun) error
	// MarkChunk records a chunk outcome. A failure never replaces an applied mark.
	MarkChunk(ctx context.Context, runID int64, chunkIndex int, outcome model.ChunkOutcome, reason string) error
}
