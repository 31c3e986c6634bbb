package service

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these to HTTP status codes; every specific
// error below wraps exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrContextNotFound      = fmt.Errorf("context %w", ErrNotFound)
	ErrQuestionNotFound     = fmt.Errorf("question %w", ErrNotFound)
	ErrAnswerNotFound       = fmt.Errorf("answer %w", ErrNotFound)
	ErrRequestNotFound      = fmt.Errorf("request %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrBalanceRunNotFound   = fmt.Errorf("balance run %w", ErrNotFound)

	ErrQuestionNotOpen   = fmt.Errorf("%w: question is not accepting answers", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
	ErrAlreadyReviewed   = fmt.Errorf("%w: answer already reviewed by this user", ErrConflict)
	ErrReviewClosed      = fmt.Errorf("%w: answer review is already decided", ErrConflict)
	ErrNoPendingReRoute  = fmt.Errorf("%w: question has no pending re-route", ErrConflict)

	ErrAnswerMismatch    = fmt.Errorf("%w: answer does not belong to question", ErrInvalidInput)
	ErrExpertUnavailable = fmt.Errorf("%w: target is not an active expert", ErrInvalidInput)
	ErrSelfAction        = fmt.Errorf("%w: cannot target yourself", ErrInvalidInput)

	ErrSelfReview   = fmt.Errorf("%w: authors cannot review their own answer", ErrForbidden)
	ErrNotOwner     = fmt.Errorf("%w: not the owner", ErrForbidden)
	ErrNotAssignee  = fmt.Errorf("%w: re-route is assigned to another expert", ErrForbidden)
	ErrUserBlocked  = fmt.Errorf("%w: user is blocked", ErrForbidden)
	ErrNotPermitted = fmt.Errorf("%w: role not permitted", ErrForbidden)

	ErrTranslationDisabled = fmt.Errorf("translation %w", ErrUnavailable)

	// Failed inserts surface as internal errors.
	ErrAnswerNotCreated  = errors.New("answer not created")
	ErrCommentNotCreated = errors.New("comment not created")
)

// invalid marks a validation failure while keeping the field errors reachable
// through errors.As.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
