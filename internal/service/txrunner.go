package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

// StoreProvider exposes the stores a service operation may touch, bound either
// to the database or to a running transaction.
type StoreProvider interface {
	Users() store.UserStore
	Contexts() store.ContextStore
	Questions() store.QuestionStore
	Answers() store.AnswerStore
	Comments() store.CommentStore
	Requests() store.RequestStore
	ReRoutes() store.ReRouteStore
	Notifications() store.NotificationStore
	BalanceRuns() store.BalanceRunStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(d *db.Documents) error {
		return fn(store.NewStores(d))
	})
}

const maxConflictAttempts = 3

// retryOnConflict reruns fn while it fails with a write-write conflict.
// fn must run a complete transaction so every attempt starts from a fresh snapshot.
func retryOnConflict(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxConflictAttempts; attempt++ {
		err = fn()
		if !store.IsConflict(err) {
			return err
		}
		slog.WarnContext(ctx, "write conflict, retrying transaction",
			"operation", operation,
			"attempt", attempt)
	}
	return fmt.Errorf("%w: %w", ErrConflict, err)
}

// notFound converts store.ErrNotFound into the given service error.
func notFound(err, target error) error {
	if errors.Is(err, store.ErrNotFound) {
		return target
	}
	return err
}
