package db

import (
	"context"
	"fmt"

	"github.com/arangodb/go-driver/v2/arangodb"

	arango "github.com/vicharanashala/ajrasakha-sub003/common/arangodb"
)

// DB wraps the selected ArangoDB database and provides transaction support.
// It serves as the main entry point for document operations.
type DB struct {
	client   arango.Client
	database arangodb.Database
}

// New connects, creates the database and collections when missing, and
// returns a ready DB.
func New(ctx context.Context, cfg arango.Config) (*DB, error) {
	client, err := arango.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating arangodb client: %w", err)
	}

	if err := client.EnsureDatabase(ctx); err != nil {
		return nil, fmt.Errorf("ensuring database: %w", err)
	}

	if err := client.EnsureCollections(ctx, Collections()); err != nil {
		return nil, fmt.Errorf("ensuring collections: %w", err)
	}

	return &DB{client: client, database: client.Database()}, nil
}

func (db *DB) Close() error {
	return db.client.Close()
}

// Documents returns a Documents instance for non-transactional operations.
func (db *DB) Documents() *Documents {
	return &Documents{q: db.database}
}

// WithTx executes fn inside a stream transaction over every collection.
// Reads see one snapshot; commits wait for the write to be synced. If fn
// returns an error the transaction is aborted and the error returned as is.
//
// Usage:
//
//	err := db.WithTx(ctx, func(d *db.Documents) error {
//	    if err := d.Insert(ctx, db.CollectionAnswers, doc); err != nil { return err }
//	    return d.Update(ctx, db.CollectionQuestions, key, patch)
//	})
func (db *DB) WithTx(ctx context.Context, fn func(d *Documents) error) error {
	tx, err := db.database.BeginTransaction(ctx,
		arangodb.TransactionCollections{Write: CollectionNames()},
		&arangodb.BeginTransactionOptions{WaitForSync: true, AllowImplicit: true},
	)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Abort(context.WithoutCancel(ctx), nil)
		}
	}()

	if err := fn(&Documents{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx, nil); err != nil {
		return fmt.Errorf("committing transaction: %w", translate(err))
	}
	committed = true

	return nil
}
