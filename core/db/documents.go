package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict covers write-write conflicts and unique index violations.
	ErrConflict = errors.New("document conflict")
)

type querier interface {
	Query(ctx context.Context, query string, opts *arangodb.QueryOptions) (arangodb.Cursor, error)
}

// Documents runs AQL against either the database or a stream transaction.
type Documents struct {
	q querier
}

func (d *Documents) Insert(ctx context.Context, collection string, doc any) error {
	return d.Exec(ctx, `INSERT @doc INTO @@collection`, map[string]any{
		"@collection": collection,
		"doc":         doc,
	})
}

// Get reads the document with the given key into out.
func (d *Documents) Get(ctx context.Context, collection, key string, out any) error {
	cursor, err := d.query(ctx, `FOR d IN @@collection FILTER d._key == @key LIMIT 1 RETURN d`, map[string]any{
		"@collection": collection,
		"key":         key,
	})
	if err != nil {
		return err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return ErrNotFound
	}
	if _, err := cursor.ReadDocument(ctx, out); err != nil {
		return fmt.Errorf("read document: %w", translate(err))
	}
	return nil
}

// Update merges patch into the document. Null values remove the attribute.
func (d *Documents) Update(ctx context.Context, collection, key string, patch map[string]any) error {
	return d.Exec(ctx, `UPDATE @key WITH @patch IN @@collection OPTIONS { keepNull: false }`, map[string]any{
		"@collection": collection,
		"key":         key,
		"patch":       patch,
	})
}

func (d *Documents) Remove(ctx context.Context, collection, key string) error {
	return d.Exec(ctx, `REMOVE @key IN @@collection`, map[string]any{
		"@collection": collection,
		"key":         key,
	})
}

// Exec runs a query whose result is not needed.
func (d *Documents) Exec(ctx context.Context, query string, bindVars map[string]any) error {
	cursor, err := d.query(ctx, query, bindVars)
	if err != nil {
		return err
	}
	return cursor.Close()
}

// Stream calls fn for every raw document in collection.
func (d *Documents) Stream(ctx context.Context, collection string, fn func(doc map[string]any) error) error {
	cursor, err := d.query(ctx, `FOR d IN @@collection RETURN d`, map[string]any{"@collection": collection})
	if err != nil {
		return err
	}
	defer cursor.Close()

	for cursor.HasMore() {
		var doc map[string]any
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			return fmt.Errorf("read document: %w", translate(err))
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (d *Documents) query(ctx context.Context, query string, bindVars map[string]any) (arangodb.Cursor, error) {
	cursor, err := d.q.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", translate(err))
	}
	return cursor, nil
}

// All runs query and decodes every result into T.
func All[T any](ctx context.Context, d *Documents, query string, bindVars map[string]any) ([]T, error) {
	cursor, err := d.query(ctx, query, bindVars)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	results := make([]T, 0)
	for cursor.HasMore() {
		var item T
		if _, err := cursor.ReadDocument(ctx, &item); err != nil {
			return nil, fmt.Errorf("read document: %w", translate(err))
		}
		results = append(results, item)
	}
	return results, nil
}

// First runs query and decodes the first result. ErrNotFound when empty.
func First[T any](ctx context.Context, d *Documents, query string, bindVars map[string]any) (T, error) {
	var zero T
	cursor, err := d.query(ctx, query, bindVars)
	if err != nil {
		return zero, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return zero, ErrNotFound
	}
	var item T
	if _, err := cursor.ReadDocument(ctx, &item); err != nil {
		return zero, fmt.Errorf("read document: %w", translate(err))
	}
	return item, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case shared.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case shared.IsConflict(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}
