package store

import (
	"errors"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/core/db"
)

// mapErr translates document store errors into store errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, db.ErrConflict):
		return errors.Join(ErrConflict, err)
	default:
		return err
	}
}

// Times are stored as Unix milliseconds so they sort numerically.

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := fromMillis(*ms)
	return &t
}

// nowUTC is truncated to the stored precision so callers see what was persisted.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type countRow struct {
	Count int `json:"count"`
}

// IsConflict reports whether err came from a write-write conflict or a
// unique index violation, including one raised at commit time.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, db.ErrConflict)
}
