package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced reports a delete blocked by a foreign key.
	ErrReferenced = errors.New("row is referenced")
	// ErrNotPending reports a compare-and-swap on a row that already left the
	// pending state.
	ErrNotPending = errors.New("row is no longer pending")
	// ErrVersionConflict reports an optimistic concurrency mismatch.
	ErrVersionConflict = errors.New("version conflict")
)

// Postgres error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver constraint errors onto package sentinels.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrReferenced
		}
	}
	return err
}

func offsetFor(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return limit, (page - 1) * limit
}
