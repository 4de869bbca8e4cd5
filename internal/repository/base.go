package repository

import (
	"context"
	"errors"
	"strings"

	"devconnect/internal/models"
	"devconnect/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// maxCASAttempts bounds how often a read-modify-write is replayed after
// losing a version race before the caller gets CONFLICT.
const maxCASAttempts = 5

// Mutator edits a freshly loaded aggregate in place. Returning an error aborts
// the write and is passed to the caller unchanged.
type Mutator[T any] func(*T) error

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// mapLookupError turns gorm.ErrRecordNotFound into a NOT_FOUND AppError and
// anything else into INTERNAL_ERROR.
func mapLookupError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// compareAndSwap loads the aggregate, applies mutate and writes it back only if
// nobody else bumped its version in between. save must report whether its
// conditional update matched a row.
func compareAndSwap[T any](
	ctx context.Context,
	aggregate string,
	load func(context.Context) (*T, error),
	mutate Mutator[T],
	save func(context.Context, *T) (bool, error),
) (*T, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := mutate(current); err != nil {
			return nil, err
		}
		ok, err := save(ctx, current)
		if err != nil {
			return nil, err
		}
		if ok {
			return current, nil
		}
		observability.CASRetries.WithLabelValues(aggregate).Inc()
	}
	return nil, models.NewConflictError("The " + aggregate + " was modified concurrently, please retry")
}
