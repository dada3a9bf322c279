package domain

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrCheckout          = errors.New("checkout failed")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCollaboratorUnavailable marks a remote total that could not be
	// obtained, as opposed to a total that is known to be zero.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// Querier is the subset of *sql.DB and *sql.Tx used by repositories, so the
// same method can run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
