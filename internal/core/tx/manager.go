// Package tx defines the transaction boundary the workflow engine runs in.
// Storage drivers (postgres, memory) provide the implementations.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
type Manager interface {
	// RunInTransaction executes fn within a transaction carried by the ctx passed to fn.
	// A non-nil error from fn rolls everything back; nil commits.
	// Nested calls join the transaction already present in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInSavepoint runs fn as a nested unit inside the transaction in ctx.
	// If fn fails only its own changes are undone and the outer transaction stays usable.
	// Without a transaction in ctx it behaves like RunInTransaction.
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
