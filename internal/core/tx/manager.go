// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; implementations live in
// infrastructure/storage (postgres and memory).
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Calculation previews use it to read a consistent snapshot of plan tables.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// KeyLocker serializes writers of the same plan key for the lifetime of the
// current transaction.
type KeyLocker interface {
	LockKey(ctx context.Context, namespace string, parts ...int64) error
}
