package port

import "context"

// LockManager serializes mutations to the same order across process
// instances. It is advisory and best-effort: the database row lock on
// products remains the last line of defense for inventory correctness.
type LockManager interface {
	// Acquire returns true when the caller now holds the lock. Backend
	// failures never propagate; implementations decide whether to degrade
	// to allow-through.
	Acquire(ctx context.Context, key string) bool

	// Release is idempotent and never fails the caller.
	Release(ctx context.Context, key string)
}
