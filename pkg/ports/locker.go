package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates device ownership across several instances.
type DistributedLocker interface {
	// Lock acquires the lock for key (a device name). It blocks until the lock
	// is acquired or ctx is done. The lock expires after ttl unless released.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
