package port

import (
	"context"
	"time"
)

// IRCache caches canonical IR keyed by descriptor hash. Compilation is
// idempotent, so a hit is byte-identical to a fresh compile of the same
// source.
type IRCache interface {
	// Get returns the cached IR and whether the key was present.
	Get(ctx context.Context, hash string) ([]byte, bool, error)
	// Set stores the IR under the descriptor hash.
	Set(ctx context.Context, hash string, ir []byte, ttl time.Duration) error
}
