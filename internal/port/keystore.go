package port

import "context"

// KeyStore verifies serve-mode API keys. Keys are stored hashed; the
// presented key carries its ID as "<id>.<secret>".
type KeyStore interface {
	// Verify reports whether the presented key matches a stored hash.
	Verify(ctx context.Context, key string) (bool, error)
	// Add stores a new key hash under an ID.
	Add(ctx context.Context, id string, hash []byte) error
}
