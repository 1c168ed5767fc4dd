package port

import "context"

// ObjectStore fetches descriptor sources from remote object storage, for
// s3://bucket/key descriptor references.
type ObjectStore interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}
