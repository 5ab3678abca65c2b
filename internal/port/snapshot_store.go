package port

import "context"

type SnapshotStore interface {
	// Read returns the snapshot stored under key, ok is false when none exists
	Read(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Write replaces the snapshot stored under key
	Write(ctx context.Context, key string, data []byte) error
}
