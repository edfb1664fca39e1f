package persist

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by a SnapshotStore when the slot holds nothing.
var ErrNoSnapshot = errors.New("no snapshot in slot")

// SnapshotStore keeps encoded save records by slot name. Writes replace the
// previous record atomically.
type SnapshotStore interface {
	Save(ctx context.Context, slot string, data []byte) error
	Load(ctx context.Context, slot string) ([]byte, error)
}
