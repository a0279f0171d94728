package ports

import (
	"context"

	"go.trai.ch/incr/internal/core/domain"
)

// StateCodec converts persisted state records to and from their on-disk form.
//
//go:generate go run go.uber.org/mock/mockgen -source=state.go -destination=mocks/mock_state.go -package=mocks
type StateCodec interface {
	// Encode serializes a record.
	Encode(state *domain.PersistedState) ([]byte, error)
	// Decode parses a record. Any anomaly is reported as an error.
	Decode(data []byte) (*domain.PersistedState, error)
}

// StateHandle is an open, locked state file.
type StateHandle interface {
	// Path returns the state file path.
	Path() string
	// ReadAll returns the whole file content.
	ReadAll() ([]byte, error)
	// Replace truncates the file and writes data in a single operation.
	Replace(data []byte) error
	// Remove deletes the state file while the lock is held.
	Remove() error
}

// Locker serializes work on a cache id within the process and across processes.
type Locker interface {
	// WithLock runs fn while holding both the process-local lock for id and the
	// advisory file lock on path. Re-entrant calls for an id already held by ctx
	// reuse the open handle. Both locks are released when fn returns.
	WithLock(ctx context.Context, id, path string, fn func(ctx context.Context, handle StateHandle) error) error
}
