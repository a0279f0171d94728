// Package lock serializes work on cache ids within a process and across processes.
package lock

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unique"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

const (
	minPollInterval = 2 * time.Millisecond
	maxPollInterval = 50 * time.Millisecond
)

// Coordinator implements ports.Locker.
// Each cache id owns a weighted semaphore of size one for goroutines of this process,
// and the state file itself carries an advisory lock for other processes.
type Coordinator struct {
	mu    sync.Mutex
	slots map[unique.Handle[string]]*semaphore.Weighted
}

var _ ports.Locker = (*Coordinator)(nil)

// New creates a new Coordinator.
func New() *Coordinator {
	return &Coordinator{
		slots: make(map[unique.Handle[string]]*semaphore.Weighted),
	}
}

type heldKey struct{}

// held is the chain of locks owned by the current call stack.
type held struct {
	parent *held
	id     unique.Handle[string]
	handle *fileHandle
}

func heldFrom(ctx context.Context) *held {
	h, _ := ctx.Value(heldKey{}).(*held)
	return h
}

func (h *held) find(id unique.Handle[string]) *fileHandle {
	for cur := h; cur != nil; cur = cur.parent {
		if cur.id == id {
			return cur.handle
		}
	}
	return nil
}

// WithLock runs fn while holding both locks for id.
func (c *Coordinator) WithLock(
	ctx context.Context,
	id, path string,
	fn func(ctx context.Context, handle ports.StateHandle) error,
) error {
	key := unique.Make(id)
	chain := heldFrom(ctx)
	if existing := chain.find(key); existing != nil {
		return fn(ctx, existing)
	}

	slot := c.slot(key)
	if err := slot.Acquire(ctx, 1); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "id", id)
	}
	defer slot.Release(1)

	handle, err := openLocked(ctx, path)
	if err != nil {
		return zerr.With(err, "id", id)
	}
	defer handle.release()

	return fn(context.WithValue(ctx, heldKey{}, &held{parent: chain, id: key, handle: handle}), handle)
}

func (c *Coordinator) slot(key unique.Handle[string]) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok {
		s = semaphore.NewWeighted(1)
		c.slots[key] = s
	}
	return s
}

// openLocked opens path and takes the advisory lock, polling until it is granted or ctx ends.
// A lock granted on a file that was removed or replaced in the meantime is dropped and retried.
func openLocked(ctx context.Context, path string) (*fileHandle, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateDirCreateFailed.Error()), "path", filepath.Dir(path))
	}

	for {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, domain.FilePerm) //nolint:gosec // state files are not secret
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStateOpenFailed.Error()), "path", path)
		}

		if err := waitLock(ctx, f); err != nil {
			_ = f.Close()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "path", path)
		}

		if sameFile(f, path) {
			return &fileHandle{path: path, file: f}, nil
		}
		_ = unlockFile(f)
		_ = f.Close()
	}
}

func waitLock(ctx context.Context, f *os.File) error {
	interval := minPollInterval
	for {
		ok, err := tryLockFile(f)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		interval = min(interval*2, maxPollInterval)
	}
}

func sameFile(f *os.File, path string) bool {
	opened, err := f.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(opened, current)
}
