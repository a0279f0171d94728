package lock_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/incr/internal/adapters/lock"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
)

func TestWithLock_ReentrantForSameID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "a")
	c := lock.New()

	var inner bool
	err := c.WithLock(context.Background(), "a", path, func(ctx context.Context, outer ports.StateHandle) error {
		return c.WithLock(ctx, "a", path, func(_ context.Context, h ports.StateHandle) error {
			inner = true
			assert.Same(t, outer, h)
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, inner)
}

func TestWithLock_NestedDifferentIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := lock.New()

	var calls int
	err := c.WithLock(context.Background(), "parent", filepath.Join(dir, "parent"),
		func(ctx context.Context, _ ports.StateHandle) error {
			calls++
			return c.WithLock(ctx, "child", filepath.Join(dir, "child"),
				func(ctx context.Context, _ ports.StateHandle) error {
					calls++
					return c.WithLock(ctx, "parent", filepath.Join(dir, "parent"),
						func(context.Context, ports.StateHandle) error {
							calls++
							return nil
						})
				})
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithLock_SerializesSameID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "same")
	c := lock.New()

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.WithLock(context.Background(), "same", path, func(context.Context, ports.StateHandle) error {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestWithLock_DifferentIDsRunConcurrently(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := lock.New()

	aInside := make(chan struct{})
	bInside := make(chan struct{})

	var wg sync.WaitGroup
	run := func(id string, mine, other chan struct{}) {
		defer wg.Done()
		err := c.WithLock(context.Background(), id, filepath.Join(dir, id), func(context.Context, ports.StateHandle) error {
			close(mine)
			select {
			case <-other:
			case <-time.After(5 * time.Second):
				t.Errorf("%s never observed the other id inside its lock", id)
			}
			return nil
		})
		assert.NoError(t, err)
	}

	wg.Add(2)
	go run("a", aInside, bInside)
	go run("b", bInside, aInside)
	wg.Wait()
}

func TestWithLock_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "busy")
	c := lock.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- c.WithLock(context.Background(), "busy", path, func(context.Context, ports.StateHandle) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	called := false
	err := c.WithLock(ctx, "busy", path, func(context.Context, ports.StateHandle) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrLockFailed.Error())
	assert.False(t, called)

	close(release)
	require.NoError(t, <-done)

	// The lock is free again once the holder is done.
	require.NoError(t, c.WithLock(context.Background(), "busy", path, func(context.Context, ports.StateHandle) error {
		return nil
	}))
}

func TestWithLock_FileLockExcludesOtherCoordinators(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shared")
	first := lock.New()
	second := lock.New()

	err := first.WithLock(context.Background(), "shared", path, func(context.Context, ports.StateHandle) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		return second.WithLock(ctx, "shared", path, func(context.Context, ports.StateHandle) error {
			t.Error("second coordinator acquired a held file lock")
			return nil
		})
	})
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrLockFailed.Error())
}

func TestStateHandle_ReadReplaceRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "state")
	c := lock.New()

	err := c.WithLock(context.Background(), "id", path, func(_ context.Context, h ports.StateHandle) error {
		assert.Equal(t, path, h.Path())

		data, err := h.ReadAll()
		require.NoError(t, err)
		assert.Empty(t, data)

		require.NoError(t, h.Replace([]byte("a much longer first record")))
		require.NoError(t, h.Replace([]byte("short")))

		data, err = h.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "short", string(data))
		return nil
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short", string(content))

	err = c.WithLock(context.Background(), "id", path, func(_ context.Context, h ports.StateHandle) error {
		require.NoError(t, h.Remove())
		data, err := h.ReadAll()
		require.NoError(t, err)
		assert.Empty(t, data)
		return nil
	})
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	if err == nil {
		assert.Empty(t, content)
	} else {
		assert.True(t, os.IsNotExist(err))
	}
}

func TestWithLock_WaiterSeesFileRecreatedAfterRemoval(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recreated")
	first := lock.New()
	second := lock.New()

	entered := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- first.WithLock(context.Background(), "x", path, func(_ context.Context, h ports.StateHandle) error {
			close(entered)
			time.Sleep(50 * time.Millisecond)
			return h.Remove()
		})
	}()
	<-entered

	err := second.WithLock(context.Background(), "x", path, func(_ context.Context, h ports.StateHandle) error {
		return h.Replace([]byte("fresh"))
	})
	require.NoError(t, err)
	require.NoError(t, <-done)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))
}
