package incremental

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/zerr"
)

type dynamicInputsKey struct{}

// DynamicInputs records the environment variables and path existence checks a unit of
// work depends on, in addition to its declared inputs. Every observation is persisted
// with the result and re-evaluated before the result is reused.
//
// Observations made by a nested Execute are also recorded by the enclosing one.
type DynamicInputs struct {
	mu     sync.Mutex
	cache  *Cache
	parent *DynamicInputs
	state  domain.DynamicInputsState
}

func newDynamicInputs(c *Cache) *DynamicInputs {
	return &DynamicInputs{cache: c}
}

func withDynamicInputs(ctx context.Context, d *DynamicInputs) context.Context {
	d.parent = DynamicInputsFrom(ctx)
	return context.WithValue(ctx, dynamicInputsKey{}, d)
}

// DynamicInputsFrom returns the recorder of the unit of work running in ctx.
// Outside of a unit of work it returns nil, whose methods read without recording.
func DynamicInputsFrom(ctx context.Context) *DynamicInputs {
	d, _ := ctx.Value(dynamicInputsKey{}).(*DynamicInputs)
	return d
}

// ReadEnv returns the value of an environment variable and records it.
func (d *DynamicInputs) ReadEnv(name string) (string, bool) {
	if d == nil {
		return os.LookupEnv(name)
	}

	value, ok := d.cache.lookupEnv(name)
	var recorded *string
	if ok {
		recorded = &value
	}
	d.merge(domain.DynamicInputsState{Env: map[string]*string{name: recorded}})
	return value, ok
}

// CheckPathExists reports whether an absolute path exists and records the answer.
func (d *DynamicInputs) CheckPathExists(path string) (bool, error) {
	if !filepath.IsAbs(path) {
		return false, zerr.With(domain.ErrPathNotAbsolute, "path", path)
	}
	if d == nil {
		_, err := os.Stat(path)
		return err == nil, nil
	}

	exists, err := d.cache.reader.PathExists(path)
	if err != nil {
		return false, err
	}
	d.merge(domain.DynamicInputsState{PathsExist: map[string]bool{path: exists}})
	return exists, nil
}

// merge records observations here and in every enclosing unit of work.
func (d *DynamicInputs) merge(state domain.DynamicInputsState) {
	if state.IsEmpty() {
		return
	}
	for cur := d; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		cur.state.Merge(state)
		cur.mu.Unlock()
	}
}

func (d *DynamicInputs) snapshot() domain.DynamicInputsState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return domain.DynamicInputsState{
		Env:        maps.Clone(d.state.Env),
		PathsExist: maps.Clone(d.state.PathsExist),
	}
}
