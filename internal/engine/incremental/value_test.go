package incremental_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/incr/internal/engine/incremental"
)

type toolchain struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Flags   []string `json:"flags"`
}

func TestExecuteForValue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "toolchain.json")
	writeFile(t, manifest, "{}")

	c := newCache(t, nil)
	calls := 0
	work := func(context.Context) (incremental.ValueResult[toolchain], error) {
		calls++
		return incremental.ValueResult[toolchain]{
			Value: toolchain{Name: "jdk", Version: "21", Flags: []string{"-Xmx1g"}},
		}, nil
	}

	first, err := incremental.ExecuteForValue(context.Background(), c, "toolchain", nil, []string{manifest}, work)
	require.NoError(t, err)

	second, err := incremental.ExecuteForValue(context.Background(), c, "toolchain", nil, []string{manifest}, work)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, "21", second.Value.Version)
}

func TestExecuteForValue_UndecodableValueIsRecomputed(t *testing.T) {
	t.Parallel()

	c := newCache(t, nil)

	_, err := incremental.ExecuteForValue(context.Background(), c, "value", nil, nil,
		func(context.Context) (incremental.ValueResult[string], error) {
			return incremental.ValueResult[string]{Value: "not a number"}, nil
		})
	require.NoError(t, err)

	calls := 0
	res, err := incremental.ExecuteForValue(context.Background(), c, "value", nil, nil,
		func(context.Context) (incremental.ValueResult[int], error) {
			calls++
			return incremental.ValueResult[int]{Value: 42}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 42, res.Value)

	res, err = incremental.ExecuteForValue(context.Background(), c, "value", nil, nil,
		func(context.Context) (incremental.ValueResult[int], error) {
			calls++
			return incremental.ValueResult[int]{Value: 0}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 42, res.Value)
}

func TestExecuteForValue_Unencodable(t *testing.T) {
	t.Parallel()

	c := newCache(t, nil)
	_, err := incremental.ExecuteForValue(context.Background(), c, "chan", nil, nil,
		func(context.Context) (incremental.ValueResult[chan int], error) {
			return incremental.ValueResult[chan int]{Value: make(chan int)}, nil
		})
	require.Error(t, err)
}
