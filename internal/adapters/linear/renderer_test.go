package linear_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/incr/internal/adapters/linear"
	"go.trai.ch/incr/internal/core/domain"
)

func newRenderer(t *testing.T) (*linear.Renderer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var stdout, stderr bytes.Buffer
	return linear.NewRenderer(&stdout, &stderr), &stdout, &stderr
}

func TestRenderer_BuildLifecycle(t *testing.T) {
	r, stdout, stderr := newRenderer(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r.OnPlanEmit([]string{"generate", "compile"}, []string{"compile"})

	r.OnTaskStart("generate", start)
	r.OnTaskComplete("generate", start.Add(time.Second), &domain.IncrementalResult{UpToDate: true}, nil)

	r.OnTaskStart("compile", start)
	r.OnTaskLog("compile", []byte("compiling 2 files\nwarn"))
	r.OnTaskLog("compile", []byte("ing: unused import\r\npartial"))
	r.OnTaskComplete("compile", start.Add(1500*time.Millisecond), &domain.IncrementalResult{
		Changes: []domain.Change{
			{Path: "/p/build/a.o", Type: domain.ChangeCreated},
			{Path: "/p/build/b.o", Type: domain.ChangeModified},
			{Path: "/p/build/c.o", Type: domain.ChangeDeleted},
		},
	}, nil)

	g := goldie.New(t)
	g.Assert(t, "lifecycle_stdout", stdout.Bytes())
	g.Assert(t, "lifecycle_stderr", stderr.Bytes())
}

func TestRenderer_Failure(t *testing.T) {
	r, _, stderr := newRenderer(t)
	start := time.Now()

	r.OnTaskStart("test", start)
	r.OnTaskComplete("test", start.Add(250*time.Millisecond), nil, errors.New("exit status 1"))

	assert.Equal(t, "[test] ✗ Failed after 250ms: exit status 1\n", stderr.String())
}

func TestRenderer_Status(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	r.OnTaskStatus("compile", true, "")
	r.OnTaskStatus("test", false, "inputs changed")

	assert.Empty(t, stdout.String())
	assert.Equal(t, "[compile] ✓ up-to-date\n[test] ○ outdated: inputs changed\n", stderr.String())
}

func TestRenderer_LogForUnknownTaskIsDropped(t *testing.T) {
	r, stdout, _ := newRenderer(t)

	r.OnTaskLog("ghost", []byte("boo\n"))

	assert.Empty(t, stdout.String())
}

func TestRenderer_StartStopWaitWriteNothing(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}
