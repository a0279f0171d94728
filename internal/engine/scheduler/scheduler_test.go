package scheduler_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fsadapter "go.trai.ch/incr/internal/adapters/fs"
	"go.trai.ch/incr/internal/adapters/lock"
	"go.trai.ch/incr/internal/adapters/logger"
	"go.trai.ch/incr/internal/adapters/statefile"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/incr/internal/core/ports/mocks"
	"go.trai.ch/incr/internal/engine/incremental"
	"go.trai.ch/incr/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	executor *mocks.MockExecutor
	tracer   *mocks.MockTracer
	renderer *mocks.MockRenderer
}

// setupSchedulerTest creates a scheduler backed by a real cache below root.
func setupSchedulerTest(t *testing.T, root string) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		executor: mocks.NewMockExecutor(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
	}

	mockSpan := mocks.NewMockSpan(ctrl)
	mockSpan.EXPECT().End().AnyTimes()
	mockSpan.EXPECT().RecordError(gomock.Any()).AnyTimes()
	mockSpan.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	mockSpan.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()

	// Start has variadic signature: Start(ctx, name, ...opts).
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, mockSpan
		},
	).AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()

	m.renderer.EXPECT().OnPlanEmit(gomock.Any(), gomock.Any()).AnyTimes()
	m.renderer.EXPECT().OnTaskStart(gomock.Any(), gomock.Any()).AnyTimes()
	m.renderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	lg := logger.New()
	lg.SetOutput(io.Discard)

	osFs := afero.NewOsFs()
	cache := incremental.New(
		domain.DefaultStatePath(root),
		"test",
		fsadapter.NewFingerprinter(osFs),
		statefile.NewCodec(),
		lock.New(),
		lg,
		m.tracer,
	)

	resolver := fsadapter.NewResolver(osFs, fsadapter.NewWalker(osFs))
	return scheduler.NewScheduler(cache, m.executor, resolver, m.tracer, m.renderer), m
}

type taskDef struct {
	inputs  []string
	outputs []string
	deps    []string
	env     map[string]string
}

func createGraph(t *testing.T, root string, defs map[string]taskDef) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	g.SetRoot(root)
	for name, def := range defs {
		require.NoError(t, g.AddTask(&domain.Task{
			Name:         domain.NewInternedString(name),
			Command:      []string{"build", name},
			Inputs:       domain.NewInternedStrings(def.inputs),
			Outputs:      domain.NewInternedStrings(def.outputs),
			Dependencies: domain.NewInternedStrings(def.deps),
			Environment:  def.env,
			WorkingDir:   domain.NewInternedString(root),
		}))
	}
	return g
}

// copyingExecutor concatenates the inputs of a task into each of its outputs.
type copyingExecutor struct {
	t    *testing.T
	root string

	mu    sync.Mutex
	calls map[string]int
}

func newCopyingExecutor(t *testing.T, root string) *copyingExecutor {
	return &copyingExecutor{t: t, root: root, calls: make(map[string]int)}
}

func (e *copyingExecutor) execute(_ context.Context, task *domain.Task, stdout, _ io.Writer) error {
	e.mu.Lock()
	e.calls[task.Name.String()]++
	e.mu.Unlock()

	var content []byte
	for _, in := range task.Inputs {
		data, err := os.ReadFile(filepath.Join(e.root, in.String()))
		if err == nil {
			content = append(content, data...)
		}
	}
	for _, out := range task.Outputs {
		writeFile(e.t, filepath.Join(e.root, out.String()), string(content)+"|"+task.Name.String())
	}
	_, _ = stdout.Write([]byte("built " + task.Name.String() + "\n"))
	return nil
}

func (e *copyingExecutor) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[name]
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
}

func pipeline() map[string]taskDef {
	return map[string]taskDef{
		"generate": {inputs: []string{"src/schema.txt"}, outputs: []string{"gen/model.txt"}},
		"compile": {
			inputs:  []string{"src/main.txt"},
			outputs: []string{"build/app"},
			deps:    []string{"generate"},
		},
	}
}

func TestScheduler_Run_SkipsUpToDateTasks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/schema.txt"), "schema")
	writeFile(t, filepath.Join(root, "src/main.txt"), "main")

	s, m := setupSchedulerTest(t, root)
	m.renderer.EXPECT().OnTaskLog(gomock.Any(), gomock.Any()).AnyTimes()
	exec := newCopyingExecutor(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).AnyTimes()

	g := createGraph(t, root, pipeline())

	require.NoError(t, s.Run(context.Background(), g, []string{"compile"}, 2, false))
	assert.Equal(t, scheduler.StatusCompleted, s.TaskStatuses()["compile"])

	require.NoError(t, s.Run(context.Background(), g, []string{"compile"}, 2, false))
	assert.Equal(t, 1, exec.count("generate"))
	assert.Equal(t, 1, exec.count("compile"))
	assert.Equal(t, scheduler.StatusUpToDate, s.TaskStatuses()["generate"])
	assert.Equal(t, scheduler.StatusUpToDate, s.TaskStatuses()["compile"])
}

func TestScheduler_Run_PropagatesChangesToDependents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/schema.txt"), "schema")
	writeFile(t, filepath.Join(root, "src/main.txt"), "main")

	s, m := setupSchedulerTest(t, root)
	m.renderer.EXPECT().OnTaskLog(gomock.Any(), gomock.Any()).AnyTimes()
	exec := newCopyingExecutor(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).AnyTimes()

	g := createGraph(t, root, pipeline())
	require.NoError(t, s.Run(context.Background(), g, []string{"all"}, 2, false))

	// a new schema changes the generated model, which is an input of compile
	writeFile(t, filepath.Join(root, "src/schema.txt"), "schema v2")
	require.NoError(t, s.Run(context.Background(), g, []string{"all"}, 2, false))
	assert.Equal(t, 2, exec.count("generate"))
	assert.Equal(t, 2, exec.count("compile"))

	writeFile(t, filepath.Join(root, "src/main.txt"), "main v2")
	require.NoError(t, s.Run(context.Background(), g, []string{"all"}, 2, false))
	assert.Equal(t, 2, exec.count("generate"))
	assert.Equal(t, 3, exec.count("compile"))
}

func TestScheduler_Run_ConfigurationChangeRebuilds(t *testing.T) {
	root := t.TempDir()
	s, m := setupSchedulerTest(t, root)
	m.renderer.EXPECT().OnTaskLog(gomock.Any(), gomock.Any()).AnyTimes()
	exec := newCopyingExecutor(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).AnyTimes()

	def := taskDef{outputs: []string{"out.txt"}, env: map[string]string{"MODE": "debug"}}
	g := createGraph(t, root, map[string]taskDef{"build": def})
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1, false))
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1, false))
	assert.Equal(t, 1, exec.count("build"))

	def.env = map[string]string{"MODE": "release"}
	g = createGraph(t, root, map[string]taskDef{"build": def})
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1, false))
	assert.Equal(t, 2, exec.count("build"))
}

func TestScheduler_Run_Force(t *testing.T) {
	root := t.TempDir()
	s, m := setupSchedulerTest(t, root)
	m.renderer.EXPECT().OnTaskLog(gomock.Any(), gomock.Any()).AnyTimes()
	exec := newCopyingExecutor(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).AnyTimes()

	g := createGraph(t, root, map[string]taskDef{"build": {outputs: []string{"out.txt"}}})
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1, false))
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1, true))
	assert.Equal(t, 2, exec.count("build"))
}

func TestScheduler_Run_RendersTaskOutput(t *testing.T) {
	root := t.TempDir()
	s, m := setupSchedulerTest(t, root)
	exec := newCopyingExecutor(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute)
	m.renderer.EXPECT().OnTaskLog("build", []byte("built build\n")).Times(1)

	g := createGraph(t, root, map[string]taskDef{"build": {outputs: []string{"out.txt"}}})
	require.NoError(t, s.Run(context.Background(), g, []string{"build"}, 1, false))
}

func TestScheduler_Run_FailureSkipsDependents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		s, m := setupSchedulerTest(t, root)

		// A depends on B and C, B and C depend on D. B fails.
		g := createGraph(t, root, map[string]taskDef{
			"A": {deps: []string{"B", "C"}},
			"B": {deps: []string{"D"}},
			"C": {deps: []string{"D"}},
			"D": {},
		})

		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, task *domain.Task, _, _ io.Writer) error {
				switch task.Name.String() {
				case "B":
					return errors.New("B failed")
				case "A":
					t.Error("task A should not be executed")
				}
				return nil
			}).Times(3)

		err := s.Run(context.Background(), g, []string{"A"}, 4, false)
		require.Error(t, err)
		require.ErrorContains(t, err, domain.ErrTaskExecutionFailed.Error())
		require.ErrorContains(t, err, "B failed")

		statuses := s.TaskStatuses()
		assert.Equal(t, scheduler.StatusFailed, statuses["B"])
		assert.Equal(t, scheduler.StatusCompleted, statuses["C"])
		assert.Equal(t, scheduler.StatusCompleted, statuses["D"])
		assert.Equal(t, scheduler.StatusPending, statuses["A"])
	})
}

func TestScheduler_Run_MissingOutputFails(t *testing.T) {
	root := t.TempDir()
	s, m := setupSchedulerTest(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	g := createGraph(t, root, map[string]taskDef{"build": {outputs: []string{"never/written"}}})
	err := s.Run(context.Background(), g, []string{"build"}, 1, false)
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrOutputMissing.Error())
}

func TestScheduler_Run_OutputOutsideRoot(t *testing.T) {
	root := t.TempDir()
	s, _ := setupSchedulerTest(t, root)

	g := createGraph(t, root, map[string]taskDef{"build": {outputs: []string{"../escape"}}})
	err := s.Run(context.Background(), g, []string{"build"}, 1, false)
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrOutputPathOutsideRoot.Error())
}

func TestScheduler_Run_UnknownTarget(t *testing.T) {
	root := t.TempDir()
	s, _ := setupSchedulerTest(t, root)

	g := createGraph(t, root, map[string]taskDef{"build": {}})
	err := s.Run(context.Background(), g, []string{"deploy"}, 1, false)
	require.ErrorContains(t, err, domain.ErrTaskNotFound.Error())
}

func TestScheduler_Run_ZeroTaskGraph(t *testing.T) {
	root := t.TempDir()
	s, _ := setupSchedulerTest(t, root)

	require.NoError(t, s.Run(context.Background(), createGraph(t, root, nil), []string{"all"}, 1, false))
}

func TestScheduler_Run_RespectsParallelism(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		s, m := setupSchedulerTest(t, root)

		g := createGraph(t, root, map[string]taskDef{"a": {}, "b": {}, "c": {}, "d": {}})
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, *domain.Task, io.Writer, io.Writer) error {
				time.Sleep(time.Second)
				return nil
			}).Times(4)

		start := time.Now()
		require.NoError(t, s.Run(context.Background(), g, []string{"all"}, 2, false))
		assert.Equal(t, 2*time.Second, time.Since(start))
	})
}

func TestScheduler_Run_CancelWaitsForRunningTasks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		s, m := setupSchedulerTest(t, root)
		g := createGraph(t, root, map[string]taskDef{
			"slow":  {},
			"after": {deps: []string{"slow"}},
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, *domain.Task, io.Writer, io.Writer) error {
				cancel()
				// the command ignores the cancellation and finishes its work
				time.Sleep(time.Second)
				return nil
			}).Times(1)

		start := time.Now()
		err := s.Run(ctx, g, []string{"after"}, 1, false)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, time.Second, time.Since(start))
		assert.Equal(t, scheduler.StatusCompleted, s.TaskStatuses()["slow"])
		assert.NotEqual(t, scheduler.StatusRunning, s.TaskStatuses()["after"])
	})
}

func TestScheduler_Status(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/schema.txt"), "schema")
	writeFile(t, filepath.Join(root, "src/main.txt"), "main")

	s, m := setupSchedulerTest(t, root)
	m.renderer.EXPECT().OnTaskLog(gomock.Any(), gomock.Any()).AnyTimes()
	m.renderer.EXPECT().OnTaskStatus(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	exec := newCopyingExecutor(t, root)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).AnyTimes()

	g := createGraph(t, root, pipeline())

	reports, err := s.Status(context.Background(), g, []string{"compile"})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "generate", reports[0].Name)
	assert.False(t, reports[0].UpToDate)
	assert.Equal(t, "no recorded state", reports[0].Reason)

	require.NoError(t, s.Run(context.Background(), g, []string{"compile"}, 1, false))

	writeFile(t, filepath.Join(root, "src/main.txt"), "main v2")
	reports, err = s.Status(context.Background(), g, []string{"compile"})
	require.NoError(t, err)
	assert.Equal(t, []scheduler.TaskReport{
		{Name: "generate", UpToDate: true},
		{Name: "compile", UpToDate: false, Reason: reports[1].Reason},
	}, reports)
	assert.Contains(t, reports[1].Reason, "inputs changed")
	assert.Equal(t, 1, exec.count("compile"))
}
