// Package scheduler runs a task graph, routing every task through the incremental cache.
package scheduler

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/incr/internal/engine/incremental"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task ran and its result was recorded.
	StatusCompleted TaskStatus = "Completed"
	// StatusUpToDate indicates the recorded result was reused.
	StatusUpToDate TaskStatus = "UpToDate"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
)

// TaskReport is the outcome of a read-only status check of one task.
type TaskReport struct {
	Name     string
	UpToDate bool
	Reason   string
}

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	cache    *incremental.Cache
	executor ports.Executor
	resolver ports.InputResolver
	tracer   ports.Tracer
	renderer ports.Renderer

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	cache *incremental.Cache,
	executor ports.Executor,
	resolver ports.InputResolver,
	tracer ports.Tracer,
	renderer ports.Renderer,
) *Scheduler {
	return &Scheduler{
		cache:      cache,
		executor:   executor,
		resolver:   resolver,
		tracer:     tracer,
		renderer:   renderer,
		taskStatus: make(map[domain.InternedString]TaskStatus),
	}
}

func (s *Scheduler) initTaskStatuses(tasks []domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		s.taskStatus[task] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// TaskStatuses returns a snapshot of the status of every task seen so far.
func (s *Scheduler) TaskStatuses() map[string]TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]TaskStatus, len(s.taskStatus))
	for name, status := range s.taskStatus {
		out[name.String()] = status
	}
	return out
}

// Run executes the targets and their dependencies with the specified parallelism.
// If targetNames contains "all", all tasks in the graph are executed.
// With force set every task runs even when its recorded result is still valid.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	targetNames []string,
	parallelism int,
	force bool,
) error {
	if err := graph.Validate(); err != nil {
		return err
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state, err := s.newRunState(ctx, graph, targetNames, parallelism, force)
	if err != nil {
		return err
	}

	planned := plannedTasks(graph, state.tasks)
	s.tracer.EmitPlan(ctx, planned)
	s.renderer.OnPlanEmit(planned, targetNames)

	s.initTaskStatuses(state.allTasks)

	return state.runExecutionLoop()
}

// Status checks every target and its dependencies without running anything.
func (s *Scheduler) Status(ctx context.Context, graph *domain.Graph, targetNames []string) ([]TaskReport, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	tasksToRun, _, err := resolveTasksToRun(graph, targetNames)
	if err != nil {
		return nil, err
	}

	reports := make([]TaskReport, 0, len(tasksToRun))
	for task := range graph.Walk() {
		if !tasksToRun[task.Name] {
			continue
		}

		plan, err := s.planTask(graph, &task)
		if err != nil {
			return nil, zerr.With(err, "task", task.Name.String())
		}

		upToDate, reason, err := s.cache.Status(ctx, task.Name.String(), plan.configuration, plan.inputs)
		if err != nil {
			return nil, zerr.With(err, "task", task.Name.String())
		}

		s.renderer.OnTaskStatus(task.Name.String(), upToDate, reason)
		reports = append(reports, TaskReport{Name: task.Name.String(), UpToDate: upToDate, Reason: reason})
	}
	return reports, nil
}

// CheckTargets reports an error when a target is neither "all" nor a task of graph.
func CheckTargets(graph *domain.Graph, targetNames []string) error {
	_, _, err := resolveTasksToRun(graph, targetNames)
	return err
}

type result struct {
	task        domain.InternedString
	err         error
	incremental *domain.IncrementalResult
}

type schedulerRunState struct {
	graph       *domain.Graph
	inDegree    map[domain.InternedString]int
	tasks       map[domain.InternedString]domain.Task
	ready       []domain.InternedString
	active      int
	resultsCh   chan result
	errs        error
	ctx         context.Context
	parallelism int
	s           *Scheduler
	allTasks    []domain.InternedString
	force       bool
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	targetNames []string,
	parallelism int,
	force bool,
) (*schedulerRunState, error) {
	tasksToRun, allTasks, err := resolveTasksToRun(graph, targetNames)
	if err != nil {
		return nil, err
	}

	inDegree := make(map[domain.InternedString]int, len(tasksToRun))
	tasks := make(map[domain.InternedString]domain.Task, len(tasksToRun))

	for name := range tasksToRun {
		task, _ := graph.GetTask(name)
		tasks[name] = task

		// only dependencies that are part of this run count
		degree := 0
		for _, dep := range task.Dependencies {
			if tasksToRun[dep] {
				degree++
			}
		}
		inDegree[name] = degree
	}

	var ready []domain.InternedString
	for task := range graph.Walk() {
		if _, ok := tasks[task.Name]; ok && inDegree[task.Name] == 0 {
			ready = append(ready, task.Name)
		}
	}

	return &schedulerRunState{
		graph:       graph,
		inDegree:    inDegree,
		tasks:       tasks,
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		ctx:         ctx,
		parallelism: parallelism,
		s:           s,
		allTasks:    allTasks,
		force:       force,
	}, nil
}

func (state *schedulerRunState) runExecutionLoop() error {
	done := state.ctx.Done()
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			// Cancellation is seen once. Running tasks still report on resultsCh.
			done = nil
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		taskName := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(taskName, StatusRunning)

		t := state.tasks[taskName]
		go state.executeTask(&t)
	}
}

func (state *schedulerRunState) executeTask(t *domain.Task) {
	name := t.Name.String()
	state.s.renderer.OnTaskStart(name, time.Now())

	// The span has to end before the result is sent, otherwise the loop may finish first.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, name)
		defer span.End()

		plan, err := state.s.planTask(state.graph, t)
		if err != nil {
			span.RecordError(err)
			return result{task: t.Name, err: err}
		}

		var opts []incremental.ExecuteOption
		if state.force {
			opts = append(opts, incremental.WithForceRecalculation())
		}

		logs := &taskWriter{renderer: state.s.renderer, name: name}
		out := io.MultiWriter(logs, span)

		incResult, err := state.s.cache.Execute(ctx, name, plan.configuration, plan.inputs,
			func(ctx context.Context) (domain.ExecutionResult, error) {
				if err := state.s.executor.Execute(ctx, t, out, out); err != nil {
					return domain.ExecutionResult{}, err
				}
				return domain.ExecutionResult{
					Outputs:         plan.outputs,
					ExcludedOutputs: plan.excludes,
					ExpiresAt:       plan.expiresAt(),
				}, nil
			}, opts...)
		if err != nil {
			span.RecordError(err)
			return result{task: t.Name, err: err}
		}

		span.SetAttribute("incr.up_to_date", incResult.UpToDate)
		span.SetAttribute("incr.changes", len(incResult.Changes))
		return result{task: t.Name, incremental: incResult}
	}()

	state.s.renderer.OnTaskComplete(name, time.Now(), res.incremental, res.err)
	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		enhancedErr := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task.String())
		state.errs = errors.Join(state.errs, enhancedErr)
		state.s.updateStatus(res.task, StatusFailed)
		return
	}

	if res.incremental.UpToDate {
		state.s.updateStatus(res.task, StatusUpToDate)
	} else {
		state.s.updateStatus(res.task, StatusCompleted)
	}

	for _, dep := range state.graph.Dependents(res.task) {
		if _, ok := state.tasks[dep]; ok {
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
	}
}

// plannedTasks filters the topological order of the graph down to the tasks of this run.
func plannedTasks(graph *domain.Graph, tasks map[domain.InternedString]domain.Task) []string {
	planned := make([]string, 0, len(tasks))
	for task := range graph.Walk() {
		if _, ok := tasks[task.Name]; ok {
			planned = append(planned, task.Name.String())
		}
	}
	return planned
}

func resolveTasksToRun(
	graph *domain.Graph,
	targetNames []string,
) (map[domain.InternedString]bool, []domain.InternedString, error) {
	if len(targetNames) == 0 {
		return nil, nil, domain.ErrNoTargetsSpecified
	}

	if slices.Contains(targetNames, "all") {
		tasksToRun := make(map[domain.InternedString]bool, graph.TaskCount())
		allTasks := make([]domain.InternedString, 0, graph.TaskCount())
		for task := range graph.Walk() {
			tasksToRun[task.Name] = true
			allTasks = append(allTasks, task.Name)
		}
		return tasksToRun, allTasks, nil
	}

	targets := make([]domain.InternedString, 0, len(targetNames))
	for _, nameStr := range targetNames {
		name := domain.NewInternedString(nameStr)
		if _, ok := graph.GetTask(name); !ok {
			return nil, nil, zerr.With(domain.ErrTaskNotFound, "task", nameStr)
		}
		targets = append(targets, name)
	}

	return collectDependencies(graph, targets), targets, nil
}

func collectDependencies(graph *domain.Graph, targets []domain.InternedString) map[domain.InternedString]bool {
	tasksToRun := make(map[domain.InternedString]bool)
	queue := slices.Clone(targets)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if tasksToRun[current] {
			continue
		}
		tasksToRun[current] = true

		task, _ := graph.GetTask(current)
		queue = append(queue, task.Dependencies...)
	}

	return tasksToRun
}

// taskWriter forwards task output to the renderer.
type taskWriter struct {
	renderer ports.Renderer
	name     string
}

func (w *taskWriter) Write(p []byte) (int, error) {
	w.renderer.OnTaskLog(w.name, slices.Clone(p))
	return len(p), nil
}

// taskPlan is what the cache needs to know about a task.
type taskPlan struct {
	configuration map[string]string
	inputs        []string
	outputs       []string
	excludes      []string
	expires       time.Duration
}

func (p taskPlan) expiresAt() time.Time {
	if p.expires <= 0 {
		return time.Time{}
	}
	return time.Now().Add(p.expires)
}

// planTask resolves the cache inputs and outputs of a task.
// Its inputs are its resolved input files plus the targets of its dependencies.
func (s *Scheduler) planTask(graph *domain.Graph, t *domain.Task) (taskPlan, error) {
	root, err := filepath.Abs(graph.Root())
	if err != nil {
		return taskPlan{}, zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}

	inputs, err := s.resolver.ResolveInputs(internedToStrings(t.Inputs), root)
	if err != nil {
		return taskPlan{}, zerr.Wrap(err, domain.ErrInputResolutionFailed.Error())
	}

	for _, depName := range t.Dependencies {
		dep, _ := graph.GetTask(depName)
		depOutputs, err := rootedPaths(root, dep.Outputs)
		if err != nil {
			return taskPlan{}, err
		}
		inputs = append(inputs, depOutputs...)
	}

	outputs, err := rootedPaths(root, t.Outputs)
	if err != nil {
		return taskPlan{}, err
	}
	excludes, err := rootedPaths(root, t.Excludes)
	if err != nil {
		return taskPlan{}, err
	}

	return taskPlan{
		configuration: taskConfiguration(t),
		inputs:        inputs,
		outputs:       outputs,
		excludes:      excludes,
		expires:       t.Expires,
	}, nil
}

// taskConfiguration holds everything besides files that determines what a task produces.
func taskConfiguration(t *domain.Task) map[string]string {
	quoted := make([]string, len(t.Command))
	for i, arg := range t.Command {
		quoted[i] = strconv.Quote(arg)
	}

	cfg := make(map[string]string, len(t.Environment)+2)
	cfg["cmd"] = strings.Join(quoted, " ")
	cfg["workingDir"] = t.WorkingDir.String()
	for k, v := range t.Environment {
		cfg["env."+k] = v
	}
	return cfg
}

// rootedPaths makes paths absolute against root and rejects the ones that escape it.
func rootedPaths(root string, paths []domain.InternedString) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		path := p.String()
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		path = filepath.Clean(path)

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrFailedToResolveRelativePath.Error()), "file", p.String())
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, zerr.With(domain.ErrOutputPathOutsideRoot, "file", p.String())
		}
		out = append(out, path)
	}
	return out, nil
}

func internedToStrings(in []domain.InternedString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}
