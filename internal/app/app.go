// Package app implements the application layer for incr.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/incr/internal/adapters/detector" //nolint:depguard // Output mode selection
	"go.trai.ch/incr/internal/adapters/watcher"  //nolint:depguard // Debouncer shared with the adapter
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/incr/internal/engine/incremental"
	"go.trai.ch/incr/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	resolver     ports.InputResolver
	reader       ports.PathStateReader
	codec        ports.StateCodec
	locker       ports.Locker
	tracer       ports.Tracer
	renderer     ports.Renderer
	versioner    ports.CodeVersioner
	watcher      ports.Watcher

	// interactive builds the renderer used in TUI mode. Without it every run is linear.
	interactive func() ports.Renderer
	detect      func() detector.OutputMode

	workDir string
	getenv  func(string) string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	resolver ports.InputResolver,
	reader ports.PathStateReader,
	codec ports.StateCodec,
	locker ports.Locker,
	tracer ports.Tracer,
	renderer ports.Renderer,
	versioner ports.CodeVersioner,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		resolver:     resolver,
		reader:       reader,
		codec:        codec,
		locker:       locker,
		tracer:       tracer,
		renderer:     renderer,
		versioner:    versioner,
		detect:       detector.DetectEnvironment,
		workDir:      ".",
		getenv:       os.Getenv,
	}
}

// WithInteractiveRenderer sets how the renderer for TUI mode is built. A fresh one is built per run.
func (a *App) WithInteractiveRenderer(build func() ports.Renderer) *App {
	a.interactive = build
	return a
}

// WithOutputDetector replaces the detection of the output mode used when no mode is requested.
func (a *App) WithOutputDetector(detect func() detector.OutputMode) *App {
	a.detect = detect
	return a
}

// WithWorkDir sets the directory the configuration is searched from.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithWatcher sets the watcher used by Watch.
func (a *App) WithWatcher(w ports.Watcher) *App {
	a.watcher = w
	return a
}

// WithGetenv replaces the environment lookup used for INCR_STATE_DIR and INCR_CODE_VERSION.
func (a *App) WithGetenv(getenv func(string) string) *App {
	a.getenv = getenv
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Force runs every task even when its recorded result is still valid.
	Force bool
	// Jobs bounds the number of tasks running at once. Zero means one per CPU.
	Jobs int
	// StateDir overrides where state files are kept.
	StateDir string
	// OutputMode is "auto", "tui" or "linear". Empty means auto.
	OutputMode string
}

// Run executes the build process for the specified targets.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	renderer, err := a.selectRenderer(opts.OutputMode)
	if err != nil {
		return err
	}
	return present(ctx, renderer, func(ctx context.Context) error {
		return a.build(ctx, targetNames, opts, renderer)
	})
}

// build runs the targets once, reporting to renderer.
func (a *App) build(ctx context.Context, targetNames []string, opts RunOptions, renderer ports.Renderer) error {
	graph, sched, err := a.prepare(ctx, opts.StateDir, renderer)
	if err != nil {
		return err
	}

	// problems found before any task starts are reported as they are
	if err := graph.Validate(); err != nil {
		return err
	}
	if err := scheduler.CheckTargets(graph, targetNames); err != nil {
		return err
	}

	ctx, span := a.tracer.Start(ctx, "run", ports.WithAttribute("targets", targetNames))
	defer span.End()

	if err := sched.Run(ctx, graph, targetNames, opts.Jobs, opts.Force); err != nil {
		span.RecordError(err)
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	return nil
}

// selectRenderer picks the renderer for the requested output mode.
func (a *App) selectRenderer(flag string) (ports.Renderer, error) {
	mode, err := detector.ResolveMode(a.detect(), flag)
	if err != nil {
		return nil, err
	}
	if mode == detector.ModeTUI && a.interactive != nil {
		return a.interactive(), nil
	}
	return a.renderer, nil
}

// present shows renderer while fn runs, and stops it once fn returned.
// A renderer that ends with an error, such as a TUI the user quit, cancels fn.
func present(ctx context.Context, renderer ports.Renderer, fn func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() { _ = renderer.Stop() }()
		return fn(ctx)
	})

	return g.Wait()
}

// DefaultDebounce is how long file changes are collected before a watch round starts.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	RunOptions
	// Debounce is how long file changes are collected before the next run.
	Debounce time.Duration
}

// Watch runs the targets, then runs them again whenever a file below the project root changes.
// Failed runs are reported and watching continues. It returns nil once ctx is done.
func (a *App) Watch(ctx context.Context, targetNames []string, opts WatchOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}
	if a.watcher == nil {
		return zerr.With(domain.ErrWatchFailed, "reason", "no watcher configured")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	cwd, err := filepath.Abs(a.workDir)
	if err != nil {
		return zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}
	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	stateDir, err := a.stateDir(root, opts.StateDir)
	if err != nil {
		return err
	}

	renderer, err := a.selectRenderer(opts.OutputMode)
	if err != nil {
		return err
	}
	err = present(ctx, renderer, func(ctx context.Context) error {
		return a.watch(ctx, root, stateDir, targetNames, opts, renderer)
	})
	if errors.Is(err, domain.ErrInterrupted) {
		return nil
	}
	return err
}

// watch runs rounds until ctx is done.
func (a *App) watch(
	ctx context.Context,
	root, stateDir string,
	targetNames []string,
	opts WatchOptions,
	renderer ports.Renderer,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.watcher.Start(ctx, root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	trigger := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(opts.Debounce, func(paths []string) {
		a.logger.Debug("files changed", "count", len(paths), "first", paths[0])
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			// state files change on every run
			if isWithin(event.Path, stateDir) {
				continue
			}
			debouncer.Add(event.Path)
		}
	}()

	a.watchRound(ctx, targetNames, opts.RunOptions, renderer)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			a.watchRound(ctx, targetNames, opts.RunOptions, renderer)
		}
	}
}

// watchRound runs the targets once. A failed run does not end watching.
func (a *App) watchRound(ctx context.Context, targetNames []string, opts RunOptions, renderer ports.Renderer) {
	err := a.build(ctx, targetNames, opts, renderer)
	switch {
	case ctx.Err() != nil:
		return
	case err == nil:
	case errors.Is(err, domain.ErrBuildExecutionFailed):
		// the renderer already reported the failing tasks
	default:
		a.logger.Error(err)
	}
	a.logger.Info("watching for changes...")
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// StatusOptions configuration for the Status method.
type StatusOptions struct {
	StateDir string
}

// Status reports for every target and its dependencies whether a run would reuse its recorded result.
func (a *App) Status(ctx context.Context, targetNames []string, opts StatusOptions) ([]scheduler.TaskReport, error) {
	if len(targetNames) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	// status is a short report, so it is always printed line by line
	graph, sched, err := a.prepare(ctx, opts.StateDir, a.renderer)
	if err != nil {
		return nil, err
	}
	return sched.Status(ctx, graph, targetNames)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	StateDir string
}

// Clean removes the state directory of the project.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	cwd, err := filepath.Abs(a.workDir)
	if err != nil {
		return zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}
	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	stateDir, err := a.stateDir(root, opts.StateDir)
	if err != nil {
		return err
	}

	a.logger.Info(fmt.Sprintf("removing %s...", stateDir))
	if err := os.RemoveAll(stateDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanState.Error()), "path", stateDir)
	}
	a.logger.Info(fmt.Sprintf("removed %s", stateDir))
	return nil
}

// prepare loads the task graph and builds a scheduler backed by the project's cache.
// Hashing the executable and parsing the configuration are independent and run concurrently.
func (a *App) prepare(
	ctx context.Context,
	stateDirFlag string,
	renderer ports.Renderer,
) (*domain.Graph, *scheduler.Scheduler, error) {
	cwd, err := filepath.Abs(a.workDir)
	if err != nil {
		return nil, nil, zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}

	var (
		graph       *domain.Graph
		codeVersion string
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := a.configLoader.Load(cwd)
		if err != nil {
			return zerr.Wrap(err, "failed to load configuration")
		}
		graph = loaded
		return nil
	})
	g.Go(func() error {
		version, err := a.codeVersion()
		codeVersion = version
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stateDir, err := a.stateDir(graph.Root(), stateDirFlag)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("using state directory", "path", stateDir, "code_version", codeVersion)

	cache := incremental.New(stateDir, codeVersion, a.reader, a.codec, a.locker, a.logger, a.tracer)
	return graph, scheduler.NewScheduler(cache, a.executor, a.resolver, a.tracer, renderer), nil
}

// stateDir picks the state directory: the flag, then INCR_STATE_DIR, then .incr/state below the root.
func (a *App) stateDir(root, flag string) (string, error) {
	dir := flag
	if dir == "" {
		dir = a.getenv(domain.StateDirEnvVar)
	}
	if dir == "" {
		dir = domain.DefaultStatePath(root)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFailedToResolveRelativePath.Error()), "path", dir)
	}
	return abs, nil
}

func (a *App) codeVersion() (string, error) {
	if v := a.getenv(domain.CodeVersionEnvVar); v != "" {
		return v, nil
	}
	return a.versioner.CodeVersion()
}
