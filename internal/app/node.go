package app

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grindlemire/graft"
	"go.trai.ch/incr/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/lock"      //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/statefile" //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/tui"       //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/incr/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			shell.NodeID,
			logger.NodeID,
			fs.ResolverNodeID,
			fs.FingerprinterNodeID,
			fs.HasherNodeID,
			statefile.NodeID,
			lock.NodeID,
			telemetry.TracerNodeID,
			linear.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}
	reader, err := graft.Dep[ports.PathStateReader](ctx)
	if err != nil {
		return nil, err
	}
	versioner, err := graft.Dep[ports.CodeVersioner](ctx)
	if err != nil {
		return nil, err
	}
	codec, err := graft.Dep[ports.StateCodec](ctx)
	if err != nil {
		return nil, err
	}
	locker, err := graft.Dep[ports.Locker](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	renderer, err := graft.Dep[ports.Renderer](ctx)
	if err != nil {
		return nil, err
	}
	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	app := New(loader, executor, log, resolver, reader, codec, locker, tracer, renderer, versioner)
	return app.
		WithWatcher(fileWatcher).
		WithInteractiveRenderer(func() ports.Renderer {
			return tui.NewRenderer(tui.NewModel(os.Stderr), tea.WithOutput(os.Stderr))
		}), nil
}

// NewApp resolves the dependency graph and returns the application components.
func NewApp(ctx context.Context) (*Components, error) {
	components, _, err := graft.ExecuteFor[*Components](ctx)
	return components, err
}
