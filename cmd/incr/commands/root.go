// Package commands implements the CLI commands for the incr build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/incr/internal/app"
	"go.trai.ch/incr/internal/build"
	"go.trai.ch/incr/internal/engine/scheduler"
)

// CLI represents the command line interface for incr.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command

	stateDir string
	json     bool
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Status(ctx context.Context, targetNames []string, opts app.StatusOptions) ([]scheduler.TaskReport, error)
	Clean(ctx context.Context, opts app.CleanOptions) error
	Watch(ctx context.Context, targetNames []string, opts app.WatchOptions) error
}

// LogSettings is implemented by loggers whose format can be switched from the command line.
type LogSettings interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// New creates a new CLI instance with the given app. logs may be nil.
func New(a Application, logs LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "incr",
		Short:         "Run tasks only when their inputs, outputs or configuration changed",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logs:    logs,
		rootCmd: rootCmd,
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVar(&c.json, "json", false, "Write logs and reports as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log cache decisions and other details")
	rootCmd.PersistentFlags().StringVar(&c.stateDir, "state-dir", "",
		"Directory holding the state files (default $INCR_STATE_DIR or .incr/state)")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if c.logs == nil {
			return
		}
		c.logs.SetJSON(c.json)
		c.logs.SetVerbose(verbose)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
