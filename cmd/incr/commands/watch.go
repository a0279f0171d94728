package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/incr/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...|all]",
		Short: "Run tasks again whenever files in the project change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, _ := cmd.Flags().GetInt("jobs")
			debounce, _ := cmd.Flags().GetDuration("debounce")
			outputMode, _ := cmd.Flags().GetString("output-mode")

			return c.app.Watch(cmd.Context(), args, app.WatchOptions{
				RunOptions: app.RunOptions{Jobs: jobs, StateDir: c.stateDir, OutputMode: outputMode},
				Debounce:   debounce,
			})
		},
	}
	cmd.Flags().IntP("jobs", "j", 0, "Number of tasks to run at once (default one per CPU)")
	cmd.Flags().Duration("debounce", app.DefaultDebounce, "Quiet period to wait for after a change before running")
	addOutputModeFlag(cmd)
	return cmd
}
