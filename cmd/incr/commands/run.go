package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/incr/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...|all]",
		Short: "Run tasks whose recorded results are outdated",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			force, _ := cmd.Flags().GetBool("force")
			jobs, _ := cmd.Flags().GetInt("jobs")
			outputMode, _ := cmd.Flags().GetString("output-mode")

			return c.app.Run(cmd.Context(), args, app.RunOptions{
				Force:      force,
				Jobs:       jobs,
				StateDir:   c.stateDir,
				OutputMode: outputMode,
			})
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Run every task even when its recorded result is still valid")
	cmd.Flags().IntP("jobs", "j", 0, "Number of tasks to run at once (default one per CPU)")
	addOutputModeFlag(cmd)
	return cmd
}

func addOutputModeFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output-mode", "o", "auto", "Progress display: auto, tui or linear")
}
