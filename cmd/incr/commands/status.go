package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/incr/internal/app"
)

type statusEntry struct {
	Task     string `json:"task"`
	UpToDate bool   `json:"upToDate"`
	Reason   string `json:"reason,omitempty"`
}

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [targets...|all]",
		Short: "Report which tasks would run, without running anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := c.app.Status(cmd.Context(), args, app.StatusOptions{StateDir: c.stateDir})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.json {
				entries := make([]statusEntry, len(reports))
				for i, r := range reports {
					entries[i] = statusEntry{Task: r.Name, UpToDate: r.UpToDate, Reason: r.Reason}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			outdated := 0
			for _, r := range reports {
				if !r.UpToDate {
					outdated++
				}
			}
			_, err = fmt.Fprintf(out, "%d of %d task(s) outdated\n", outdated, len(reports))
			return err
		},
	}
}
