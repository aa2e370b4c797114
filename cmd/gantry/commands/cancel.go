package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Request cancellation of a run's unfinished instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := cmd.Flags().GetString("workdir")
			if err != nil {
				return err
			}

			if err := c.app.Cancel(cmd.Context(), workDir, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cancellation requested for run", args[0])
			return nil
		},
	}
}
