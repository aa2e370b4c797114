package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the recorded state of every instance in a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := cmd.Flags().GetString("workdir")
			if err != nil {
				return err
			}

			statuses, err := c.app.Status(workDir, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "INSTANCE\tSTATE\tDETAIL")
			for _, s := range statuses {
				detail := s.Message
				if s.Error != "" {
					detail = s.Error
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.State, detail)
			}
			return w.Flush()
		},
	}
}
