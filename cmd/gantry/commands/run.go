package commands

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	progrocktracer "github.com/gantryproject/gantry/internal/adapters/telemetry/progrock"
	"github.com/gantryproject/gantry/internal/app"
	"github.com/gantryproject/gantry/internal/tui"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [tests...]",
		Short: "Expand, build and run the selected tests",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd, args)
			if err != nil {
				return err
			}
			return c.executeRun(cmd, opts)
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("build-only", false, "Stop every instance after its build phase")
	return cmd
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [tests...]",
		Short: "Build the selected tests without scheduling them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd, args)
			if err != nil {
				return err
			}
			opts.BuildOnly = true
			return c.executeRun(cmd, opts)
		},
	}
	addRunFlags(cmd)
	return cmd
}

// addRunFlags registers the flags the run and build commands share; forced
// rebuild in particular behaves identically in both.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("rebuild", false, "Invalidate matching build artifacts and build fresh")
	cmd.Flags().IntP("limit", "l", 0, "Maximum concurrently running instances (0 = number of CPUs)")
	cmd.Flags().String("run-id", "", "Resume an existing run instead of starting a new one")
	cmd.Flags().BoolP("progress", "p", false, "Render live progress while the run executes")
}

func runOptions(cmd *cobra.Command, tests []string) (app.RunOptions, error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return app.RunOptions{}, err
	}
	workDir, err := cmd.Flags().GetString("workdir")
	if err != nil {
		return app.RunOptions{}, err
	}

	rebuild, _ := cmd.Flags().GetBool("rebuild")
	buildOnly, _ := cmd.Flags().GetBool("build-only")
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run-id")

	return app.RunOptions{
		File:      file,
		Tests:     tests,
		WorkDir:   workDir,
		RunID:     runID,
		Rebuild:   rebuild,
		BuildOnly: buildOnly,
		Limit:     limit,
	}, nil
}

// executeRun drives one run invocation, optionally behind the progress UI,
// and prints the terminal state of every instance.
func (c *CLI) executeRun(cmd *cobra.Command, opts app.RunOptions) error {
	progress, _ := cmd.Flags().GetBool("progress")

	var finishUI func()
	if progress {
		feed := tui.NewFeed()
		tracer := progrocktracer.NewTracer(feed)
		opts.Tracer = tracer

		program := tea.NewProgram(
			tui.NewModel(feed),
			tea.WithOutput(cmd.OutOrStdout()),
			tea.WithInput(cmd.InOrStdin()),
		)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = program.Run()
		}()
		finishUI = func() {
			_ = tracer.Close()
			<-done
		}
	}

	result, err := c.app.Run(cmd.Context(), opts)
	if finishUI != nil {
		finishUI()
	}
	if result != nil {
		printResult(cmd, result)
	}
	return err
}

func printResult(cmd *cobra.Command, result *app.RunResult) {
	out := cmd.OutOrStdout()

	ids := make([]string, 0, len(result.States))
	for id := range result.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		_, _ = fmt.Fprintf(out, "%-12s %s\n", result.States[id], id)
	}
	_, _ = fmt.Fprintln(out, "run", result.RunID)
}
