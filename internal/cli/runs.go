package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List persisted analysis runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "audit store database path (required)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs failed", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs failed", err)
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(runs)
	}

	out := cmd.OutOrStdout()
	for _, run := range runs {
		overlays := "-"
		if len(run.Overlays) > 0 {
			overlays = strings.Join(run.Overlays, ",")
		}
		fmt.Fprintf(out, "%s  %s  framebook=%.12s  overlays=%s\n",
			run.ID, run.CreatedAt, run.FramebookHash, overlays)
	}
	fmt.Fprintf(out, "%d run(s)\n", len(runs))
	return nil
}
