package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// TraceReport is the trace command's success payload.
type TraceReport struct {
	RunID       string                 `json:"run_id"`
	DocumentID  string                 `json:"document_id"`
	Segment     *frame.SegmentProfile  `json:"segment,omitempty"`
	Document    *frame.DocumentProfile `json:"document,omitempty"`
	Annotations []frame.Annotation     `json:"annotations"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <document-id> [segment-id]",
		Short: "Show the stored annotation trail behind a score",
		Long: `Read a persisted run from the audit store and show which rules matched
where. With a segment id the output is that segment's profile plus every
annotation behind its counts; without one, the whole document's trail.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			segmentID := ""
			if len(args) == 2 {
				segmentID = args[1]
			}
			return runTrace(opts, args[0], segmentID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "audit store database path (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run token (default: latest run)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, documentID, segmentID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "trace failed", err)
	}
	defer s.Close()

	ctx := cmd.Context()

	runID := opts.RunID
	if runID == "" {
		runs, err := s.ListRuns(ctx)
		if err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return WrapExitError(ExitCommandError, "trace failed", err)
		}
		if len(runs) == 0 {
			err := errors.New("audit store has no runs")
			formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "trace failed", err)
		}
		// Run tokens are UUIDv7: the last id is the latest run.
		runID = runs[len(runs)-1].ID
	}

	report := TraceReport{RunID: runID, DocumentID: documentID}

	if segmentID != "" {
		profile, anns, err := s.TraceSegment(ctx, runID, documentID, segmentID)
		if err != nil {
			return traceReadError(formatter, err)
		}
		report.Segment = &profile
		report.Annotations = anns
	} else {
		profile, err := s.ReadDocumentProfile(ctx, runID, documentID)
		if err != nil {
			return traceReadError(formatter, err)
		}
		anns, err := s.ReadAnnotations(ctx, runID, documentID)
		if err != nil {
			return traceReadError(formatter, err)
		}
		report.Document = &profile
		report.Annotations = anns
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(report)
	}
	renderTrace(cmd, report)
	return nil
}

func traceReadError(formatter *OutputFormatter, err error) error {
	code := ErrCodeIO
	if errors.Is(err, store.ErrNotFound) {
		code = ErrCodeNotFound
	}
	formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "trace failed", err)
}

func renderTrace(cmd *cobra.Command, report TraceReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", report.RunID)
	fmt.Fprintf(out, "Document: %s\n", report.DocumentID)

	if report.Segment != nil {
		sp := report.Segment
		fmt.Fprintf(out, "Segment:  %s\n", sp.SegmentID)
		fmt.Fprintf(out, "  a_count=%d s_count=%d affect=%.4f agency=%.2f context=%.2f\n",
			sp.ACount, sp.SCount, sp.AffectMult, sp.AgencyMult, sp.ContextMult)
		fmt.Fprintf(out, "  intensity=%.4f normalized=%.4f class=%s\n",
			sp.Intensity, sp.NormalizedIntensity, sp.AgencyClass)
		if len(sp.Flags) > 0 {
			fmt.Fprintf(out, "  flags=%v\n", sp.Flags)
		}
	}
	if report.Document != nil {
		fmt.Fprintf(out, "Score:    %.4f (density %.4f, shape %s)\n",
			report.Document.Score, report.Document.Density, report.Document.Shape)
	}

	for _, a := range report.Annotations {
		fmt.Fprintf(out, "  [%s] %s %q @%d-%d (%s, %s)\n",
			a.SegmentID, a.RuleID, a.MatchedText, a.SpanStart, a.SpanEnd, a.FrameType, a.Origin)
	}
}
