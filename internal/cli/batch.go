package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/engine"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Framebook   string
	Overlays    []string
	Database    string
	RunID       string
	Concurrency int
}

// BatchSummary is the batch command's success payload.
type BatchSummary struct {
	RunID     string              `json:"run_id,omitempty"`
	Analyzed  int                 `json:"analyzed"`
	Documents []BatchDocumentLine `json:"documents"`
	Skipped   []BatchSkipLine     `json:"skipped,omitempty"`
}

// BatchDocumentLine summarizes one analyzed document.
type BatchDocumentLine struct {
	DocumentID string                `json:"document_id"`
	Score      float64               `json:"score"`
	Density    float64               `json:"density"`
	Shape      frame.TrajectoryShape `json:"shape"`
}

// BatchSkipLine records one skipped document.
type BatchSkipLine struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <documents-dir>",
		Short: "Analyze a directory of segmented documents",
		Long: `Analyze every document YAML file in a directory as one corpus run.
Documents that fail on their own terms (unsupported language, malformed
input) are reported as skipped; the rest of the corpus still runs. With
--db the whole run is persisted under a single run token.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Framebook, "framebook", "", "framebook CUE file (required)")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "overlay YAML file (repeatable, applied in order)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "audit store database path (optional)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "fixed run token (default: generated UUIDv7)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", engine.DefaultBatchConcurrency, "parallel document analyses")
	cmd.MarkFlagRequired("framebook")

	return cmd
}

func runBatch(opts *BatchOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, fb, overlays, err := loadRegistry(opts.Framebook, opts.Overlays)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "batch failed", err)
	}

	docs, err := LoadDocumentDir(dir)
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "batch failed", err)
	}
	formatter.VerboseLog("Loaded %d document(s) from %s", len(docs), dir)

	report, err := engine.New(reg).AnalyzeBatch(cmd.Context(), docs, engine.BatchOptions{
		Concurrency: opts.Concurrency,
		Logger:      commandLogger(cmd.ErrOrStderr(), opts.Verbose),
	})
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "batch failed", err)
	}

	summary := BatchSummary{Analyzed: len(report.Results)}
	for _, res := range report.Results {
		summary.Documents = append(summary.Documents, BatchDocumentLine{
			DocumentID: res.Profile.DocumentID,
			Score:      res.Profile.Score,
			Density:    res.Profile.Density,
			Shape:      res.Profile.Shape,
		})
	}
	for _, skip := range report.Skipped {
		summary.Skipped = append(summary.Skipped, BatchSkipLine{
			DocumentID: skip.DocumentID,
			Reason:     skip.Err.Error(),
		})
	}

	if opts.Database != "" && len(report.Results) > 0 {
		runID, err := persistResults(cmd, opts.Database, opts.RunID, opts.Tokens, fb, overlayNames(overlays), report.Results...)
		if err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return WrapExitError(ExitCommandError, "persist failed", err)
		}
		summary.RunID = runID
		formatter.VerboseLog("Persisted run %s to %s", runID, opts.Database)
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(summary)
	}

	out := cmd.OutOrStdout()
	if summary.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", summary.RunID)
	}
	for _, line := range summary.Documents {
		fmt.Fprintf(out, "%-20s score=%.4f density=%.4f shape=%s\n",
			line.DocumentID, line.Score, line.Density, line.Shape)
	}
	for _, skip := range summary.Skipped {
		fmt.Fprintf(out, "%-20s SKIPPED: %s\n", skip.DocumentID, skip.Reason)
	}
	fmt.Fprintf(out, "%d analyzed, %d skipped\n", summary.Analyzed, len(summary.Skipped))
	return nil
}
