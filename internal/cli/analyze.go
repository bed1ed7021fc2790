package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/compiler"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/engine"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/registry"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Framebook string
	Overlays  []string
	Database  string
	RunID     string
}

// AnalyzeReport is the analyze command's success payload.
type AnalyzeReport struct {
	RunID       string                 `json:"run_id,omitempty"`
	Document    frame.DocumentProfile  `json:"document"`
	Segments    []frame.SegmentProfile `json:"segments"`
	Annotations int                    `json:"annotations"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <document.yaml>",
		Short: "Annotate and score one segmented document",
		Long: `Run the full pipeline over one document: annotate every segment with the
framebook's rules, consolidate the module results, and score the document's
justice tension. With --db the run is persisted to the audit store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Framebook, "framebook", "", "framebook CUE file (required)")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "overlay YAML file (repeatable, applied in order)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "audit store database path (optional)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "fixed run token (default: generated UUIDv7)")
	cmd.MarkFlagRequired("framebook")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, docPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, fb, overlays, err := loadRegistry(opts.Framebook, opts.Overlays)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "analysis failed", err)
	}

	doc, err := LoadDocument(docPath)
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "analysis failed", err)
	}

	res, err := engine.New(reg).AnalyzeDocument(cmd.Context(), doc)
	if err != nil {
		code := ErrCodeConfig
		if registry.IsUnsupportedLanguage(err) {
			code = ErrCodeUnsupported
		}
		formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "analysis failed", err)
	}
	formatter.VerboseLog("Analyzed %s: %d segment(s), %d annotation(s)",
		doc.ID, len(res.Segments), len(res.Annotations))

	report := AnalyzeReport{
		Document:    res.Profile,
		Segments:    res.Segments,
		Annotations: len(res.Annotations),
	}

	if opts.Database != "" {
		runID, err := persistResults(cmd, opts.Database, opts.RunID, opts.Tokens, fb, overlayNames(overlays), res)
		if err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return WrapExitError(ExitCommandError, "persist failed", err)
		}
		report.RunID = runID
		formatter.VerboseLog("Persisted run %s to %s", runID, opts.Database)
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(report)
	}
	renderProfile(cmd.OutOrStdout(), report.RunID, reg, res)
	return nil
}

// persistResults writes one or more document results under a single run.
func persistResults(cmd *cobra.Command, dbPath, runID string, gen engine.TokenGenerator, fb *compiler.Framebook, overlays []string, results ...*engine.Result) (string, error) {
	if runID == "" {
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		runID = gen.Generate()
	}

	hash, err := fb.Hash()
	if err != nil {
		return "", err
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()

	ctx := cmd.Context()
	err = s.WriteRun(ctx, store.Run{
		ID:              runID,
		FramebookHash:   hash,
		Overlays:        overlays,
		DefaultLanguage: fb.DefaultLanguage,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}

	for _, res := range results {
		if err := s.WriteResult(ctx, runID, res); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func renderProfile(w io.Writer, runID string, reg *registry.Registry, res *engine.Result) {
	p := res.Profile
	if runID != "" {
		fmt.Fprintf(w, "Run:          %s\n", runID)
	}
	fmt.Fprintf(w, "Document:     %s\n", p.DocumentID)
	fmt.Fprintf(w, "Score:        %.4f\n", p.Score)
	fmt.Fprintf(w, "Density:      %.4f\n", p.Density)
	fmt.Fprintf(w, "Shape:        %s\n", p.Shape)
	if !p.DominantAxis.IsZero() {
		fmt.Fprintf(w, "Dominant axis: %s / %s\n",
			reg.Label(p.DominantAxis.Aspiration), reg.Label(p.DominantAxis.Structural))
	}
	if len(p.PeakSegments) > 0 {
		fmt.Fprintf(w, "Peaks:        %v\n", p.PeakSegments)
	}
	for _, sp := range res.Segments {
		fmt.Fprintf(w, "  %-12s a=%d s=%d intensity=%.4f normalized=%.4f\n",
			sp.SegmentID, sp.ACount, sp.SCount, sp.Intensity, sp.NormalizedIntensity)
	}
}
