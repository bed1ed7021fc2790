package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Overlays []string
}

// ValidationSummary is the validate command's success payload.
type ValidationSummary struct {
	FramebookHash   string   `json:"framebook_hash"`
	DefaultLanguage string   `json:"default_language,omitempty"`
	Frames          int      `json:"frames"`
	Aspiration      int      `json:"aspiration_frames"`
	Structural      int      `json:"structural_frames"`
	Context         int      `json:"context_frames"`
	Extensions      int      `json:"context_extension_frames"`
	Overlays        []string `json:"overlays,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <framebook.cue>",
		Short: "Validate a framebook and its overlays",
		Long: `Compile a framebook, apply project overlays, and build the full frame
registry. Any malformed frame, colliding id, bad pattern, or overlay that
targets an unknown frame fails validation with its source position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "overlay YAML file (repeatable, applied in order)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, fb, overlays, err := loadRegistry(path, opts.Overlays)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	hash, err := fb.Hash()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	summary := ValidationSummary{
		FramebookHash:   hash,
		DefaultLanguage: fb.DefaultLanguage,
		Frames:          reg.Len(),
		Aspiration:      len(reg.FramesOfType(frame.TypeAspiration)),
		Structural:      len(reg.FramesOfType(frame.TypeStructural)),
		Context:         len(reg.FramesOfType(frame.TypeContext)),
		Extensions:      len(reg.FramesOfType(frame.TypeContextExtension)),
		Overlays:        overlayNames(overlays),
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OK: %d frame(s) (%d aspiration, %d structural, %d context, %d extension)\n",
		summary.Frames, summary.Aspiration, summary.Structural, summary.Context, summary.Extensions)
	fmt.Fprintf(out, "Framebook hash: %s\n", summary.FramebookHash)
	if summary.DefaultLanguage != "" {
		fmt.Fprintf(out, "Default language: %s\n", summary.DefaultLanguage)
	}
	for _, name := range summary.Overlays {
		fmt.Fprintf(out, "Overlay: %s\n", name)
	}
	return nil
}
