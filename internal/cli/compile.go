package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/compiler"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled framebook in its exchange form.
type CompilationResult struct {
	DefaultLanguage string      `json:"default_language,omitempty"`
	FramebookHash   string      `json:"framebook_hash"`
	Frames          []frame.Def `json:"frames"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <framebook.cue>",
		Short: "Compile a CUE framebook to frame definitions",
		Long: `Compile a CUE framebook into the JSON frame definition records the
analysis pipeline consumes, together with the content hash that identifies
this exact rule set in the audit trail.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default stdout)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	fb, err := compiler.LoadFramebook(path)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}

	hash, err := fb.Hash()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}
	formatter.VerboseLog("Compiled %d frame(s), hash %s", len(fb.Frames), hash)

	result := CompilationResult{
		DefaultLanguage: fb.DefaultLanguage,
		FramebookHash:   hash,
		Frames:          fb.Frames,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encode result", err)
	}
	data = append(data, '\n')

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write output", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
		if opts.Format != "json" {
			fmt.Fprintf(cmd.OutOrStdout(), "Compiled %d frame(s) to %s (hash %s)\n",
				len(fb.Frames), opts.Output, hash)
		}
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
