// Package cli implements the rja command line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Tokens generates run ids when --run-id is not given. Nil means
	// UUIDv7; tests inject engine.FixedGenerator for determinism.
	Tokens engine.TokenGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rja CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rja",
		Short: "Relational justice analysis of segmented interview text",
		Long: `rja annotates segmented interview documents with justice frames and
scores each document's tension between aspiration and structural frames.
Every score is backed by a traceable annotation audit trail.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// commandLogger builds the slog logger commands hand to the engine.
// Diagnostic output always goes to stderr so JSON on stdout stays parseable.
func commandLogger(errWriter io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errWriter, &slog.HandlerOptions{Level: level}))
}
