package engine

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// DefaultBatchConcurrency bounds the number of documents analyzed at once.
const DefaultBatchConcurrency = 4

// SkippedDocument records a document the batch could not analyze and why.
type SkippedDocument struct {
	DocumentID string
	Err        error
}

// BatchReport is the outcome of a corpus run. Results keeps the input
// document order regardless of which goroutine finished first.
type BatchReport struct {
	Results []*Result
	Skipped []SkippedDocument
}

// BatchOptions configures a corpus run.
type BatchOptions struct {
	// Concurrency bounds parallel document analysis. Zero or negative means
	// DefaultBatchConcurrency.
	Concurrency int

	// Logger receives per-document progress and skip warnings. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// AnalyzeBatch analyzes a corpus of documents with bounded parallelism.
//
// A document that fails on its own terms (unsupported language, malformed
// input) is logged and recorded as skipped; the rest of the corpus still
// runs. Context cancellation aborts the whole batch and is the only error
// AnalyzeBatch itself returns. Parallelism is across documents only, so
// per-document determinism is unaffected by the concurrency setting.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, docs []frame.Document, opts BatchOptions) (*BatchReport, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]*Result, len(docs))
	skipped := make([]*SkippedDocument, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			res, err := p.AnalyzeDocument(gctx, doc)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Warn("skipping document",
					"document_id", doc.ID,
					"error", err)
				skipped[i] = &SkippedDocument{DocumentID: doc.ID, Err: err}
				return nil
			}

			logger.Debug("analyzed document",
				"document_id", doc.ID,
				"segments", len(res.Segments),
				"annotations", len(res.Annotations),
				"score", res.Profile.Score)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &BatchReport{}
	for i := range docs {
		if results[i] != nil {
			report.Results = append(report.Results, results[i])
		}
		if skipped[i] != nil {
			report.Skipped = append(report.Skipped, *skipped[i])
		}
	}
	return report, nil
}
