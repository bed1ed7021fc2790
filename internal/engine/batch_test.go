package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func batchDoc(id, language, text string) frame.Document {
	return frame.Document{
		ID:       id,
		Language: language,
		Segments: []frame.Segment{frame.NewSegment(id+"-seg-1", "P1", text)},
	}
}

func TestAnalyzeBatchKeepsInputOrder(t *testing.T) {
	p := testPipeline(t)

	docs := []frame.Document{
		batchDoc("doc-1", "de", "gerecht kosten"),
		batchDoc("doc-2", "de", "anerkennung kostendruck"),
		batchDoc("doc-3", "de", "gerechtigkeit kostenfalle"),
	}

	report, err := p.AnalyzeBatch(context.Background(), docs, BatchOptions{
		Concurrency: 2,
		Logger:      quietLogger(),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Empty(t, report.Skipped)

	for i, res := range report.Results {
		assert.Equal(t, docs[i].ID, res.Document.ID)
	}
}

func TestAnalyzeBatchSkipsUnsupportedLanguage(t *testing.T) {
	reg, err := registry.Build(testDefs(), nil) // no default language
	require.NoError(t, err)
	p := New(reg)

	docs := []frame.Document{
		batchDoc("doc-1", "de", "gerecht kosten"),
		batchDoc("doc-2", "en", "justice and cost"),
		batchDoc("doc-3", "de", "anerkennung kostendruck"),
	}

	report, err := p.AnalyzeBatch(context.Background(), docs, BatchOptions{Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "doc-1", report.Results[0].Document.ID)
	assert.Equal(t, "doc-3", report.Results[1].Document.ID)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "doc-2", report.Skipped[0].DocumentID)
	assert.True(t, registry.IsUnsupportedLanguage(report.Skipped[0].Err))
}

func TestAnalyzeBatchMatchesSequentialResults(t *testing.T) {
	p := testPipeline(t)

	docs := []frame.Document{
		batchDoc("doc-1", "de", "gerecht kosten kostenlos"),
		batchDoc("doc-2", "de", "anerkennung kostendruck hilflos"),
	}

	report, err := p.AnalyzeBatch(context.Background(), docs, BatchOptions{
		Concurrency: 2,
		Logger:      quietLogger(),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	for i, doc := range docs {
		sequential, err := p.AnalyzeDocument(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, sequential, report.Results[i])
	}
}

func TestAnalyzeBatchCancellation(t *testing.T) {
	p := testPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.AnalyzeBatch(ctx, []frame.Document{
		batchDoc("doc-1", "de", "gerecht kosten"),
	}, BatchOptions{Logger: quietLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
