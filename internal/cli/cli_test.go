package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/engine"
)

var (
	framebookPath = filepath.Join("..", "..", "testdata", "framebook.cue")
	overlayPath   = filepath.Join("..", "..", "testdata", "overlays", "pflege.yaml")
	documentsDir  = filepath.Join("..", "..", "testdata", "documents")
	documentPath  = filepath.Join(documentsDir, "interview_01.yaml")
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateFramebook(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), framebookPath, "--overlay", overlayPath)
	require.NoError(t, err)

	assert.Contains(t, out, "OK: 11 frame(s)")
	assert.Contains(t, out, "Default language: de")
	assert.Contains(t, out, "Overlay: pflege")
}

func TestValidateFramebookJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewValidateCommand(rootOpts), framebookPath, "--overlay", overlayPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summary ValidationSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 11, summary.Frames)
	assert.Equal(t, 2, summary.Aspiration)
	assert.Equal(t, 2, summary.Structural)
	assert.Equal(t, 6, summary.Context)
	assert.Equal(t, 1, summary.Extensions)
	assert.Equal(t, []string{"pflege"}, summary.Overlays)
	assert.Len(t, summary.FramebookHash, 64)
}

func TestValidateBrokenPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
framebook: frame: KAPUTT: {
	type:   "ASPIRATION"
	module: "framing"
	patterns: de: [{pattern: "unclosed("}]
}
`), 0o644))

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "invalid pattern")
}

func TestCompileFramebook(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewCompileCommand(rootOpts), framebookPath)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "de", result.DefaultLanguage)
	assert.Len(t, result.FramebookHash, 64)
	assert.Len(t, result.Frames, 10)
}

func TestCompileToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "framebook.json")
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewCompileCommand(rootOpts), framebookPath, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled 10 frame(s)")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Frames, 10)
}

func TestAnalyzeDocument(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewAnalyzeCommand(rootOpts), documentPath,
		"--framebook", framebookPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Document:     interview-01")
	assert.Contains(t, out, "Score:")
	assert.Contains(t, out, "seg-1")
	assert.Contains(t, out, "seg-3")
	// Dominant axis renders frame labels, not ids.
	assert.Contains(t, out, "Ökonomisierung")
}

func TestAnalyzeDocumentJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewAnalyzeCommand(rootOpts), documentPath,
		"--framebook", framebookPath, "--overlay", overlayPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var report AnalyzeReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "interview-01", report.Document.DocumentID)
	assert.Len(t, report.Segments, 3)
	assert.Positive(t, report.Annotations)
	assert.Positive(t, report.Document.Score)
	assert.Empty(t, report.RunID)
}

func TestAnalyzePersistAndTrace(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	runID := "0191a0aa-0000-7000-8000-00000000cafe"

	rootOpts := &RootOptions{Format: "text", Tokens: engine.NewFixedGenerator(runID)}
	out, err := execute(t, NewAnalyzeCommand(rootOpts), documentPath,
		"--framebook", framebookPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"interview-01", "seg-1", "--db", dbPath, "--run", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "Segment:  seg-1")
	assert.Contains(t, out, "LEGITIMITAET_GERECHTIGKEIT")
	assert.Contains(t, out, "OEKONOMISIERUNG")

	// Without --run the latest run is used.
	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"interview-01", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Score:")

	out, err = execute(t, NewRunsCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "1 run(s)")
}

func TestTraceUnknownDocument(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	runID := "0191a0aa-0000-7000-8000-00000000beef"

	_, err := execute(t, NewAnalyzeCommand(&RootOptions{Format: "text"}), documentPath,
		"--framebook", framebookPath, "--db", dbPath, "--run-id", runID)
	require.NoError(t, err)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"no-such-doc", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")
}

func TestBatchDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	runID := "0191a0aa-0000-7000-8000-00000000f00d"

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewBatchCommand(rootOpts), documentsDir,
		"--framebook", framebookPath, "--overlay", overlayPath,
		"--db", dbPath, "--run-id", runID)
	require.NoError(t, err)

	assert.Contains(t, out, "interview-01")
	assert.Contains(t, out, "interview-02")
	assert.Contains(t, out, "2 analyzed, 0 skipped")
}

func TestBatchEmptyDirectory(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewBatchCommand(rootOpts), t.TempDir(),
		"--framebook", framebookPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument(documentPath)
	require.NoError(t, err)
	assert.Equal(t, "interview-01", doc.ID)
	assert.Equal(t, "de", doc.Language)
	require.Len(t, doc.Segments, 3)
	assert.Equal(t, "B1", doc.Segments[0].Speaker)
	assert.Positive(t, doc.Segments[0].CharLength)
}

func TestLoadDocumentRejectsDuplicateSegmentIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
document_id: d
language: de
segments:
  - segment_id: s1
    text: a
  - segment_id: s1
    text: b
`), 0o644))

	_, err := LoadDocument(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate segment_id")
}

func TestLoadDocumentRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
document_id: d
language: de
segment:
  - segment_id: s1
`), 0o644))

	_, err := LoadDocument(path)
	require.Error(t, err)
}

func TestLoadDocumentDirOrdersByFilename(t *testing.T) {
	docs, err := LoadDocumentDir(documentsDir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "interview-01", docs[0].ID)
	assert.Equal(t, "interview-02", docs[1].ID)
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, NewRootCommand(), "--format", "xml", "runs", "--db", "unused.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
