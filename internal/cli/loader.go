package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/compiler"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/registry"
)

// documentFile is the on-disk YAML shape of a segmented document. Segment
// texts come pre-split from the transcription step; char lengths are derived
// here, never trusted from the file.
type documentFile struct {
	DocumentID string        `yaml:"document_id"`
	Language   string        `yaml:"language"`
	Segments   []segmentFile `yaml:"segments"`
}

type segmentFile struct {
	SegmentID string `yaml:"segment_id"`
	Speaker   string `yaml:"speaker,omitempty"`
	Text      string `yaml:"text"`
}

// LoadDocument reads and parses a segmented document YAML file.
func LoadDocument(path string) (frame.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return frame.Document{}, fmt.Errorf("failed to read document file: %w", err)
	}

	// Strict field validation catches typos like "segment:" vs "segments:".
	var file documentFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return frame.Document{}, fmt.Errorf("failed to parse document YAML: %w", err)
	}

	if file.DocumentID == "" {
		return frame.Document{}, fmt.Errorf("invalid document %s: document_id is required", path)
	}
	if file.Language == "" {
		return frame.Document{}, fmt.Errorf("invalid document %s: language is required", path)
	}

	doc := frame.Document{ID: file.DocumentID, Language: file.Language}
	seen := make(map[string]bool, len(file.Segments))
	for i, seg := range file.Segments {
		if seg.SegmentID == "" {
			return frame.Document{}, fmt.Errorf("invalid document %s: segment %d has no segment_id", path, i)
		}
		if seen[seg.SegmentID] {
			return frame.Document{}, fmt.Errorf("invalid document %s: duplicate segment_id %q", path, seg.SegmentID)
		}
		seen[seg.SegmentID] = true
		doc.Segments = append(doc.Segments, frame.NewSegment(seg.SegmentID, seg.Speaker, seg.Text))
	}
	return doc, nil
}

// LoadDocumentDir loads every *.yaml / *.yml document in a directory, in
// filename order so batch output is stable.
func LoadDocumentDir(dir string) ([]frame.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no document files (*.yaml) in %s", dir)
	}

	docs := make([]frame.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := LoadDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// loadRegistry compiles a framebook and its overlays into a registry.
// Shared by the validate, analyze, and batch commands.
func loadRegistry(framebookPath string, overlayPaths []string) (*registry.Registry, *compiler.Framebook, []frame.OverlayDef, error) {
	fb, err := compiler.LoadFramebook(framebookPath)
	if err != nil {
		return nil, nil, nil, err
	}

	overlays, err := compiler.LoadOverlays(overlayPaths)
	if err != nil {
		return nil, nil, nil, err
	}

	var opts []registry.Option
	if fb.DefaultLanguage != "" {
		opts = append(opts, registry.WithDefaultLanguage(fb.DefaultLanguage))
	}
	reg, err := registry.Build(fb.Frames, overlays, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return reg, fb, overlays, nil
}

func overlayNames(overlays []frame.OverlayDef) []string {
	names := make([]string, len(overlays))
	for i, o := range overlays {
		names[i] = o.Name
	}
	return names
}
