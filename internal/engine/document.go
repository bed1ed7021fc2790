package engine

import (
	"context"
	"fmt"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// Result is the full outcome of analyzing one document: the raw annotation
// audit trail plus the derived segment and document profiles. Every number
// in the profiles is re-derivable from Annotations alone.
type Result struct {
	Document    frame.Document
	Annotations []frame.Annotation
	Segments    []frame.SegmentProfile
	Profile     frame.DocumentProfile
}

// AnalyzeDocument runs the complete pipeline over one document.
//
// Errors surface immediately: an unsupported document language aborts the
// document on its first gated lookup, nothing is partially scored. The
// context is checked between segments, so cancellation of a long document
// is prompt without tearing a segment in half.
func (p *Pipeline) AnalyzeDocument(ctx context.Context, doc frame.Document) (*Result, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if doc.Language == "" {
		return nil, fmt.Errorf("document %s: language is required", doc.ID)
	}

	res := &Result{Document: doc}
	profiles := make([]frame.SegmentProfile, 0, len(doc.Segments))

	for _, seg := range doc.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		anns, err := p.AnnotateAll(doc.ID, doc.Language, seg)
		if err != nil {
			return nil, fmt.Errorf("document %s, segment %s: %w", doc.ID, seg.ID, err)
		}

		res.Annotations = append(res.Annotations, anns...)
		profiles = append(profiles, Consolidate(seg, anns))
	}

	res.Segments = profiles
	res.Profile = FoldWithPeakSigmas(doc.ID, profiles, p.peakSigmas)
	return res, nil
}
