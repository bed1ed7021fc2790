package store

import (
	"context"
	"fmt"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/engine"
)

// Run records which rule set produced an analysis run.
type Run struct {
	ID              string
	FramebookHash   string
	Overlays        []string
	DefaultLanguage string
	CreatedAt       string // RFC 3339; informational only
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency; writing the same run
// token twice is silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	overlaysJSON, err := marshalStrings(run.Overlays)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, framebook_hash, overlays, default_language, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.FramebookHash,
		overlaysJSON,
		run.DefaultLanguage,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteResult persists one document's analysis under a run: the document
// profile, every segment profile, and the full annotation trail, in a single
// transaction. All inserts use ON CONFLICT DO NOTHING, so persisting the
// same result twice is a no-op.
//
// The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteResult(ctx context.Context, runID string, res *engine.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write result: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	peaksJSON, err := marshalStrings(res.Profile.PeakSegments)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents
		(run_id, document_id, language, score, density, shape,
		 dominant_aspiration, dominant_structural, peak_segments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, document_id) DO NOTHING
	`,
		runID,
		res.Profile.DocumentID,
		res.Document.Language,
		res.Profile.Score,
		res.Profile.Density,
		string(res.Profile.Shape),
		res.Profile.DominantAxis.Aspiration,
		res.Profile.DominantAxis.Structural,
		peaksJSON,
	)
	if err != nil {
		return fmt.Errorf("write result: document: %w", err)
	}

	for position, sp := range res.Segments {
		flagsJSON, err := marshalStrings(sp.Flags)
		if err != nil {
			return fmt.Errorf("write result: segment %s: %w", sp.SegmentID, err)
		}
		pairsJSON, err := marshalAxisPairs(sp.AxisPairs)
		if err != nil {
			return fmt.Errorf("write result: segment %s: %w", sp.SegmentID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO segment_profiles
			(run_id, document_id, segment_id, position, a_count, s_count,
			 affect_mult, agency_mult, context_mult, agency_class, flags,
			 intensity, normalized_intensity, dominant_aspiration, dominant_structural,
			 axis_pairs)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, document_id, segment_id) DO NOTHING
		`,
			runID,
			res.Profile.DocumentID,
			sp.SegmentID,
			position,
			sp.ACount,
			sp.SCount,
			sp.AffectMult,
			sp.AgencyMult,
			sp.ContextMult,
			string(sp.AgencyClass),
			flagsJSON,
			sp.Intensity,
			sp.NormalizedIntensity,
			sp.DominantAxis.Aspiration,
			sp.DominantAxis.Structural,
			pairsJSON,
		)
		if err != nil {
			return fmt.Errorf("write result: segment %s: %w", sp.SegmentID, err)
		}
	}

	for _, a := range res.Annotations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO annotations
			(id, run_id, document_id, segment_id, rule_id, frame_id, frame_type,
			 module, matched_text, span_start, span_end, origin, tag)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, id) DO NOTHING
		`,
			a.ID,
			runID,
			res.Profile.DocumentID,
			a.SegmentID,
			a.RuleID,
			a.FrameID,
			string(a.FrameType),
			string(a.Module),
			a.MatchedText,
			a.SpanStart,
			a.SpanEnd,
			a.Origin,
			a.Tag,
		)
		if err != nil {
			return fmt.Errorf("write result: annotation %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write result: commit: %w", err)
	}
	return nil
}
