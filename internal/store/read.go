package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// ReadRun returns one run record, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	var (
		run          Run
		overlaysJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, framebook_hash, overlays, default_language, created_at
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.FramebookHash, &overlaysJSON, &run.DefaultLanguage, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}

	run.Overlays, err = unmarshalStrings(overlaysJSON)
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns all run records ordered by id. Run tokens are UUIDv7, so
// id order is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, framebook_hash, overlays, default_language, created_at
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run          Run
			overlaysJSON string
		)
		if err := rows.Scan(&run.ID, &run.FramebookHash, &overlaysJSON, &run.DefaultLanguage, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.Overlays, err = unmarshalStrings(overlaysJSON)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadDocumentProfile reconstructs the stored document profile, including
// the trajectory from the segment rows in document order.
func (s *Store) ReadDocumentProfile(ctx context.Context, runID, documentID string) (frame.DocumentProfile, error) {
	var (
		profile   frame.DocumentProfile
		language  string
		shape     string
		peaksJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, language, score, density, shape,
		       dominant_aspiration, dominant_structural, peak_segments
		FROM documents
		WHERE run_id = ? AND document_id = ?
	`, runID, documentID).Scan(
		&profile.DocumentID,
		&language,
		&profile.Score,
		&profile.Density,
		&shape,
		&profile.DominantAxis.Aspiration,
		&profile.DominantAxis.Structural,
		&peaksJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return frame.DocumentProfile{}, fmt.Errorf("document %s in run %s: %w", documentID, runID, ErrNotFound)
	}
	if err != nil {
		return frame.DocumentProfile{}, fmt.Errorf("read document profile: %w", err)
	}
	profile.Shape = frame.TrajectoryShape(shape)

	profile.PeakSegments, err = unmarshalStrings(peaksJSON)
	if err != nil {
		return frame.DocumentProfile{}, fmt.Errorf("read document profile: %w", err)
	}

	segments, err := s.ReadSegmentProfiles(ctx, runID, documentID)
	if err != nil {
		return frame.DocumentProfile{}, err
	}
	for _, sp := range segments {
		profile.Trajectory = append(profile.Trajectory, frame.TrajectoryPoint{
			SegmentID: sp.SegmentID,
			Intensity: sp.NormalizedIntensity,
		})
	}
	return profile, nil
}

// ReadSegmentProfiles returns the stored segment profiles of one document in
// document order.
func (s *Store) ReadSegmentProfiles(ctx context.Context, runID, documentID string) ([]frame.SegmentProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_id, a_count, s_count, affect_mult, agency_mult,
		       context_mult, agency_class, flags, intensity,
		       normalized_intensity, dominant_aspiration, dominant_structural,
		       axis_pairs
		FROM segment_profiles
		WHERE run_id = ? AND document_id = ?
		ORDER BY position ASC
	`, runID, documentID)
	if err != nil {
		return nil, fmt.Errorf("read segment profiles: %w", err)
	}
	defer rows.Close()

	var profiles []frame.SegmentProfile
	for rows.Next() {
		var (
			sp          frame.SegmentProfile
			agencyClass string
			flagsJSON   string
			pairsJSON   string
		)
		err := rows.Scan(
			&sp.SegmentID,
			&sp.ACount,
			&sp.SCount,
			&sp.AffectMult,
			&sp.AgencyMult,
			&sp.ContextMult,
			&agencyClass,
			&flagsJSON,
			&sp.Intensity,
			&sp.NormalizedIntensity,
			&sp.DominantAxis.Aspiration,
			&sp.DominantAxis.Structural,
			&pairsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("read segment profiles: %w", err)
		}
		sp.AgencyClass = frame.AgencyClass(agencyClass)
		sp.Flags, err = unmarshalStrings(flagsJSON)
		if err != nil {
			return nil, fmt.Errorf("read segment profiles: %w", err)
		}
		sp.AxisPairs, err = unmarshalAxisPairs(pairsJSON)
		if err != nil {
			return nil, fmt.Errorf("read segment profiles: %w", err)
		}
		profiles = append(profiles, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read segment profiles: %w", err)
	}
	return profiles, nil
}

// ReadAnnotations returns the stored annotation trail of one document,
// ordered deterministically: segment position, span start, frame id, rule id.
func (s *Store) ReadAnnotations(ctx context.Context, runID, documentID string) ([]frame.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.rule_id, a.frame_id, a.frame_type, a.module,
		       a.segment_id, a.matched_text, a.span_start, a.span_end,
		       a.origin, a.tag
		FROM annotations a
		JOIN segment_profiles sp
		  ON sp.run_id = a.run_id
		 AND sp.document_id = a.document_id
		 AND sp.segment_id = a.segment_id
		WHERE a.run_id = ? AND a.document_id = ?
		ORDER BY sp.position ASC, a.span_start ASC,
		         a.frame_id COLLATE BINARY ASC, a.rule_id COLLATE BINARY ASC
	`, runID, documentID)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	defer rows.Close()

	return scanAnnotations(rows)
}

// TraceSegment returns one segment's stored profile and annotation trail.
// This is the audit view: every count in the profile can be recomputed from
// the returned annotations.
func (s *Store) TraceSegment(ctx context.Context, runID, documentID, segmentID string) (frame.SegmentProfile, []frame.Annotation, error) {
	profiles, err := s.ReadSegmentProfiles(ctx, runID, documentID)
	if err != nil {
		return frame.SegmentProfile{}, nil, err
	}

	var profile *frame.SegmentProfile
	for i := range profiles {
		if profiles[i].SegmentID == segmentID {
			profile = &profiles[i]
			break
		}
	}
	if profile == nil {
		return frame.SegmentProfile{}, nil, fmt.Errorf("segment %s of document %s in run %s: %w",
			segmentID, documentID, runID, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rule_id, frame_id, frame_type, module, segment_id,
		       matched_text, span_start, span_end, origin, tag
		FROM annotations
		WHERE run_id = ? AND document_id = ? AND segment_id = ?
		ORDER BY span_start ASC, frame_id COLLATE BINARY ASC, rule_id COLLATE BINARY ASC
	`, runID, documentID, segmentID)
	if err != nil {
		return frame.SegmentProfile{}, nil, fmt.Errorf("trace segment: %w", err)
	}
	defer rows.Close()

	anns, err := scanAnnotations(rows)
	if err != nil {
		return frame.SegmentProfile{}, nil, err
	}
	return *profile, anns, nil
}

func scanAnnotations(rows *sql.Rows) ([]frame.Annotation, error) {
	anns := []frame.Annotation{}
	for rows.Next() {
		var (
			a         frame.Annotation
			frameType string
			module    string
		)
		err := rows.Scan(
			&a.ID,
			&a.RuleID,
			&a.FrameID,
			&frameType,
			&module,
			&a.SegmentID,
			&a.MatchedText,
			&a.SpanStart,
			&a.SpanEnd,
			&a.Origin,
			&a.Tag,
		)
		if err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.FrameType = frame.Type(frameType)
		a.Module = frame.Module(module)
		anns = append(anns, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return anns, nil
}
