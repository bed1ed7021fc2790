// Package frame provides the canonical record types for the analysis pipeline.
//
// This package contains type definitions, canonical serialization, and
// content-addressed identity only. All other internal packages import frame;
// frame imports nothing internal. This ensures the record layer remains the
// foundation with no circular dependencies.
//
// Key design constraints:
//   - Annotations are immutable once produced; every downstream count must be
//     re-derivable by filtering the annotation set (audit-trail invariant)
//   - Canonical JSON (NFC-normalized, sorted keys, no floats) is the ONLY
//     serialization used for content-addressed identity
//   - Span offsets are byte offsets into Segment.Text; CharLength counts runes
package frame
