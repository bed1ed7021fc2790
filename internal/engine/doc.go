// Package engine implements the annotation and scoring pipeline.
//
// The engine takes a compiled registry and a segmented document, runs the
// four analytical modules over every segment, consolidates their annotations
// into segment profiles, and folds the profiles into a document tension
// profile.
//
// ARCHITECTURE:
//
// Per-document single pass:
// One document is processed by one goroutine, start to finish. Modules run
// in their canonical order (narrative, positioning, framing, affect) over
// each segment; they never read each other's output. Only the integrator
// combines module results, which keeps the module graph acyclic.
//
// Processing flow:
//  1. Gate resolves the pattern set per (frame, document language)
//  2. Each module annotates its frames' matches per segment
//  3. Integrator consolidates annotations into a SegmentProfile
//  4. Document fold aggregates profiles into a DocumentProfile
//
// Batch runs parallelize ACROSS documents only; within a document the
// pipeline stays sequential.
//
// DETERMINISM:
//
// Identical input plus identical registry yields byte-identical output.
// Annotations are ordered by span start, then frame id, then rule id.
// Within a frame, overlapping matches are suppressed in pattern priority
// order; matches of different frames never suppress each other. No map
// iteration order leaks into results, no wall-clock values enter scoring.
package engine
