package frame

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainAnnotation = "rja/annotation/v1"
	DomainFramebook  = "rja/framebook/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// AnnotationID computes the content-addressed ID of an annotation within a
// document. Identical matches produce identical IDs across runs, which makes
// store writes idempotent and replays comparable.
//
// The ID covers what was matched and by which rule, not which run produced
// it. Run attribution lives on the stored record, not in the identity.
func AnnotationID(documentID string, a Annotation) string {
	obj := map[string]any{
		"document_id":  documentID,
		"segment_id":   a.SegmentID,
		"module":       string(a.Module),
		"frame_id":     a.FrameID,
		"rule_id":      a.RuleID,
		"span_start":   a.SpanStart,
		"span_end":     a.SpanEnd,
		"matched_text": a.MatchedText,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		// All fields are strings and ints; marshal cannot fail.
		panic(fmt.Sprintf("AnnotationID: %v", err))
	}
	return hashWithDomain(DomainAnnotation, canonical)
}

// FramebookHash computes a stable content hash over a compiled frame
// definition set. Stored with each analysis run so results can be traced
// back to the exact rule set that produced them.
func FramebookHash(defs []Def) (string, error) {
	sorted := make([]Def, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	frames := make([]any, len(sorted))
	for i, def := range sorted {
		langs := make([]string, 0, len(def.Patterns))
		for lang := range def.Patterns {
			langs = append(langs, lang)
		}
		sort.Strings(langs)

		patterns := make(map[string]any, len(def.Patterns))
		for _, lang := range langs {
			entries := make([]any, len(def.Patterns[lang]))
			for j, p := range def.Patterns[lang] {
				entries[j] = map[string]any{
					"pattern":  p.Pattern,
					"priority": p.Priority,
					"tag":      p.Tag,
				}
			}
			patterns[lang] = entries
		}

		frames[i] = map[string]any{
			"id":       def.ID,
			"type":     string(def.Type),
			"module":   string(def.Module),
			"tag":      def.Tag,
			"patterns": patterns,
		}
	}

	canonical, err := MarshalCanonical(map[string]any{"frames": frames})
	if err != nil {
		return "", fmt.Errorf("FramebookHash: %w", err)
	}
	return hashWithDomain(DomainFramebook, canonical), nil
}
