package frame

import "unicode/utf8"

// Type classifies a frame's role in the tension formula.
type Type string

const (
	// TypeAspiration marks claim/entitlement frames (A-frames).
	TypeAspiration Type = "ASPIRATION"

	// TypeStructural marks constraint frames (S-frames).
	TypeStructural Type = "STRUCTURAL"

	// TypeContext marks moderator frames (K-frames). Context frames never
	// enter a_count/s_count; they adjust the context multiplier via tags.
	TypeContext Type = "CONTEXT"

	// TypeContextExtension marks tracked-only frames introduced by overlays.
	// They appear in the audit trail but never contribute to scoring.
	// This type is assigned by the registry, never declared in definitions.
	TypeContextExtension Type = "CONTEXT_EXTENSION"
)

// DeclarableTypes are the frame types a definition may declare.
var DeclarableTypes = map[Type]bool{
	TypeAspiration: true,
	TypeStructural: true,
	TypeContext:    true,
}

// Module identifies one of the four analytical modules.
type Module string

const (
	ModuleNarrative   Module = "narrative"   // A: process / turning-point markers
	ModulePositioning Module = "positioning" // B: agency classification
	ModuleFraming     Module = "framing"     // C: aspiration / structural frames
	ModuleAffect      Module = "affect"      // D: affect markers
)

// Modules lists all modules in their canonical order.
var Modules = []Module{ModuleNarrative, ModulePositioning, ModuleFraming, ModuleAffect}

// Tags with scoring semantics. Any other tag is carried through the audit
// trail untouched.
const (
	// Context moderator tags, read by the context multiplier.
	TagAmplifying = "vulnerability-amplifying"
	TagDampening  = "normalization-dampening"

	// Positioning agency class tags. Untagged positioning matches are neutral.
	TagSuffering  = "suffering"
	TagReflective = "reflective"

	// Narrative signal tags, surfaced as segment flags.
	TagTurningPoint = "turning-point"
	TagTrajectory   = "trajectory"
)

// OriginMeta is the Origin value of annotations produced by meta-level
// (non-overlay) patterns. Overlay-origin annotations carry the overlay name.
const OriginMeta = "meta"

// PatternDef is a single pattern entry in a frame definition.
// Higher priority patterns are applied first; overlay-appended patterns
// always rank below meta-level patterns regardless of declared priority.
type PatternDef struct {
	Pattern  string `json:"pattern"`
	Priority int    `json:"priority"`
	Tag      string `json:"tag,omitempty"`
}

// Def is the external rule-definition record for one frame, the shape the
// compiler produces and the registry consumes.
type Def struct {
	ID       string                  `json:"id"`
	Type     Type                    `json:"type"`
	Module   Module                  `json:"module"`
	Tag      string                  `json:"tag,omitempty"`
	Label    string                  `json:"label,omitempty"` // display label, never read by scoring
	Patterns map[string][]PatternDef `json:"patterns"`        // language → ordered patterns
}

// OverlayFrame is one entry of a project overlay. Exactly one of
// TargetFrameID (append patterns to an existing meta frame) or ID (register
// a new tracked-only frame) must be set.
type OverlayFrame struct {
	TargetFrameID string                  `json:"target_frame_id,omitempty"`
	ID            string                  `json:"id,omitempty"`
	Module        Module                  `json:"module,omitempty"`
	Tag           string                  `json:"tag,omitempty"`
	Patterns      map[string][]PatternDef `json:"patterns"`
}

// OverlayDef is a named project overlay.
type OverlayDef struct {
	Name   string         `json:"name"`
	Frames []OverlayFrame `json:"frames"`
}

// Segment is the atomic unit of analysis, produced by an external
// turn-splitting collaborator. The pipeline treats it as opaque.
type Segment struct {
	ID         string `json:"segment_id"`
	Speaker    string `json:"speaker"`
	Text       string `json:"text"`
	CharLength int    `json:"char_length"`
}

// NewSegment builds a Segment with CharLength derived from Text.
// CharLength counts runes, not bytes; an empty text yields zero, which is a
// valid segment (scored as zero intensity, never an error).
func NewSegment(id, speaker, text string) Segment {
	return Segment{
		ID:         id,
		Speaker:    speaker,
		Text:       text,
		CharLength: utf8.RuneCountInString(text),
	}
}

// Document is an ordered segment sequence with an identity and a language.
type Document struct {
	ID       string    `json:"document_id"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Annotation is the atomic traceable unit: one pattern match linking a rule,
// a frame, and a text span. Annotations are immutable; every downstream count
// is re-derivable by filtering the annotation set.
type Annotation struct {
	ID          string `json:"id"` // content-addressed, see AnnotationID
	RuleID      string `json:"rule_id"`
	FrameID     string `json:"frame_id"`
	FrameType   Type   `json:"frame_type"`
	Module      Module `json:"module"`
	SegmentID   string `json:"segment_id"`
	MatchedText string `json:"matched_text"`
	SpanStart   int    `json:"span_start"` // byte offset into Segment.Text
	SpanEnd     int    `json:"span_end"`
	Origin      string `json:"origin"`        // OriginMeta or overlay name
	Tag         string `json:"tag,omitempty"` // frame/pattern tag, if any
}

// AxisPair is an (aspiration frame, structural frame) tension axis.
// The zero value means "no axis".
type AxisPair struct {
	Aspiration string `json:"aspiration"`
	Structural string `json:"structural"`
}

// IsZero reports whether no axis is set.
func (p AxisPair) IsZero() bool { return p.Aspiration == "" && p.Structural == "" }

// Less orders axis pairs lexicographically: aspiration id first, then
// structural id. Used for deterministic tie-breaking.
func (p AxisPair) Less(q AxisPair) bool {
	if p.Aspiration != q.Aspiration {
		return p.Aspiration < q.Aspiration
	}
	return p.Structural < q.Structural
}

// AgencyClass is the three-way positioning classification of a segment.
type AgencyClass string

const (
	AgencySuffering  AgencyClass = "suffering"
	AgencyReflective AgencyClass = "reflective"
	AgencyNeutral    AgencyClass = "neutral"
)

// SegmentProfile is the consolidated, scored view of one segment.
// Derived, never stored independently of the annotations it summarizes.
type SegmentProfile struct {
	SegmentID           string      `json:"segment_id"`
	ACount              int         `json:"a_count"`
	SCount              int         `json:"s_count"`
	AffectMult          float64     `json:"affect_mult"`
	AgencyMult          float64     `json:"agency_mult"`
	ContextMult         float64     `json:"context_mult"`
	AgencyClass         AgencyClass `json:"agency_class"`
	Flags               []string    `json:"flags,omitempty"` // narrative signals
	Intensity           float64     `json:"intensity"`
	NormalizedIntensity float64     `json:"normalized_intensity"`
	DominantAxis        AxisPair    `json:"dominant_axis"`
	AxisPairs           []AxisPair  `json:"axis_pairs,omitempty"` // every co-occurring (A, S) pair, sorted
}

// TrajectoryPoint is one step of a document's intensity trajectory.
type TrajectoryPoint struct {
	SegmentID string  `json:"segment_id"`
	Intensity float64 `json:"intensity"` // normalized intensity
}

// TrajectoryShape classifies the overall direction of a trajectory.
type TrajectoryShape string

const (
	ShapeRising  TrajectoryShape = "RISING"
	ShapeFalling TrajectoryShape = "FALLING"
	ShapeStable  TrajectoryShape = "STABLE"
	ShapeSparse  TrajectoryShape = "SPARSE" // fewer than three scored segments
)

// DocumentProfile is the aggregated tension profile of one document.
// Built once per analysis run and never mutated afterwards.
type DocumentProfile struct {
	DocumentID   string            `json:"document_id"`
	Score        float64           `json:"score"`   // mean normalized intensity
	Density      float64           `json:"density"` // fraction of segments > 0
	Trajectory   []TrajectoryPoint `json:"trajectory"`
	PeakSegments []string          `json:"peak_segments"`
	DominantAxis AxisPair          `json:"dominant_axis"`
	Shape        TrajectoryShape   `json:"shape"`
}
