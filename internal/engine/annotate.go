package engine

import (
	"sort"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/registry"
)

// Pipeline runs the analytical modules over documents using one immutable
// registry. Safe for concurrent use; it holds no per-document state.
type Pipeline struct {
	reg        *registry.Registry
	gate       registry.Gate
	peakSigmas float64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPeakSigmas overrides the peak detection threshold: a segment counts
// as a peak when its normalized intensity exceeds the document mean by this
// many standard deviations.
func WithPeakSigmas(sigmas float64) Option {
	return func(p *Pipeline) { p.peakSigmas = sigmas }
}

// New builds a Pipeline over a compiled registry.
func New(reg *registry.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{reg: reg, gate: registry.NewGate(reg), peakSigmas: DefaultPeakSigmas}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AnnotateSegment runs one module over one segment and returns its
// annotations in canonical order (span start, then frame id, then rule id).
//
// Within a frame, a match that overlaps an already accepted match of the
// same frame is suppressed; pattern order decides which one wins, so the
// highest-priority pattern always keeps its span. Matches of DIFFERENT
// frames are never suppressed against each other, a segment can legitimately
// carry several frames on the same words.
func (p *Pipeline) AnnotateSegment(documentID, language string, seg frame.Segment, module frame.Module) ([]frame.Annotation, error) {
	var out []frame.Annotation

	for _, frameID := range p.reg.FramesForModule(module) {
		pats, err := p.gate.Resolve(frameID, language)
		if err != nil {
			return nil, err
		}

		info, err := p.reg.Frame(frameID)
		if err != nil {
			return nil, err
		}

		var accepted [][2]int
		for _, pat := range pats {
			for _, span := range pat.FindAll(seg.Text) {
				if overlapsAny(accepted, span[0], span[1]) {
					continue
				}
				accepted = append(accepted, [2]int{span[0], span[1]})
				out = append(out, frame.Annotation{
					RuleID:      pat.RuleID,
					FrameID:     frameID,
					FrameType:   info.Type,
					Module:      module,
					SegmentID:   seg.ID,
					MatchedText: seg.Text[span[0]:span[1]],
					SpanStart:   span[0],
					SpanEnd:     span[1],
					Origin:      pat.Origin,
					Tag:         pat.Tag,
				})
			}
		}
	}

	sortAnnotations(out)
	for i := range out {
		out[i].ID = frame.AnnotationID(documentID, out[i])
	}
	return out, nil
}

// AnnotateAll runs every module over one segment, in canonical module order.
func (p *Pipeline) AnnotateAll(documentID, language string, seg frame.Segment) ([]frame.Annotation, error) {
	var all []frame.Annotation
	for _, module := range frame.Modules {
		anns, err := p.AnnotateSegment(documentID, language, seg, module)
		if err != nil {
			return nil, err
		}
		all = append(all, anns...)
	}
	sortAnnotations(all)
	return all, nil
}

func overlapsAny(accepted [][2]int, start, end int) bool {
	for _, span := range accepted {
		if start < span[1] && span[0] < end {
			return true
		}
	}
	return false
}

func sortAnnotations(anns []frame.Annotation) {
	sort.SliceStable(anns, func(i, j int) bool {
		a, b := anns[i], anns[j]
		if a.SpanStart != b.SpanStart {
			return a.SpanStart < b.SpanStart
		}
		if a.FrameID != b.FrameID {
			return a.FrameID < b.FrameID
		}
		return a.RuleID < b.RuleID
	})
}
