package engine

import (
	"sort"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// Segment flags surfaced from narrative signals.
const (
	FlagTurningPoint = "TURNING_POINT"
	FlagTrajectory   = "TRAJECTORY"
)

// Multiplier constants of the intensity formula.
const (
	agencySufferingMult  = 1.2
	agencyReflectiveMult = 1.1
	agencyNeutralMult    = 1.0

	contextAmplifyingMult = 1.10
	contextDampeningMult  = 0.90

	affectMultCap = 1.25
)

// Consolidate combines the annotations of all four modules on one segment
// into a SegmentProfile. It is the only place module outputs meet.
//
// Counting rules:
//   - a_count / s_count count ASPIRATION / STRUCTURAL annotations, which
//     includes overlay patterns appended to a meta frame (they carry the
//     target frame's type) and excludes CONTEXT_EXTENSION frames entirely.
//   - affect density counts affect-module annotations per 100 characters.
//   - agency class is the strongest positioning tag present: suffering over
//     reflective over neutral.
//   - the context multiplier is tri-state; if both an amplifying and a
//     dampening tag appear, amplifying wins.
//   - CONTEXT_EXTENSION annotations are tracked-only: they enter neither
//     the counts, the affect density, nor any multiplier tag. Only CONTEXT
//     frames moderate; the tags ride along in the audit trail untouched.
func Consolidate(seg frame.Segment, anns []frame.Annotation) frame.SegmentProfile {
	profile := frame.SegmentProfile{
		SegmentID:   seg.ID,
		AffectMult:  1.0,
		AgencyMult:  agencyNeutralMult,
		ContextMult: 1.0,
		AgencyClass: frame.AgencyNeutral,
	}

	var (
		affectCount int
		amplifying  bool
		dampening   bool
		suffering   bool
		reflective  bool
		flagSet     = map[string]bool{}
		aByFrame    = map[string]int{}
		sByFrame    = map[string]int{}
	)

	for _, a := range anns {
		switch a.FrameType {
		case frame.TypeAspiration:
			profile.ACount++
			aByFrame[a.FrameID]++
		case frame.TypeStructural:
			profile.SCount++
			sByFrame[a.FrameID]++
		}

		if a.Module == frame.ModuleAffect && a.FrameType != frame.TypeContextExtension {
			affectCount++
		}

		if a.FrameType == frame.TypeContext {
			switch a.Tag {
			case frame.TagAmplifying:
				amplifying = true
			case frame.TagDampening:
				dampening = true
			}
		}

		if a.Module == frame.ModulePositioning && a.FrameType == frame.TypeContext {
			switch a.Tag {
			case frame.TagSuffering:
				suffering = true
			case frame.TagReflective:
				reflective = true
			}
		}

		if a.Module == frame.ModuleNarrative {
			switch a.Tag {
			case frame.TagTurningPoint:
				flagSet[FlagTurningPoint] = true
			case frame.TagTrajectory:
				flagSet[FlagTrajectory] = true
			}
		}
	}

	length := seg.CharLength
	if length < 1 {
		length = 1
	}
	affectDensity := float64(affectCount) * 100 / float64(length)
	profile.AffectMult = 1.0 + affectDensity
	if profile.AffectMult > affectMultCap {
		profile.AffectMult = affectMultCap
	}

	switch {
	case suffering:
		profile.AgencyClass = frame.AgencySuffering
		profile.AgencyMult = agencySufferingMult
	case reflective:
		profile.AgencyClass = frame.AgencyReflective
		profile.AgencyMult = agencyReflectiveMult
	}

	switch {
	case amplifying:
		profile.ContextMult = contextAmplifyingMult
	case dampening:
		profile.ContextMult = contextDampeningMult
	}

	if len(flagSet) > 0 {
		for flag := range flagSet {
			profile.Flags = append(profile.Flags, flag)
		}
		sort.Strings(profile.Flags)
	}

	profile.DominantAxis = dominantAxis(aByFrame, sByFrame)
	profile.AxisPairs = axisPairs(aByFrame, sByFrame)

	profile.Intensity = intensity(profile)
	profile.NormalizedIntensity = normalize(profile.Intensity, seg.CharLength)
	return profile
}

// dominantAxis picks the (aspiration, structural) pair with the highest
// match-count product, breaking ties lexicographically. Zero when the
// segment lacks either side of the tension.
func dominantAxis(aByFrame, sByFrame map[string]int) frame.AxisPair {
	var best frame.AxisPair
	bestWeight := 0

	aIDs := sortedKeys(aByFrame)
	sIDs := sortedKeys(sByFrame)
	for _, aid := range aIDs {
		for _, sid := range sIDs {
			weight := aByFrame[aid] * sByFrame[sid]
			if weight > bestWeight {
				bestWeight = weight
				best = frame.AxisPair{Aspiration: aid, Structural: sid}
			}
		}
	}
	return best
}

// axisPairs lists every (aspiration, structural) pair co-occurring in the
// segment, in lexicographic order. The document fold counts these; the
// per-segment dominant axis above weighs them by match-count product.
func axisPairs(aByFrame, sByFrame map[string]int) []frame.AxisPair {
	if len(aByFrame) == 0 || len(sByFrame) == 0 {
		return nil
	}
	var pairs []frame.AxisPair
	for _, aid := range sortedKeys(aByFrame) {
		for _, sid := range sortedKeys(sByFrame) {
			pairs = append(pairs, frame.AxisPair{Aspiration: aid, Structural: sid})
		}
	}
	return pairs
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
