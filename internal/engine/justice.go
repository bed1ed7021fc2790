package engine

import (
	"math"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// intensity evaluates the tension formula on a consolidated profile:
//
//	sqrt(a_count * s_count) * affect_mult * agency_mult * context_mult
//
// A segment with no aspiration matches or no structural matches has zero
// tension regardless of its multipliers.
func intensity(p frame.SegmentProfile) float64 {
	if p.ACount == 0 || p.SCount == 0 {
		return 0
	}
	return math.Sqrt(float64(p.ACount)*float64(p.SCount)) *
		p.AffectMult * p.AgencyMult * p.ContextMult
}

// normalize scales raw intensity to per-1000-characters. A zero-length
// segment normalizes to zero; it is a valid segment, not an error.
func normalize(raw float64, charLength int) float64 {
	if charLength == 0 {
		return 0
	}
	return raw * 1000 / float64(charLength)
}

// DefaultPeakSigmas is how many standard deviations above the document mean
// a segment must rise to count as a peak.
const DefaultPeakSigmas = 1.0

// Fold aggregates segment profiles into the document tension profile using
// the default peak threshold.
func Fold(documentID string, profiles []frame.SegmentProfile) frame.DocumentProfile {
	return FoldWithPeakSigmas(documentID, profiles, DefaultPeakSigmas)
}

// FoldWithPeakSigmas aggregates segment profiles into the document tension
// profile. Profiles must be in document segment order; the trajectory
// preserves it.
//
// Score is the mean normalized intensity over ALL segments, zero-intensity
// ones included. Density is the fraction of segments with intensity above
// zero. Peaks are strict local maxima above mean + sigmas standard
// deviations; boundary segments compare against their single neighbor, so a
// one-segment document never has a peak and a two-segment document has at
// most one.
func FoldWithPeakSigmas(documentID string, profiles []frame.SegmentProfile, sigmas float64) frame.DocumentProfile {
	doc := frame.DocumentProfile{
		DocumentID: documentID,
		Shape:      frame.ShapeSparse,
	}
	if len(profiles) == 0 {
		return doc
	}

	values := make([]float64, len(profiles))
	doc.Trajectory = make([]frame.TrajectoryPoint, len(profiles))
	nonzero := 0
	var sum float64
	for i, p := range profiles {
		values[i] = p.NormalizedIntensity
		sum += p.NormalizedIntensity
		if p.NormalizedIntensity > 0 {
			nonzero++
		}
		doc.Trajectory[i] = frame.TrajectoryPoint{
			SegmentID: p.SegmentID,
			Intensity: p.NormalizedIntensity,
		}
	}

	mean := sum / float64(len(values))
	doc.Score = mean
	doc.Density = float64(nonzero) / float64(len(values))
	doc.PeakSegments = peaks(profiles, values, mean+sigmas*stddev(values, mean))
	doc.DominantAxis = documentAxis(profiles)
	doc.Shape = shape(values, nonzero)
	return doc
}

// stddev is the population standard deviation.
func stddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// peaks returns the segment ids of strict local maxima above threshold,
// in document order.
func peaks(profiles []frame.SegmentProfile, values []float64, threshold float64) []string {
	if len(values) < 2 {
		return nil
	}
	var out []string
	for i, v := range values {
		if v <= threshold {
			continue
		}
		left := i == 0 || v > values[i-1]
		right := i == len(values)-1 || v > values[i+1]
		if left && right {
			out = append(out, profiles[i].SegmentID)
		}
	}
	return out
}

// documentAxis picks the (aspiration, structural) pair that co-occurs in
// the most segments, with lexicographic tie-breaking. Every pair present in
// a segment gets credit there, not just the segment's own dominant axis, so
// a pair that shows up everywhere wins even when it never tops a single
// segment.
func documentAxis(profiles []frame.SegmentProfile) frame.AxisPair {
	counts := map[frame.AxisPair]int{}
	for _, p := range profiles {
		for _, pair := range p.AxisPairs {
			counts[pair]++
		}
	}

	var best frame.AxisPair
	bestCount := 0
	for axis, n := range counts {
		if n > bestCount || (n == bestCount && bestCount > 0 && axis.Less(best)) {
			best = axis
			bestCount = n
		}
	}
	return best
}

// shape classifies the trajectory direction. A document with fewer than
// three nonzero segments is SPARSE; otherwise the mean of the final third
// is compared against the mean of the initial third with a 15% band.
func shape(values []float64, nonzero int) frame.TrajectoryShape {
	if nonzero < 3 {
		return frame.ShapeSparse
	}

	third := len(values) / 3
	if third == 0 {
		third = 1
	}
	head := meanOf(values[:third])
	tail := meanOf(values[len(values)-third:])

	switch {
	case head == 0 && tail > 0:
		return frame.ShapeRising
	case tail == 0 && head > 0:
		return frame.ShapeFalling
	case tail > head*1.15:
		return frame.ShapeRising
	case tail < head*0.85:
		return frame.ShapeFalling
	default:
		return frame.ShapeStable
	}
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
