package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

func ann(frameID string, typ frame.Type, module frame.Module, tag string) frame.Annotation {
	return frame.Annotation{
		FrameID:   frameID,
		FrameType: typ,
		Module:    module,
		Tag:       tag,
		SegmentID: "seg-1",
	}
}

func pad(text string, runes int) string {
	return text + strings.Repeat(".", runes-len([]rune(text)))
}

func TestConsolidateCounts(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("S1", frame.TypeStructural, frame.ModuleFraming, ""),
		ann("K1", frame.TypeContext, frame.ModuleFraming, ""),
		ann("EXT", frame.TypeContextExtension, frame.ModuleFraming, ""),
	})

	// Context and tracked-only matches never enter the counts.
	assert.Equal(t, 2, p.ACount)
	assert.Equal(t, 1, p.SCount)
	assert.Equal(t, frame.AxisPair{Aspiration: "A1", Structural: "S1"}, p.DominantAxis)
}

func TestConsolidateTrackedOnlyNeverModerates(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("S1", frame.TypeStructural, frame.ModuleFraming, ""),
		ann("EXT_AFF", frame.TypeContextExtension, frame.ModuleAffect, frame.TagAmplifying),
		ann("EXT_POS", frame.TypeContextExtension, frame.ModulePositioning, frame.TagSuffering),
		ann("EXT_DMP", frame.TypeContextExtension, frame.ModuleFraming, frame.TagDampening),
	})

	// Tracked-only matches ride along in the audit trail without touching
	// the affect density or any multiplier.
	assert.Equal(t, 1, p.ACount)
	assert.Equal(t, 1, p.SCount)
	assert.InDelta(t, 1.0, p.AffectMult, 1e-12)
	assert.InDelta(t, 1.0, p.ContextMult, 1e-12)
	assert.InDelta(t, 1.0, p.AgencyMult, 1e-12)
	assert.Equal(t, frame.AgencyNeutral, p.AgencyClass)
	assert.InDelta(t, 1.0, p.Intensity, 1e-12)
}

func TestConsolidateAxisPairsCoOccurrence(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("A2", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("S1", frame.TypeStructural, frame.ModuleFraming, ""),
	})

	assert.Equal(t, frame.AxisPair{Aspiration: "A1", Structural: "S1"}, p.DominantAxis)
	assert.Equal(t, []frame.AxisPair{
		{Aspiration: "A1", Structural: "S1"},
		{Aspiration: "A2", Structural: "S1"},
	}, p.AxisPairs)

	p = Consolidate(seg, []frame.Annotation{
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
	})
	assert.Empty(t, p.AxisPairs)
}

func TestConsolidateAgencyPriority(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))

	p := Consolidate(seg, []frame.Annotation{
		ann("R", frame.TypeContext, frame.ModulePositioning, frame.TagReflective),
		ann("S", frame.TypeContext, frame.ModulePositioning, frame.TagSuffering),
	})
	assert.Equal(t, frame.AgencySuffering, p.AgencyClass)
	assert.InDelta(t, 1.2, p.AgencyMult, 1e-12)

	p = Consolidate(seg, []frame.Annotation{
		ann("R", frame.TypeContext, frame.ModulePositioning, frame.TagReflective),
	})
	assert.Equal(t, frame.AgencyReflective, p.AgencyClass)
	assert.InDelta(t, 1.1, p.AgencyMult, 1e-12)

	p = Consolidate(seg, nil)
	assert.Equal(t, frame.AgencyNeutral, p.AgencyClass)
	assert.InDelta(t, 1.0, p.AgencyMult, 1e-12)
}

func TestConsolidateAgencyTagOutsidePositioningIgnored(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("X", frame.TypeContext, frame.ModuleFraming, frame.TagSuffering),
	})
	assert.Equal(t, frame.AgencyNeutral, p.AgencyClass)
}

func TestConsolidateContextTriState(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))

	p := Consolidate(seg, []frame.Annotation{
		ann("V", frame.TypeContext, frame.ModuleAffect, frame.TagAmplifying),
	})
	assert.InDelta(t, 1.10, p.ContextMult, 1e-12)

	p = Consolidate(seg, []frame.Annotation{
		ann("N", frame.TypeContext, frame.ModuleFraming, frame.TagDampening),
	})
	assert.InDelta(t, 0.90, p.ContextMult, 1e-12)

	// Both present: amplifying wins, the multipliers never stack.
	p = Consolidate(seg, []frame.Annotation{
		ann("V", frame.TypeContext, frame.ModuleAffect, frame.TagAmplifying),
		ann("N", frame.TypeContext, frame.ModuleFraming, frame.TagDampening),
	})
	assert.InDelta(t, 1.10, p.ContextMult, 1e-12)

	p = Consolidate(seg, nil)
	assert.InDelta(t, 1.0, p.ContextMult, 1e-12)
}

func TestConsolidateAffectDensity(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 1000))
	p := Consolidate(seg, []frame.Annotation{
		ann("AF", frame.TypeContext, frame.ModuleAffect, ""),
	})
	// One marker per 1000 characters: density 0.1.
	assert.InDelta(t, 1.1, p.AffectMult, 1e-12)
}

func TestConsolidateAffectCap(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 10))
	p := Consolidate(seg, []frame.Annotation{
		ann("AF", frame.TypeContext, frame.ModuleAffect, ""),
		ann("AF", frame.TypeContext, frame.ModuleAffect, ""),
	})
	assert.InDelta(t, 1.25, p.AffectMult, 1e-12)
}

func TestConsolidateFlags(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("V", frame.TypeContext, frame.ModuleNarrative, frame.TagTrajectory),
		ann("W", frame.TypeContext, frame.ModuleNarrative, frame.TagTurningPoint),
		ann("W", frame.TypeContext, frame.ModuleNarrative, frame.TagTurningPoint),
	})
	assert.Equal(t, []string{FlagTrajectory, FlagTurningPoint}, p.Flags)
}

func TestConsolidateDominantAxisProduct(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("A2", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("A2", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("S1", frame.TypeStructural, frame.ModuleFraming, ""),
	})
	// A2 co-occurs more strongly than A1.
	assert.Equal(t, frame.AxisPair{Aspiration: "A2", Structural: "S1"}, p.DominantAxis)
}

func TestConsolidateDominantAxisTieBreak(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("A2", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
		ann("S1", frame.TypeStructural, frame.ModuleFraming, ""),
	})
	// Equal products: lexicographically smaller aspiration id wins.
	assert.Equal(t, frame.AxisPair{Aspiration: "A1", Structural: "S1"}, p.DominantAxis)
}

func TestConsolidateNoAxisWithoutBothSides(t *testing.T) {
	seg := frame.NewSegment("seg-1", "P1", pad("x", 100))
	p := Consolidate(seg, []frame.Annotation{
		ann("A1", frame.TypeAspiration, frame.ModuleFraming, ""),
	})
	assert.True(t, p.DominantAxis.IsZero())
	assert.Zero(t, p.Intensity)
}
