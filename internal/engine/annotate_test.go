package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
	"github.com/klausbehnamshad/relational-justice-analysis/internal/registry"
)

// testDefs is a small German frame book covering all four modules.
func testDefs() []frame.Def {
	return []frame.Def{
		{
			ID:     "LEGITIMITAET_GERECHTIGKEIT",
			Type:   frame.TypeAspiration,
			Module: frame.ModuleFraming,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `gerech\w*`, Priority: 10}},
			},
		},
		{
			ID:     "ANERKENNUNG",
			Type:   frame.TypeAspiration,
			Module: frame.ModuleFraming,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `anerkenn\w*`, Priority: 10}},
			},
		},
		{
			ID:     "OEKONOMISIERUNG",
			Type:   frame.TypeStructural,
			Module: frame.ModuleFraming,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `kosten\w*`, Priority: 10}},
			},
		},
		{
			ID:     "NORMALISIERUNG",
			Type:   frame.TypeContext,
			Module: frame.ModuleFraming,
			Tag:    frame.TagDampening,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `normal\w*`, Priority: 10}},
			},
		},
		{
			ID:     "ERLEIDEN",
			Type:   frame.TypeContext,
			Module: frame.ModulePositioning,
			Tag:    frame.TagSuffering,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `ausgeliefert`, Priority: 10}},
			},
		},
		{
			ID:     "REFLEXION",
			Type:   frame.TypeContext,
			Module: frame.ModulePositioning,
			Tag:    frame.TagReflective,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `r\x{00fc}ckblickend`, Priority: 10}},
			},
		},
		{
			ID:     "VERLETZLICHKEIT",
			Type:   frame.TypeContext,
			Module: frame.ModuleAffect,
			Tag:    frame.TagAmplifying,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `hilflos\w*`, Priority: 10}},
			},
		},
		{
			ID:     "AFFEKT_MARKER",
			Type:   frame.TypeContext,
			Module: frame.ModuleAffect,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `verzweifelt`, Priority: 10}},
			},
		},
		{
			ID:     "WENDEPUNKT",
			Type:   frame.TypeContext,
			Module: frame.ModuleNarrative,
			Tag:    frame.TagTurningPoint,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `pl\x{00f6}tzlich`, Priority: 10}},
			},
		},
	}
}

func testPipeline(t *testing.T, overlays ...frame.OverlayDef) *Pipeline {
	t.Helper()
	reg, err := registry.Build(testDefs(), overlays, registry.WithDefaultLanguage("de"))
	require.NoError(t, err)
	return New(reg)
}

func TestAnnotateSegmentOrdering(t *testing.T) {
	p := testPipeline(t)
	seg := frame.NewSegment("seg-1", "P1", "kostendruck und gerechtigkeit und kostenstelle")

	anns, err := p.AnnotateSegment("doc-1", "de", seg, frame.ModuleFraming)
	require.NoError(t, err)
	require.Len(t, anns, 3)

	assert.Equal(t, "kostendruck", anns[0].MatchedText)
	assert.Equal(t, "gerechtigkeit", anns[1].MatchedText)
	assert.Equal(t, "kostenstelle", anns[2].MatchedText)
	for i := 1; i < len(anns); i++ {
		assert.Less(t, anns[i-1].SpanStart, anns[i].SpanStart)
	}
}

func TestAnnotateSegmentSuppressesOverlapWithinFrame(t *testing.T) {
	defs := []frame.Def{{
		ID:     "X",
		Type:   frame.TypeStructural,
		Module: frame.ModuleFraming,
		Patterns: map[string][]frame.PatternDef{
			"de": {
				{Pattern: `kostendruck`, Priority: 10},
				{Pattern: `kosten\w*`, Priority: 1},
			},
		},
	}}
	reg, err := registry.Build(defs, nil, registry.WithDefaultLanguage("de"))
	require.NoError(t, err)
	p := New(reg)

	seg := frame.NewSegment("seg-1", "P1", "kostendruck")
	anns, err := p.AnnotateSegment("doc-1", "de", seg, frame.ModuleFraming)
	require.NoError(t, err)

	// The higher-priority pattern keeps the span; the broad one is suppressed.
	require.Len(t, anns, 1)
	assert.Equal(t, "X/de/00", anns[0].RuleID)
}

func TestAnnotateSegmentNoSuppressionAcrossFrames(t *testing.T) {
	defs := []frame.Def{
		{
			ID:     "A",
			Type:   frame.TypeAspiration,
			Module: frame.ModuleFraming,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `teilhabe`, Priority: 10}},
			},
		},
		{
			ID:     "B",
			Type:   frame.TypeStructural,
			Module: frame.ModuleFraming,
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `teil\w*`, Priority: 10}},
			},
		},
	}
	reg, err := registry.Build(defs, nil, registry.WithDefaultLanguage("de"))
	require.NoError(t, err)
	p := New(reg)

	seg := frame.NewSegment("seg-1", "P1", "teilhabe")
	anns, err := p.AnnotateSegment("doc-1", "de", seg, frame.ModuleFraming)
	require.NoError(t, err)

	// Same words, two frames, two annotations.
	require.Len(t, anns, 2)
	assert.Equal(t, "A", anns[0].FrameID)
	assert.Equal(t, "B", anns[1].FrameID)
}

func TestAnnotateSegmentDeterministic(t *testing.T) {
	p := testPipeline(t)
	seg := frame.NewSegment("seg-1", "P1", "plötzlich hilflos und ausgeliefert, kostendruck statt gerechtigkeit")

	first, err := p.AnnotateAll("doc-1", "de", seg)
	require.NoError(t, err)
	second, err := p.AnnotateAll("doc-1", "de", seg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for _, a := range first {
		assert.Len(t, a.ID, 64)
		assert.Equal(t, seg.Text[a.SpanStart:a.SpanEnd], a.MatchedText)
	}
}

func TestAnnotateSegmentUnsupportedLanguage(t *testing.T) {
	reg, err := registry.Build(testDefs(), nil) // no default language
	require.NoError(t, err)
	p := New(reg)

	seg := frame.NewSegment("seg-1", "P1", "some english text")
	_, err = p.AnnotateSegment("doc-1", "en", seg, frame.ModuleFraming)
	require.Error(t, err)
	assert.True(t, registry.IsUnsupportedLanguage(err))
}

func TestAnnotateOverlayOrigin(t *testing.T) {
	overlay := frame.OverlayDef{
		Name: "pflege",
		Frames: []frame.OverlayFrame{{
			TargetFrameID: "OEKONOMISIERUNG",
			Patterns: map[string][]frame.PatternDef{
				"de": {{Pattern: `minutenpflege`, Priority: 50}},
			},
		}},
	}
	p := testPipeline(t, overlay)

	seg := frame.NewSegment("seg-1", "P1", "minutenpflege und kostendruck")
	anns, err := p.AnnotateSegment("doc-1", "de", seg, frame.ModuleFraming)
	require.NoError(t, err)
	require.Len(t, anns, 2)

	assert.Equal(t, "pflege", anns[0].Origin)
	assert.Equal(t, frame.TypeStructural, anns[0].FrameType)
	assert.Equal(t, frame.OriginMeta, anns[1].Origin)
}
