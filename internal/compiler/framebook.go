// Package compiler turns rule-book sources into the definition records the
// registry consumes. Framebooks are CUE; project overlays are YAML. The
// compiler validates shape and vocabulary with source positions; semantic
// checks (id collisions, pattern compilation) belong to the registry build.
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// Framebook is a compiled rule book: the base frame definitions plus the
// book-level language default.
type Framebook struct {
	DefaultLanguage string
	Frames          []frame.Def
}

// Hash returns the content hash of the compiled frame set.
func (fb *Framebook) Hash() (string, error) {
	return frame.FramebookHash(fb.Frames)
}

// LoadFramebook reads and compiles a framebook CUE file.
func LoadFramebook(path string) (*Framebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read framebook file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("framebook"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "framebook",
			Message: "top-level framebook struct is required",
			Pos:     v.Pos(),
		}
	}
	return CompileFramebook(root)
}

// CompileFramebook parses a CUE value into a Framebook.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the framebook struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`framebook: { ... }`)
//	fb, err := CompileFramebook(v.LookupPath(cue.ParsePath("framebook")))
func CompileFramebook(v cue.Value) (*Framebook, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	fb := &Framebook{}

	// default_language (optional at book level; analysis without it simply
	// has no gate fallback)
	defVal := v.LookupPath(cue.ParsePath("default_language"))
	if defVal.Exists() {
		lang, err := defVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		fb.DefaultLanguage = lang
	}

	frameVal := v.LookupPath(cue.ParsePath("frame"))
	if !frameVal.Exists() {
		return nil, &CompileError{
			Field:   "frame",
			Message: "at least one frame is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := frameVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		def, err := compileFrame(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fb.Frames = append(fb.Frames, def)
	}

	if len(fb.Frames) == 0 {
		return nil, &CompileError{
			Field:   "frame",
			Message: "at least one frame is required",
			Pos:     v.Pos(),
		}
	}
	return fb, nil
}

func compileFrame(id string, v cue.Value) (frame.Def, error) {
	def := frame.Def{ID: id}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return def, &CompileError{
			Field:   fmt.Sprintf("frame.%s.type", id),
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}
	typeStr, err := typeVal.String()
	if err != nil {
		return def, formatCUEError(err)
	}
	def.Type = frame.Type(typeStr)
	if !frame.DeclarableTypes[def.Type] {
		return def, &CompileError{
			Field:   fmt.Sprintf("frame.%s.type", id),
			Message: fmt.Sprintf("unknown frame type %q (declarable: ASPIRATION, STRUCTURAL, CONTEXT)", typeStr),
			Pos:     typeVal.Pos(),
		}
	}

	moduleVal := v.LookupPath(cue.ParsePath("module"))
	if !moduleVal.Exists() {
		return def, &CompileError{
			Field:   fmt.Sprintf("frame.%s.module", id),
			Message: "module is required",
			Pos:     v.Pos(),
		}
	}
	moduleStr, err := moduleVal.String()
	if err != nil {
		return def, formatCUEError(err)
	}
	def.Module = frame.Module(moduleStr)
	if !knownModule(def.Module) {
		return def, &CompileError{
			Field:   fmt.Sprintf("frame.%s.module", id),
			Message: fmt.Sprintf("unknown module %q", moduleStr),
			Pos:     moduleVal.Pos(),
		}
	}

	tagVal := v.LookupPath(cue.ParsePath("tag"))
	if tagVal.Exists() {
		tag, err := tagVal.String()
		if err != nil {
			return def, formatCUEError(err)
		}
		def.Tag = tag
	}

	labelVal := v.LookupPath(cue.ParsePath("label"))
	if labelVal.Exists() {
		label, err := labelVal.String()
		if err != nil {
			return def, formatCUEError(err)
		}
		def.Label = label
	}

	def.Patterns, err = compilePatternMap(id, v)
	if err != nil {
		return def, err
	}
	return def, nil
}

// compilePatternMap parses the per-language pattern lists of one frame.
// Patterns are optional at compile time: a frame may be declared before any
// language book fills it in, and the gate treats an absent language as a
// fallback case, not an error.
func compilePatternMap(frameID string, v cue.Value) (map[string][]frame.PatternDef, error) {
	patVal := v.LookupPath(cue.ParsePath("patterns"))
	if !patVal.Exists() {
		return nil, nil
	}

	langIter, err := patVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	out := make(map[string][]frame.PatternDef)
	for langIter.Next() {
		lang := langIter.Label()
		listIter, err := langIter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}

		var defs []frame.PatternDef
		for listIter.Next() {
			entry := listIter.Value()

			patternVal := entry.LookupPath(cue.ParsePath("pattern"))
			if !patternVal.Exists() {
				return nil, &CompileError{
					Field:   fmt.Sprintf("frame.%s.patterns.%s", frameID, lang),
					Message: "pattern expression is required",
					Pos:     entry.Pos(),
				}
			}
			pattern, err := patternVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			pd := frame.PatternDef{Pattern: pattern}

			prioVal := entry.LookupPath(cue.ParsePath("priority"))
			if prioVal.Exists() {
				prio, err := prioVal.Int64()
				if err != nil {
					return nil, formatCUEError(err)
				}
				pd.Priority = int(prio)
			}

			tagVal := entry.LookupPath(cue.ParsePath("tag"))
			if tagVal.Exists() {
				tag, err := tagVal.String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				pd.Tag = tag
			}

			defs = append(defs, pd)
		}
		out[lang] = defs
	}
	return out, nil
}

func knownModule(m frame.Module) bool {
	for _, known := range frame.Modules {
		if m == known {
			return true
		}
	}
	return false
}
