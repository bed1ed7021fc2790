package registry

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// Pattern is a compiled, traceable matching rule. Immutable after Build.
type Pattern struct {
	RuleID   string
	FrameID  string
	Priority int
	Tag      string // pattern tag, falling back to the frame tag
	Origin   string // frame.OriginMeta or the overlay name

	re *regexp.Regexp
}

// FindAll returns the non-overlapping match spans of the pattern in text,
// as [start, end) byte-offset pairs in left-to-right order. Matching is
// case-insensitive, mirroring the rule books this system is written for.
func (p Pattern) FindAll(text string) [][]int {
	return p.re.FindAllStringIndex(text, -1)
}

// Source returns the original pattern expression, for audit output.
func (p Pattern) Source() string { return p.re.String() }

// Info describes a registered frame without exposing mutable internals.
type Info struct {
	ID     string
	Type   frame.Type
	Module frame.Module
	Tag    string
	Label  string
}

type compiledFrame struct {
	info     Info
	patterns map[string][]Pattern // language → ordered (priority, meta-before-overlay)
}

// Registry holds the composed, compiled frame set for one analysis session.
// Write-once at Build, read-many afterwards; safe for concurrent readers.
type Registry struct {
	frames          map[string]*compiledFrame
	order           []string // declaration order, overlay-new frames appended
	defaultLanguage string
}

// Option configures a Registry build.
type Option func(*buildConfig)

type buildConfig struct {
	defaultLanguage string
}

// WithDefaultLanguage declares the fallback language the Gate resolves to
// when a frame has no pattern set for the requested language. Without it,
// such lookups surface UnsupportedLanguageError.
func WithDefaultLanguage(lang string) Option {
	return func(c *buildConfig) {
		c.defaultLanguage = lang
	}
}

// Build compiles base frame definitions and overlay definitions into an
// immutable Registry.
//
// Build fails with ConfigError if a frame id collides across base
// definitions, if a pattern does not compile, or if a definition declares an
// unknown frame type. Overlay entries never collide with each other by
// appending; an overlay entry that targets a frame id not present in the
// base set is a ConfigError (targets are explicit, never guessed).
func Build(base []frame.Def, overlays []frame.OverlayDef, opts ...Option) (*Registry, error) {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{
		frames:          make(map[string]*compiledFrame, len(base)),
		defaultLanguage: cfg.defaultLanguage,
	}

	for _, def := range base {
		if def.ID == "" {
			return nil, &ConfigError{Message: "frame id is required"}
		}
		if !frame.DeclarableTypes[def.Type] {
			return nil, &ConfigError{FrameID: def.ID, Message: fmt.Sprintf("unknown frame type %q", def.Type)}
		}
		if def.Module == "" {
			return nil, &ConfigError{FrameID: def.ID, Message: "frame module is required"}
		}
		if _, exists := r.frames[def.ID]; exists {
			return nil, &ConfigError{FrameID: def.ID, Message: "duplicate frame id"}
		}

		cf := &compiledFrame{
			info: Info{
				ID:     def.ID,
				Type:   def.Type,
				Module: def.Module,
				Tag:    def.Tag,
				Label:  def.Label,
			},
			patterns: make(map[string][]Pattern, len(def.Patterns)),
		}
		for lang, defs := range def.Patterns {
			compiled, err := compilePatterns(def.ID, lang, def.Tag, frame.OriginMeta, defs)
			if err != nil {
				return nil, err
			}
			cf.patterns[lang] = compiled
		}
		r.frames[def.ID] = cf
		r.order = append(r.order, def.ID)
	}

	for _, overlay := range overlays {
		if err := r.merge(overlay); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// merge applies one overlay using the two-path rule. Called only during
// Build; the Registry is frozen once Build returns.
func (r *Registry) merge(overlay frame.OverlayDef) error {
	if overlay.Name == "" {
		return &ConfigError{Message: "overlay name is required"}
	}

	for _, entry := range overlay.Frames {
		switch {
		case entry.TargetFrameID != "" && entry.ID != "":
			return &ConfigError{
				FrameID: entry.ID,
				Overlay: overlay.Name,
				Message: "overlay entry must set either target_frame_id or id, not both",
			}

		case entry.TargetFrameID != "":
			// Path 1: append patterns below all meta-level patterns. The
			// entry's matches keep counting as the target frame's type.
			target, ok := r.frames[entry.TargetFrameID]
			if !ok {
				return &ConfigError{
					FrameID: entry.TargetFrameID,
					Overlay: overlay.Name,
					Message: "overlay targets unknown frame id",
				}
			}
			tag := entry.Tag
			if tag == "" {
				tag = target.info.Tag
			}
			for lang, defs := range entry.Patterns {
				compiled, err := compilePatternsOverlay(target.info.ID, lang, tag, overlay.Name, defs)
				if err != nil {
					return err
				}
				target.patterns[lang] = append(target.patterns[lang], compiled...)
			}

		case entry.ID != "":
			// Path 2: new tracked-only frame. Never enters a_count/s_count.
			if _, exists := r.frames[entry.ID]; exists {
				return &ConfigError{
					FrameID: entry.ID,
					Overlay: overlay.Name,
					Message: "overlay frame id collides with an existing frame",
				}
			}
			module := entry.Module
			if module == "" {
				module = frame.ModuleFraming
			}
			cf := &compiledFrame{
				info: Info{
					ID:     entry.ID,
					Type:   frame.TypeContextExtension,
					Module: module,
					Tag:    entry.Tag,
				},
				patterns: make(map[string][]Pattern, len(entry.Patterns)),
			}
			for lang, defs := range entry.Patterns {
				compiled, err := compilePatternsOverlay(entry.ID, lang, entry.Tag, overlay.Name, defs)
				if err != nil {
					return err
				}
				cf.patterns[lang] = compiled
			}
			r.frames[entry.ID] = cf
			r.order = append(r.order, entry.ID)

		default:
			return &ConfigError{
				Overlay: overlay.Name,
				Message: "overlay entry must set target_frame_id or id",
			}
		}
	}

	return nil
}

// compilePatterns compiles a pattern list in priority order (highest first;
// declaration order breaks priority ties). Rule ids are stable ordinals
// within (frame, language, origin), so adding an overlay never renames a
// meta-level rule.
func compilePatterns(frameID, lang, frameTag, origin string, defs []frame.PatternDef) ([]Pattern, error) {
	ordered := make([]frame.PatternDef, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	out := make([]Pattern, 0, len(ordered))
	for i, def := range ordered {
		if def.Pattern == "" {
			return nil, &ConfigError{FrameID: frameID, Language: lang, Message: "empty pattern"}
		}
		re, err := regexp.Compile("(?i)" + def.Pattern)
		if err != nil {
			return nil, &ConfigError{FrameID: frameID, Language: lang, Message: fmt.Sprintf("invalid pattern %q", def.Pattern), Err: err}
		}
		tag := def.Tag
		if tag == "" {
			tag = frameTag
		}
		ruleID := fmt.Sprintf("%s/%s/%02d", frameID, lang, i)
		if origin != frame.OriginMeta {
			ruleID = fmt.Sprintf("%s/%s/%s/%02d", frameID, lang, origin, i)
		}
		out = append(out, Pattern{
			RuleID:   ruleID,
			FrameID:  frameID,
			Priority: def.Priority,
			Tag:      tag,
			Origin:   origin,
			re:       re,
		})
	}
	return out, nil
}

func compilePatternsOverlay(frameID, lang, frameTag, overlayName string, defs []frame.PatternDef) ([]Pattern, error) {
	compiled, err := compilePatterns(frameID, lang, frameTag, overlayName, defs)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Overlay = overlayName
		}
		return nil, err
	}
	return compiled, nil
}

// Frame returns the descriptor of a registered frame.
func (r *Registry) Frame(id string) (Info, error) {
	cf, ok := r.frames[id]
	if !ok {
		return Info{}, &NotFoundError{FrameID: id}
	}
	return cf.info, nil
}

// Label returns a frame's display label, falling back to its id. Unknown
// frames fall back too; labels are presentation only and never worth an
// error path.
func (r *Registry) Label(id string) string {
	if cf, ok := r.frames[id]; ok && cf.info.Label != "" {
		return cf.info.Label
	}
	return id
}

// FramesOfType returns the ids of all frames of the given type, sorted for
// deterministic iteration.
func (r *Registry) FramesOfType(t frame.Type) []string {
	var ids []string
	for _, id := range r.order {
		if r.frames[id].info.Type == t {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// FramesForModule returns the ids of all frames a module annotates, in
// declaration order. Declaration order is preserved from Build so annotation
// output order is reproducible across runs.
func (r *Registry) FramesForModule(m frame.Module) []string {
	var ids []string
	for _, id := range r.order {
		if r.frames[id].info.Module == m {
			ids = append(ids, id)
		}
	}
	return ids
}

// PatternsFor returns the ordered pattern list of a frame for an exact
// language, or nil if the frame declares no patterns for it. Language
// fallback is the Gate's job, not this lookup's.
func (r *Registry) PatternsFor(frameID, language string) ([]Pattern, error) {
	cf, ok := r.frames[frameID]
	if !ok {
		return nil, &NotFoundError{FrameID: frameID}
	}
	return cf.patterns[language], nil
}

// DefaultLanguage returns the configured fallback language, or "" if none.
func (r *Registry) DefaultLanguage() string { return r.defaultLanguage }

// Len returns the number of registered frames.
func (r *Registry) Len() int { return len(r.frames) }
