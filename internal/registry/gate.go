package registry

// Gate resolves the pattern set to apply for a (frame, language) pair.
// Resolution order: exact language match, then the registry's default
// language. A frame that declares the default language but carries no
// patterns for it resolves to an empty set rather than an error; an
// UnsupportedLanguageError is returned only when no default is
// configured at all.
type Gate struct {
	reg *Registry
}

func NewGate(r *Registry) Gate {
	return Gate{reg: r}
}

// Resolve returns the ordered patterns for frameID in the given
// language, falling back to the default language when the exact
// language is not declared on the frame.
func (g Gate) Resolve(frameID, language string) ([]Pattern, error) {
	f, ok := g.reg.frames[frameID]
	if !ok {
		return nil, &NotFoundError{FrameID: frameID}
	}
	if pats, ok := f.patterns[language]; ok {
		return pats, nil
	}
	def := g.reg.defaultLanguage
	if def == "" {
		return nil, &UnsupportedLanguageError{FrameID: frameID, Language: language}
	}
	return f.patterns[def], nil
}
