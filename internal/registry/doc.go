// Package registry builds and serves the immutable frame registry.
//
// A Registry is constructed once per analysis session from a base frame
// definition set plus optional project overlays, and is read-only afterwards.
// Batch runs share a single Registry reference across goroutines without
// locking; nothing mutates it after Build returns.
//
// Overlay composition follows a two-path merge:
//   - An overlay entry targeting an existing meta frame has its patterns
//     APPENDED below all meta-level patterns, and its matches count as that
//     frame's type for scoring.
//   - An overlay entry introducing a new frame id is registered as a
//     tracked-only frame (type CONTEXT_EXTENSION) that never contributes to
//     a_count/s_count, only to contextual tagging.
//
// This two-path rule is what keeps cross-project comparability intact under
// local customization: overlays can add traceability, never scoring frames.
//
// The language Gate is the single dispatch point for per-language patterns:
// exact language match, else the registry's default language, else
// UnsupportedLanguageError. Adding a language is additive (new pattern lists
// only) and never touches scoring logic.
package registry
