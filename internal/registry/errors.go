package registry

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed or colliding frame/overlay definition.
// Fatal for the affected Registry build; a frame is never silently dropped.
type ConfigError struct {
	FrameID  string
	Overlay  string // overlay name, empty for base definitions
	Language string // language of the offending pattern, if applicable
	Message  string
	Err      error // underlying cause (e.g. regexp compile error)
}

func (e *ConfigError) Error() string {
	where := e.FrameID
	if e.Overlay != "" {
		where = fmt.Sprintf("%s (overlay %s)", where, e.Overlay)
	}
	if e.Language != "" {
		where = fmt.Sprintf("%s [%s]", where, e.Language)
	}
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %v", where, e.Message, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", where, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError reports a lookup of an undeclared frame id.
// Always surfaced to the caller; never silently defaulted.
type NotFoundError struct {
	FrameID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("frame not found: %s", e.FrameID)
}

// UnsupportedLanguageError reports that a frame has no pattern set for the
// requested language and the registry has no default language configured.
// The caller decides whether to skip the segment/document or abort.
type UnsupportedLanguageError struct {
	FrameID  string
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("no patterns for frame %s in language %q and no default language configured", e.FrameID, e.Language)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsUnsupportedLanguage reports whether err is (or wraps) an
// UnsupportedLanguageError.
func IsUnsupportedLanguage(err error) bool {
	var ue *UnsupportedLanguageError
	return errors.As(err, &ue)
}
