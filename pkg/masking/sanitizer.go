package masking

// Sanitizer applies the built-in redaction patterns to free-form text.
// Stateless and safe for concurrent use; created once at startup.
type Sanitizer struct{}

// NewSanitizer returns a ready-to-use Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize redacts every builtin pattern match in text and returns the
// result. Empty input is returned unchanged.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	masked := text
	for _, p := range builtinPatterns {
		masked = p.regex.ReplaceAllString(masked, p.replacement)
	}
	return masked
}
