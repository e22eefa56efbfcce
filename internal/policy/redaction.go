// Package policy scrubs user text before it leaves the process.
package policy

import "regexp"

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Order matters: card numbers would otherwise be caught by the phone rule, and key-shaped
// tokens by nothing at all.
var rules = []rule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:sk-[A-Za-z0-9_\-]{16,}|AIza[0-9A-Za-z_\-]{30,})\b`), "[REDACTED_KEY]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactPII masks common high-risk PII patterns and credential-shaped tokens.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range rules {
		next := r.pattern.ReplaceAllString(out, r.replacement)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// Redact is RedactPII without the change flag, for use as a plain text transform.
func Redact(input string) string {
	out, _ := RedactPII(input)
	return out
}
