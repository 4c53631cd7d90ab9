// Package privacy keeps applicant PII out of logs, audit records, and error
// messages. Identifiers are referenced by a short hash; free text passes
// through pattern redaction before it leaves the service.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// HashPII returns a short stable digest of an identifier so records can be
// correlated without storing the identifier itself. Empty input hashes to
// the literal "none" so absent values are visible in the trail.
func HashPII(value string) string {
	if value == "" {
		return "none"
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:16]
}

// piiFields names the extraction fields whose values must never appear in
// logs verbatim.
var piiFields = map[string]struct{}{
	"name":    {},
	"dob":     {},
	"address": {},
	"email":   {},
	"phone":   {},
	"ssn":     {},
}

// SanitizeFields replaces PII field values with their hashes, passing
// non-PII fields through unchanged.
func SanitizeFields(fields map[string]string) map[string]string {
	sanitized := make(map[string]string, len(fields))
	for key, value := range fields {
		if _, sensitive := piiFields[key]; sensitive {
			sanitized[key] = HashPII(value)
		} else {
			sanitized[key] = value
		}
	}
	return sanitized
}

var redactPatterns = []*regexp.Regexp{
	// Email addresses.
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	// US social security numbers.
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	// Phone numbers with optional separators.
	regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`),
	// ISO and US-style dates, which are almost always dates of birth here.
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
}

// Redact masks recognizable PII patterns in free text. Used on error
// messages before they are stored in the audit trail.
func Redact(text string) string {
	for _, pattern := range redactPatterns {
		text = pattern.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}
