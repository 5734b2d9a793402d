package logging

import (
	"regexp"
)

const (
	// MaxSQLLogLength is the maximum length of SQL text to log.
	MaxSQLLogLength = 200
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// Matches potential passwords in connection strings:
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter).
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches connection string credentials (user:pass@host format).
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)

	// Matches single-quoted SQL string literals, including doubled-quote
	// escapes ('O''Brien').
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// RedactLiterals replaces every quoted string literal in SQL with '?'.
// Filter values reach SQL either as bound parameters (never in the text) or,
// for the in-memory engine, as inlined literals - so any literal in executed
// SQL is potentially an end-user value and must not be logged.
func RedactLiterals(sqlText string) string {
	return stringLiteralPattern.ReplaceAllString(sqlText, "'?'")
}

// SanitizeSQL prepares SQL text for logging: literals redacted, then
// truncated.
func SanitizeSQL(sqlText string) string {
	if sqlText == "" {
		return ""
	}
	sanitized := RedactLiterals(sqlText)
	if len(sanitized) > MaxSQLLogLength {
		sanitized = sanitized[:MaxSQLLogLength] + "..."
	}
	return sanitized
}

// SanitizeError sanitizes error messages before logging. Backend errors can
// echo connection strings and fragments of the offending SQL.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return RedactLiterals(sanitized)
}
