// Package sql provides SQL safety validation and placeholder utilities.
package sql

import (
	"regexp"
	"strings"
)

// MaxQueryLength is the hard cap on SQL text accepted for execution.
const MaxQueryLength = 5000

// Verdict is the tagged result of validating SQL text: Valid, or invalid
// with a reason. Verdicts are computed per query and discarded.
type Verdict struct {
	Valid  bool
	Reason string
}

func valid() Verdict {
	return Verdict{Valid: true}
}

func invalid(reason string) Verdict {
	return Verdict{Valid: false, Reason: reason}
}

// denyPattern matches side-effecting or disclosure keywords as whole words
// anywhere in the text, so they are caught inside CTEs and subqueries, not
// only as the first token.
var denyPattern = regexp.MustCompile(`(?i)\b(` +
	`insert|update|delete|merge|upsert|` +
	`create|alter|drop|truncate|rename|` +
	`grant|revoke|` +
	`exec|execute|call|` +
	`sleep|pg_sleep|benchmark|waitfor|` +
	`load_file|outfile|dumpfile|pg_read_file|copy` +
	`)\b`)

// Validate classifies raw SQL text as safe to execute or not. This is a
// static allowlist/denylist check, not a parser - it fails closed on
// anything ambiguous. Accepted SQL starts with SELECT or WITH and contains
// no statement separators, comment markers, or denied keywords.
func Validate(sqlText string) Verdict {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return invalid("SQL text is empty")
	}
	if len(trimmed) > MaxQueryLength {
		return invalid("SQL text exceeds maximum length")
	}

	// A single trailing semicolon is harmless; any other semicolon means a
	// second statement may follow. No attempt is made to honor semicolons
	// inside string literals - fail closed.
	normalized := strings.TrimRight(trimmed, " \t\n\r")
	normalized = strings.TrimSuffix(normalized, ";")
	if strings.Contains(normalized, ";") {
		return invalid("multiple SQL statements are not allowed")
	}

	if strings.Contains(normalized, "--") {
		return invalid("SQL comments (--) are not allowed")
	}
	if strings.Contains(normalized, "/*") || strings.Contains(normalized, "*/") {
		return invalid("SQL comments (/* */) are not allowed")
	}

	firstKeyword := strings.ToUpper(firstToken(normalized))
	if firstKeyword != "SELECT" && firstKeyword != "WITH" {
		return invalid("only SELECT and WITH statements are allowed")
	}

	if match := denyPattern.FindString(normalized); match != "" {
		return invalid("disallowed keyword: " + strings.ToUpper(match))
	}

	return valid()
}

func firstToken(sqlText string) string {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return ""
	}
	// Strip an opening parenthesis so "(SELECT ..." classifies by keyword.
	return strings.TrimLeft(fields[0], "(")
}
