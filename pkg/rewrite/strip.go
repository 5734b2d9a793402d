package rewrite

import (
	"regexp"
	"strings"
)

// Stage three is the catch-all for placeholders stage two could not excise:
// casts, CASE expressions, function-wrapped placeholders, LIMIT/OFFSET.
// Postcondition (hard invariant): zero {{...}} tokens remain. The stage
// favors "never leave a token, never break syntax" over preserving the
// query's original intent - by this point the filter was simply not
// supplied.

const (
	// DefaultLimit replaces an unresolved LIMIT placeholder.
	DefaultLimit = "1000"
	// DefaultOffset replaces an unresolved OFFSET placeholder.
	DefaultOffset = "0"
)

var (
	limitPhRe  = regexp.MustCompile(`(?i)\bLIMIT\s+'?` + phPat + `'?`)
	offsetPhRe = regexp.MustCompile(`(?i)\bOFFSET\s+'?` + phPat + `'?`)

	// Single-level CASE WHEN ... THEN ... ELSE ... END on one line.
	caseRe = regexp.MustCompile(`(?is)\bCASE\s+WHEN\s+(.+?)\s+THEN\s+(.+?)\s+ELSE\s+(.+?)\s+END\b`)

	// Guard shapes that test for an absent value: '{{x}}' = '' or
	// {{x}} IS NULL. With the placeholder unresolved, these are true.
	// The negative shapes (!=, <>) mean the opposite and must not match.
	emptinessGuardRe = regexp.MustCompile(`(?i)(?:(?:^|[^!<>])=\s*''|IS\s+NULL)`)

	// A placeholder wrapped in an explicit cast. The cast is stripped
	// rather than applied to NULL.
	castPhRe   = regexp.MustCompile(`(?i)\bCAST\s*\(\s*'?` + phPat + `'?\s+AS\s+\w+(?:\s*\(\s*\d+(?:\s*,\s*\d+)?\s*\))?\s*\)`)
	suffixCast = regexp.MustCompile(`'?` + phPat + `'?::\w+(?:\s*\(\s*\d+(?:\s*,\s*\d+)?\s*\))?`)

	// A placeholder inside a quoted literal, possibly with surrounding text.
	quotedPhRe = regexp.MustCompile(`'[^']*` + phPat + `[^']*'`)
	// Any bare placeholder still standing.
	barePhRe = regexp.MustCompile(phPat)

	// Vestige cleanup after branch collapsing.
	andTrueRe      = regexp.MustCompile(`(?i)\s+AND\s+TRUE\b`)
	whereTrueAndRe = regexp.MustCompile(`(?i)\bWHERE\s+TRUE\s+AND\s+`)
)

// StripAllUnresolvedPlaceholders eliminates every remaining {{...}} token.
// It is idempotent: running it on its own output changes nothing.
func StripAllUnresolvedPlaceholders(sqlText string) string {
	out := limitPhRe.ReplaceAllString(sqlText, "LIMIT "+DefaultLimit)
	out = offsetPhRe.ReplaceAllString(out, "OFFSET "+DefaultOffset)

	out = collapseGuardedCases(out)

	// NULL must land unquoted and uncast: the keyword, never the string
	// 'NULL', and never CAST(NULL AS type).
	out = castPhRe.ReplaceAllString(out, "NULL")
	out = suffixCast.ReplaceAllString(out, "NULL")
	out = quotedPhRe.ReplaceAllString(out, "NULL")
	out = barePhRe.ReplaceAllString(out, "NULL")

	out = andTrueRe.ReplaceAllString(out, "")
	out = whereTrueAndRe.ReplaceAllString(out, "WHERE ")

	return out
}

// collapseGuardedCases folds CASE WHEN <guard> THEN x ELSE y END expressions
// whose guard still references a placeholder into the branch that is always
// taken once the filter is known to be absent. Two authored shapes are
// recognized:
//
//   - guard tests emptiness ('{{x}}' = '' or {{x}} IS NULL), else holds the
//     real comparison: the guard is true, keep THEN;
//   - guard tests the filter value itself, else TRUE: the guard cannot
//     hold, keep ELSE.
//
// A kept branch that itself still carries a placeholder degrades to TRUE.
func collapseGuardedCases(sqlText string) string {
	return caseRe.ReplaceAllStringFunc(sqlText, func(match string) string {
		parts := caseRe.FindStringSubmatch(match)
		guard, thenBranch, elseBranch := parts[1], parts[2], parts[3]

		if !strings.Contains(guard, "{{") {
			return match
		}

		branch := elseBranch
		if emptinessGuardRe.MatchString(guard) {
			branch = thenBranch
		}
		if strings.Contains(branch, "{{") {
			return "TRUE"
		}
		return branch
	})
}
