package rewrite

import "regexp"

// Stage two removes any self-contained WHERE condition that still carries a
// placeholder, together with its AND/OR connector. Conditions whose
// placeholders were resolved in stage one are never touched. When the removed
// condition was the first clause after WHERE, the tautology 1=1 keeps the
// clause syntactically valid.

const (
	// columnPat matches a bare or table-qualified column name.
	columnPat = `(?:[A-Za-z_]\w*\.)?[A-Za-z_]\w*`
	// phPat matches one unresolved placeholder token.
	phPat = `\{\{[^}]*\}\}`
)

// condPat matches one unresolved condition in its entirety: a column
// combined with BETWEEN, IN, LIKE, or a comparison operator whose right-hand
// side still contains a placeholder. BETWEEN comes first in the alternation
// so its internal AND is consumed as part of the condition.
var condPat = columnPat + `(?:` +
	`\s+BETWEEN\s+'?` + phPat + `'?\s+AND\s+'?` + phPat + `'?` +
	`|\s+(?:NOT\s+)?IN\s*\(\s*[^()]*` + phPat + `[^()]*\)` +
	`|\s+(?:NOT\s+)?LIKE\s+'[^']*` + phPat + `[^']*'` +
	`|\s*(?:=|!=|<>|<=|>=|<|>)\s*'[^']*` + phPat + `[^']*'` +
	`|\s*(?:=|!=|<>|<=|>=|<|>)\s*` + phPat +
	`)`

var (
	// An unresolved condition preceded by its connector.
	connectedCondRe = regexp.MustCompile(`(?i)\s+(?:AND|OR)\s+` + condPat)
	// An unresolved condition opening the WHERE clause, followed by more.
	leadingCondRe = regexp.MustCompile(`(?i)(WHERE\s+)` + condPat + `(\s+(?:AND|OR)\s+)`)
	// An unresolved condition that is the entire WHERE clause.
	soleCondRe = regexp.MustCompile(`(?i)(WHERE\s+)` + condPat)
)

// RemoveUnresolvedConditions deletes WHERE conditions that still contain
// {{...}} tokens. Anything this stage cannot recognize (nested parentheses,
// placeholders in CASE or function calls, LIMIT clauses) falls through to
// stage three.
func RemoveUnresolvedConditions(sqlText string) string {
	out := connectedCondRe.ReplaceAllString(sqlText, "")
	out = leadingCondRe.ReplaceAllString(out, "${1}1=1${2}")
	out = soleCondRe.ReplaceAllString(out, "${1}1=1")
	return out
}
