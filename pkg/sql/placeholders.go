package sql

import "regexp"

// placeholderRegex matches {{name}} placeholders in SQL templates. The name
// is deliberately permissive - any run of non-'}' characters - because the
// authoring agent occasionally emits keys with spaces or dots. A stray
// unescaped '}' inside a key truncates the match; that is a known
// limitation of the syntax, not of this matcher.
var placeholderRegex = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// ExtractPlaceholders finds all {{name}} placeholders in SQL and returns a
// deduplicated list of keys in order of first appearance.
func ExtractPlaceholders(sqlText string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(sqlText, -1)
	seen := make(map[string]bool)
	var keys []string

	for _, match := range matches {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			keys = append(keys, name)
		}
	}

	return keys
}

// ReplacePlaceholders substitutes each {{name}} token using fn. Tokens for
// which fn returns false are left untouched.
func ReplacePlaceholders(sqlText string, fn func(key string) (string, bool)) string {
	return placeholderRegex.ReplaceAllStringFunc(sqlText, func(match string) string {
		key := placeholderRegex.FindStringSubmatch(match)[1]
		if replacement, ok := fn(key); ok {
			return replacement
		}
		return match
	})
}

// HasUnresolvedPlaceholders reports whether any {{name}} token remains.
func HasUnresolvedPlaceholders(sqlText string) bool {
	return placeholderRegex.MatchString(sqlText)
}

// PlaceholdersInStringLiterals returns the keys of placeholders that appear
// inside single-quoted string literals. These still resolve through the
// legacy text-substitution path, but they can never become bound parameters,
// so callers log them as template-authoring smells.
func PlaceholdersInStringLiterals(sqlText string) []string {
	var found []string
	seen := make(map[string]bool)

	inString := false
	stringStart := 0
	i := 0

	for i < len(sqlText) {
		if sqlText[i] == '\'' {
			if inString {
				// Doubled quote is an escape, not a terminator.
				if i+1 < len(sqlText) && sqlText[i+1] == '\'' {
					i += 2
					continue
				}
				content := sqlText[stringStart+1 : i]
				for _, match := range placeholderRegex.FindAllStringSubmatch(content, -1) {
					name := match[1]
					if !seen[name] {
						seen[name] = true
						found = append(found, name)
					}
				}
				inString = false
			} else {
				inString = true
				stringStart = i
			}
		}
		i++
	}

	return found
}
