// Package rewrite implements the legacy placeholder ladder: three strictly
// more aggressive text transforms that together guarantee no {{name}} token
// survives into executed SQL. The ladder only runs for templates that carry
// placeholders but no filter metadata; templates with metadata go through
// parameter binding instead and never reach this package.
//
// Each stage is a pure string -> string transform so new patterns can be
// added to one stage without destabilizing the others.
package rewrite

import (
	"strings"

	"github.com/panelize-ai/panelize-engine/pkg/models"
	sqlsafe "github.com/panelize-ai/panelize-engine/pkg/sql"
)

// InjectFilterParams is stage one: replace every {{key}} whose key has a
// supplied value, doubling embedded quotes so the value cannot escape its
// enclosing literal. Unmatched keys are left untouched for later stages.
//
// List values join as 'a','b' fragments (sans outer quotes, which the
// template supplies). Range values span two tokens and cannot fill a single
// placeholder; they are left for the removal stages.
func InjectFilterParams(sqlText string, values models.FilterValues) string {
	return sqlsafe.ReplacePlaceholders(sqlText, func(key string) (string, bool) {
		value, ok := values.Get(key)
		if !ok {
			return "", false
		}
		switch value.Kind {
		case models.KindScalar:
			return escapeQuotes(value.Scalar), true
		case models.KindList:
			escaped := make([]string, len(value.List))
			for i, item := range value.List {
				escaped[i] = escapeQuotes(item)
			}
			return strings.Join(escaped, "','"), true
		default:
			return "", false
		}
	})
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
