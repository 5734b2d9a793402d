package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
)

var markerRegex = regexp.MustCompile(`\$(\d+)`)

// InlineLiterals renders $N positional markers as SQL literals for backends
// without native parameter binding. Numbers stay numeric, booleans become
// TRUE/FALSE, nil becomes NULL, and everything textual (dates included) is
// single-quoted with embedded quotes doubled.
func InlineLiterals(sqlText string, params []any) (string, error) {
	var convErr error
	out := markerRegex.ReplaceAllStringFunc(sqlText, func(match string) string {
		n, err := strconv.Atoi(match[1:])
		if err != nil || n < 1 || n > len(params) {
			convErr = fmt.Errorf("%w: marker %s has no bound value", apperrors.ErrValidation, match)
			return match
		}
		return renderLiteral(params[n-1])
	})
	if convErr != nil {
		return "", convErr
	}
	return out, nil
}

func renderLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", t), "'", "''") + "'"
	}
}
