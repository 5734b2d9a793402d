package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
	"github.com/panelize-ai/panelize-engine/pkg/models"
)

var (
	// tailClauseRegex locates the first clause a spliced WHERE fragment must
	// precede.
	tailClauseRegex = regexp.MustCompile(`(?i)\b(GROUP\s+BY|ORDER\s+BY|LIMIT|OFFSET)\b`)
	whereRegex      = regexp.MustCompile(`(?i)\bWHERE\b`)
)

// BuildParameterized assembles a ParameterizedQuery from trusted filter
// bindings and untrusted filter values. Each matched binding contributes a
// WHERE fragment with $N positional markers; values land in Params in marker
// order and never in the SQL text. Bindings whose key has no usable value
// contribute nothing. Metadata is validated first, and any invalid binding
// fails the whole build.
func BuildParameterized(sqlText string, bindings []models.FilterBinding, values models.FilterValues) (models.ParameterizedQuery, error) {
	if err := ValidateFilterMeta(bindings); err != nil {
		return models.ParameterizedQuery{}, err
	}

	var fragments []string
	var params []any
	paramIndex := 1

	marker := func() string {
		m := fmt.Sprintf("$%d", paramIndex)
		paramIndex++
		return m
	}

	for _, b := range bindings {
		value, ok := values.Get(b.FilterKey)
		if !ok {
			continue
		}

		fragment, bound, err := buildFragment(b, value, marker)
		if err != nil {
			return models.ParameterizedQuery{}, err
		}
		if fragment == "" {
			// Value shape does not fit the binding (e.g. a partial range).
			// The filter simply does not apply.
			continue
		}
		fragments = append(fragments, fragment)
		params = append(params, bound...)
	}

	if len(fragments) == 0 {
		return models.ParameterizedQuery{SQL: sqlText, Params: nil}, nil
	}

	return models.ParameterizedQuery{
		SQL:    spliceWhere(sqlText, strings.Join(fragments, " AND ")),
		Params: params,
	}, nil
}

func buildFragment(b models.FilterBinding, value models.FilterValue, marker func() string) (string, []any, error) {
	switch b.Operator {
	case models.OperatorLike:
		if value.Kind != models.KindScalar {
			return "", nil, nil
		}
		v, err := convertValue(b, value.Scalar)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s LIKE %s", b.Column, marker()), []any{fmt.Sprintf("%%%v%%", v)}, nil

	case models.OperatorIn:
		items := value.List
		if value.Kind == models.KindScalar {
			items = []string{value.Scalar}
		}
		if len(items) == 0 {
			return "", nil, nil
		}
		return buildInFragment(b, items, marker)

	case models.OperatorRange:
		// A partial range filters nothing: emitting a single open-ended
		// comparison would change the query's meaning silently.
		if value.Kind != models.KindRange || !value.Range.IsComplete() {
			return "", nil, nil
		}
		from, err := convertValue(b, value.Range.From)
		if err != nil {
			return "", nil, err
		}
		to, err := convertValue(b, value.Range.To)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s >= %s AND %s <= %s", b.Column, marker(), b.Column, marker()), []any{from, to}, nil

	default: // OperatorEq
		switch value.Kind {
		case models.KindScalar:
			v, err := convertValue(b, value.Scalar)
			if err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("%s = %s", b.Column, marker()), []any{v}, nil
		case models.KindList:
			return buildInFragment(b, value.List, marker)
		default:
			return "", nil, nil
		}
	}
}

func buildInFragment(b models.FilterBinding, items []string, marker func() string) (string, []any, error) {
	markers := make([]string, 0, len(items))
	params := make([]any, 0, len(items))
	for _, item := range items {
		v, err := convertValue(b, item)
		if err != nil {
			return "", nil, err
		}
		markers = append(markers, marker())
		params = append(params, v)
	}
	return fmt.Sprintf("%s IN (%s)", b.Column, strings.Join(markers, ", ")), params, nil
}

// convertValue turns the wire string into the Go type matching the binding's
// declared value type, so drivers bind integers as integers rather than text.
func convertValue(b models.FilterBinding, raw string) (any, error) {
	switch b.ValueType {
	case models.ValueTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: filter %q: value is not a valid integer", apperrors.ErrValidation, b.FilterKey)
		}
		return n, nil
	case models.ValueTypeDecimal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: filter %q: value is not a valid decimal", apperrors.ErrValidation, b.FilterKey)
		}
		return f, nil
	case models.ValueTypeBoolean:
		t, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: filter %q: value is not a valid boolean", apperrors.ErrValidation, b.FilterKey)
		}
		return t, nil
	default:
		// string, date and timestamp stay textual; the backend casts.
		return raw, nil
	}
}

// spliceWhere inserts the assembled condition before any GROUP BY, ORDER BY,
// LIMIT or OFFSET clause, extending an existing WHERE with AND.
func spliceWhere(sqlText, condition string) string {
	connector := " WHERE "
	if whereRegex.MatchString(sqlText) {
		connector = " AND "
	}

	loc := tailClauseRegex.FindStringIndex(sqlText)
	if loc == nil {
		return strings.TrimRight(sqlText, " \t\n;") + connector + condition
	}
	head := strings.TrimRight(sqlText[:loc[0]], " \t\n")
	return head + connector + condition + " " + sqlText[loc[0]:]
}
