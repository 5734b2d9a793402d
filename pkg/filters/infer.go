package filters

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/panelize-ai/panelize-engine/pkg/models"
)

// columnSynonyms maps common filter-key spellings to the column names they
// usually mean. Checked after exact and case-insensitive matching.
var columnSynonyms = map[string][]string{
	"date":     {"created_at", "created", "timestamp", "event_date", "order_date"},
	"from":     {"created_at", "start_date"},
	"to":       {"created_at", "end_date"},
	"user":     {"user_id", "username"},
	"customer": {"customer_id", "customer_name"},
	"status":   {"state"},
	"type":     {"kind", "category"},
}

var keyIdentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// InferBindings matches filter keys against the known columns of the queried
// table and returns synthetic bindings in the shape BuildParameterized
// expects. Matching is best-effort: exact, then case-insensitive, then
// synonyms, then singular/plural variants. Keys that match nothing are
// skipped. When the column set is unknown (a real backend we hold no schema
// for), an identifier-shaped key is optimistically bound to itself; the
// orchestrator's unknown-column retry covers the miss.
func InferBindings(values models.FilterValues, columns []string) []models.FilterBinding {
	byFold := make(map[string]string, len(columns))
	for _, col := range columns {
		byFold[strings.ToLower(col)] = col
	}

	var bindings []models.FilterBinding
	for key, value := range values {
		if value.IsEmpty() {
			continue
		}
		column, ok := matchColumn(key, columns, byFold)
		if !ok {
			continue
		}
		bindings = append(bindings, models.FilterBinding{
			FilterKey: key,
			Column:    column,
			Operator:  operatorForKind(value.Kind),
			ValueType: inferValueType(value),
		})
	}
	// Map iteration order would otherwise leak into the generated SQL.
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].FilterKey < bindings[j].FilterKey })
	return bindings
}

func matchColumn(key string, columns []string, byFold map[string]string) (string, bool) {
	if len(columns) == 0 {
		if keyIdentRegex.MatchString(key) {
			return strings.ToLower(key), true
		}
		return "", false
	}

	fold := strings.ToLower(key)
	if col, ok := byFold[fold]; ok {
		return col, true
	}
	for _, candidate := range columnSynonyms[fold] {
		if col, ok := byFold[candidate]; ok {
			return col, true
		}
	}
	if col, ok := byFold[inflection.Singular(fold)]; ok {
		return col, true
	}
	if col, ok := byFold[inflection.Plural(fold)]; ok {
		return col, true
	}
	return "", false
}

func operatorForKind(kind models.FilterValueKind) models.FilterOperator {
	switch kind {
	case models.KindList:
		return models.OperatorIn
	case models.KindRange:
		return models.OperatorRange
	default:
		return models.OperatorEq
	}
}

var (
	integerRegex = regexp.MustCompile(`^-?\d+$`)
	decimalRegex = regexp.MustCompile(`^-?\d+\.\d+$`)
	dateRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// inferValueType guesses a declared type from the value text alone. Wrong
// guesses degrade to string, which every backend accepts with a cast.
func inferValueType(value models.FilterValue) models.FilterValueType {
	samples := value.Strings()
	if len(samples) == 0 {
		return models.ValueTypeString
	}

	inferred := inferScalarType(samples[0])
	for _, s := range samples[1:] {
		if inferScalarType(s) != inferred {
			return models.ValueTypeString
		}
	}
	return inferred
}

func inferScalarType(s string) models.FilterValueType {
	switch {
	case integerRegex.MatchString(s):
		return models.ValueTypeInteger
	case decimalRegex.MatchString(s):
		return models.ValueTypeDecimal
	case s == "true" || s == "false":
		return models.ValueTypeBoolean
	case dateRegex.MatchString(s):
		return models.ValueTypeDate
	default:
		return models.ValueTypeString
	}
}
