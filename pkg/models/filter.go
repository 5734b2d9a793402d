package models

import (
	"encoding/json"
	"fmt"

	"github.com/panelize-ai/panelize-engine/pkg/jsonutil"
)

// FilterOperator describes how a filter key is combined with its column.
type FilterOperator string

const (
	OperatorEq    FilterOperator = "eq"
	OperatorRange FilterOperator = "range"
	OperatorIn    FilterOperator = "in"
	OperatorLike  FilterOperator = "like"
)

// FilterValueType is the declared type of a filter's values.
type FilterValueType string

const (
	ValueTypeString    FilterValueType = "string"
	ValueTypeInteger   FilterValueType = "integer"
	ValueTypeDecimal   FilterValueType = "decimal"
	ValueTypeBoolean   FilterValueType = "boolean"
	ValueTypeDate      FilterValueType = "date"
	ValueTypeTimestamp FilterValueType = "timestamp"
)

// FilterBinding maps a filter key to a SQL column and operator. Bindings are
// authored alongside the template (trusted metadata), not supplied by end users.
type FilterBinding struct {
	FilterKey string          `json:"filter_key"`
	Column    string          `json:"column"`
	Operator  FilterOperator  `json:"operator"`
	ValueType FilterValueType `json:"value_type"`
}

// FilterRange is a from/to pair for range filters. Either end may be empty.
type FilterRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// IsComplete reports whether both ends of the range are present.
func (r FilterRange) IsComplete() bool {
	return r.From != "" && r.To != ""
}

// FilterValueKind discriminates the shape of a supplied filter value.
type FilterValueKind int

const (
	KindNone FilterValueKind = iota
	KindScalar
	KindList
	KindRange
)

// FilterValue is a single untrusted filter value supplied at request time.
// It is a scalar string, a list of strings, or a from/to range.
type FilterValue struct {
	Kind   FilterValueKind
	Scalar string
	List   []string
	Range  FilterRange
}

// NewScalar wraps a scalar filter value.
func NewScalar(s string) FilterValue {
	return FilterValue{Kind: KindScalar, Scalar: s}
}

// NewList wraps a list filter value.
func NewList(items ...string) FilterValue {
	return FilterValue{Kind: KindList, List: items}
}

// NewRange wraps a from/to filter value.
func NewRange(from, to string) FilterValue {
	return FilterValue{Kind: KindRange, Range: FilterRange{From: from, To: to}}
}

// IsEmpty reports whether the value carries nothing usable.
func (v FilterValue) IsEmpty() bool {
	switch v.Kind {
	case KindScalar:
		return v.Scalar == ""
	case KindList:
		return len(v.List) == 0
	case KindRange:
		return v.Range.From == "" && v.Range.To == ""
	default:
		return true
	}
}

// Strings returns every string component of the value. Used by the injection
// scanner, which must see list elements and range ends individually.
func (v FilterValue) Strings() []string {
	switch v.Kind {
	case KindScalar:
		return []string{v.Scalar}
	case KindList:
		return v.List
	case KindRange:
		var out []string
		if v.Range.From != "" {
			out = append(out, v.Range.From)
		}
		if v.Range.To != "" {
			out = append(out, v.Range.To)
		}
		return out
	default:
		return nil
	}
}

// UnmarshalJSON accepts the three wire shapes a filter value may take:
// a JSON array, an object with from/to, or a scalar. Scalars that arrive
// as numbers or booleans are normalized to strings.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*v = FilterValue{}
		return nil
	}

	switch raw[0] {
	case '[':
		*v = FilterValue{Kind: KindList, List: jsonutil.FlexibleStringSlice(raw)}
		return nil
	case '{':
		var obj struct {
			From json.RawMessage `json:"from"`
			To   json.RawMessage `json:"to"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("filter value range: %w", err)
		}
		*v = FilterValue{Kind: KindRange, Range: FilterRange{
			From: jsonutil.FlexibleStringValue(obj.From),
			To:   jsonutil.FlexibleStringValue(obj.To),
		}}
		return nil
	default:
		*v = FilterValue{Kind: KindScalar, Scalar: jsonutil.FlexibleStringValue(raw)}
		return nil
	}
}

// MarshalJSON emits the same wire shape the value was decoded from.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindList:
		return json.Marshal(v.List)
	case KindRange:
		return json.Marshal(v.Range)
	case KindScalar:
		return json.Marshal(v.Scalar)
	default:
		return []byte("null"), nil
	}
}

// FilterValues is the untrusted filter-key → value map for one batch request.
type FilterValues map[string]FilterValue

// HasAny reports whether at least one non-empty value is present.
func (fv FilterValues) HasAny() bool {
	for _, v := range fv {
		if !v.IsEmpty() {
			return true
		}
	}
	return false
}

// Get returns the value for key and whether it is present and non-empty.
func (fv FilterValues) Get(key string) (FilterValue, bool) {
	v, ok := fv[key]
	if !ok || v.IsEmpty() {
		return FilterValue{}, false
	}
	return v, true
}
