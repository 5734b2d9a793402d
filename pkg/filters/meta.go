// Package filters turns typed filter descriptors and untrusted filter
// values into parameterized SQL. Explicit metadata (authored alongside the
// template) is the trusted path; auto-inference is the best-effort fallback
// when no metadata exists.
package filters

import (
	"fmt"
	"regexp"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
	"github.com/panelize-ai/panelize-engine/pkg/models"
)

// identifierRegex is the conservative allow-list for column names in filter
// metadata: letters, digits, underscore, one optional qualifying dot. Column
// names are spliced into SQL text verbatim, so anything outside this shape
// is a parameter-position injection vector.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateFilterMeta checks every binding before any of them touches SQL.
// A single bad binding rejects the whole set: broken metadata is a
// template-authoring bug, not a user error, and must not degrade silently.
func ValidateFilterMeta(bindings []models.FilterBinding) error {
	for i, b := range bindings {
		if b.FilterKey == "" {
			return fmt.Errorf("%w: binding %d has empty filter key", apperrors.ErrInvalidFilterMeta, i)
		}
		if !identifierRegex.MatchString(b.Column) {
			return fmt.Errorf("%w: binding %q has unsafe column name %q", apperrors.ErrInvalidFilterMeta, b.FilterKey, b.Column)
		}
		if err := validateOperator(b); err != nil {
			return err
		}
	}
	return nil
}

func validateOperator(b models.FilterBinding) error {
	switch b.Operator {
	case models.OperatorEq, models.OperatorIn:
		// Any value type compares for equality or membership.
	case models.OperatorLike:
		if b.ValueType != models.ValueTypeString {
			return fmt.Errorf("%w: binding %q uses LIKE with non-string type %q", apperrors.ErrInvalidFilterMeta, b.FilterKey, b.ValueType)
		}
	case models.OperatorRange:
		if b.ValueType == models.ValueTypeBoolean {
			return fmt.Errorf("%w: binding %q uses range with boolean type", apperrors.ErrInvalidFilterMeta, b.FilterKey)
		}
	default:
		return fmt.Errorf("%w: binding %q has unknown operator %q", apperrors.ErrInvalidFilterMeta, b.FilterKey, b.Operator)
	}

	switch b.ValueType {
	case models.ValueTypeString, models.ValueTypeInteger, models.ValueTypeDecimal,
		models.ValueTypeBoolean, models.ValueTypeDate, models.ValueTypeTimestamp:
		return nil
	default:
		return fmt.Errorf("%w: binding %q has unknown value type %q", apperrors.ErrInvalidFilterMeta, b.FilterKey, b.ValueType)
	}
}
