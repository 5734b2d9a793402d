package rewrite

import (
	"github.com/panelize-ai/panelize-engine/pkg/models"
	sqlsafe "github.com/panelize-ai/panelize-engine/pkg/sql"
)

// Apply runs the full ladder over a template: inject supplied values, remove
// conditions left unresolved, then strip whatever survives. Stages that have
// nothing left to do are skipped. The result carries no {{...}} tokens for
// any input the stages recognize; callers verify with
// sqlsafe.HasUnresolvedPlaceholders and treat residue as a bug to log
// loudly, not to repair.
func Apply(sqlText string, values models.FilterValues) string {
	out := InjectFilterParams(sqlText, values)
	if !sqlsafe.HasUnresolvedPlaceholders(out) {
		return out
	}
	out = RemoveUnresolvedConditions(out)
	if !sqlsafe.HasUnresolvedPlaceholders(out) {
		return out
	}
	return StripAllUnresolvedPlaceholders(out)
}
