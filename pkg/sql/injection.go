package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/panelize-ai/panelize-engine/pkg/models"
)

// InjectionCheckResult describes a filter value flagged as a SQL injection
// attempt.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	FilterKey   string // Filter key whose value failed the check
}

// CheckFilterValue scans every string component of an untrusted filter value
// (scalar, list elements, range ends) with libinjection. Returns nil if no
// injection pattern is detected.
//
// This runs before any strategy touches the value: bound parameters make
// injection inert anyway, but the legacy text-substitution path and the
// in-memory engine both inline values, so the check has to happen up front.
func CheckFilterValue(key string, value models.FilterValue) *InjectionCheckResult {
	for _, s := range value.Strings() {
		if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
			return &InjectionCheckResult{
				IsSQLi:      true,
				Fingerprint: string(fingerprint),
				FilterKey:   key,
			}
		}
	}
	return nil
}

// CheckFilterValues scans the named keys of a filter-value map. Keys absent
// from the map are skipped. Returns one result per flagged key.
func CheckFilterValues(values models.FilterValues, keys []string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, key := range keys {
		value, ok := values.Get(key)
		if !ok {
			continue
		}
		if result := CheckFilterValue(key, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
