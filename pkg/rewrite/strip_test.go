package rewrite

import (
	"strings"
	"testing"
)

func TestStripAllUnresolvedPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "quoted limit becomes numeric default",
			input:    "SELECT * FROM t LIMIT '{{limit}}'",
			expected: "SELECT * FROM t LIMIT 1000",
		},
		{
			name:     "unquoted limit and offset",
			input:    "SELECT * FROM t LIMIT {{limit}} OFFSET {{offset}}",
			expected: "SELECT * FROM t LIMIT 1000 OFFSET 0",
		},
		{
			name:     "emptiness-guarded case keeps then branch",
			input:    "SELECT * FROM t WHERE CASE WHEN '{{r}}' = '' THEN TRUE ELSE region = '{{r}}' END",
			expected: "SELECT * FROM t WHERE TRUE",
		},
		{
			name:     "is-null-guarded case keeps then branch",
			input:    "WHERE CASE WHEN {{r}} IS NULL THEN 1=1 ELSE region = '{{r}}' END",
			expected: "WHERE 1=1",
		},
		{
			name:     "filter-guarded case keeps else branch",
			input:    "WHERE CASE WHEN '{{r}}' = 'all' THEN TRUE ELSE FALSE END AND x = 1",
			expected: "WHERE FALSE AND x = 1",
		},
		{
			name:     "negated emptiness guard keeps else branch",
			input:    "WHERE CASE WHEN '{{r}}' != '' THEN region = '{{r}}' ELSE TRUE END AND x = 1",
			expected: "WHERE x = 1",
		},
		{
			name:     "cast stripped rather than applied to NULL",
			input:    "WHERE created_at > CAST('{{start}}' AS DATE)",
			expected: "WHERE created_at > NULL",
		},
		{
			name:     "suffix cast stripped",
			input:    "WHERE created_at > '{{start}}'::timestamp",
			expected: "WHERE created_at > NULL",
		},
		{
			name:     "quoted placeholder becomes unquoted NULL",
			input:    "SELECT COALESCE(note, '{{note}}') FROM t",
			expected: "SELECT COALESCE(note, NULL) FROM t",
		},
		{
			name:     "bare placeholder inside function call",
			input:    "WHERE d > DATE_SUB(NOW(), {{days}})",
			expected: "WHERE d > DATE_SUB(NOW(), NULL)",
		},
		{
			name:     "where true and vestige cleaned",
			input:    "SELECT * FROM t WHERE TRUE AND x = {{x}} AND TRUE",
			expected: "SELECT * FROM t WHERE x = NULL",
		},
		{
			name:     "no placeholders is a no-op",
			input:    "SELECT * FROM t WHERE x = 1",
			expected: "SELECT * FROM t WHERE x = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripAllUnresolvedPlaceholders(tt.input)
			if got != tt.expected {
				t.Errorf("got  %q\nwant %q", got, tt.expected)
			}
			if strings.Contains(got, "{{") {
				t.Errorf("output still contains a placeholder: %q", got)
			}
		})
	}
}

func TestStripIsIdempotent(t *testing.T) {
	inputs := []string{
		"SELECT * FROM t LIMIT '{{limit}}'",
		"WHERE CASE WHEN '{{r}}' = '' THEN TRUE ELSE region = '{{r}}' END",
		"WHERE x = CAST('{{v}}' AS INT) AND y = {{y}}",
		"SELECT * FROM t WHERE x = 1 ORDER BY x",
	}

	for _, input := range inputs {
		once := StripAllUnresolvedPlaceholders(input)
		twice := StripAllUnresolvedPlaceholders(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\nonce  %q\ntwice %q", input, once, twice)
		}
	}
}
