package rewrite

import "testing"

func TestRemoveUnresolvedConditions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing condition removed with connector",
			input:    "SELECT * FROM sales WHERE date > 'X' AND region = '{{region}}'",
			expected: "SELECT * FROM sales WHERE date > 'X'",
		},
		{
			name:     "leading condition replaced by tautology",
			input:    "SELECT * FROM sales WHERE region = '{{region}}' AND date > 'X'",
			expected: "SELECT * FROM sales WHERE 1=1 AND date > 'X'",
		},
		{
			name:     "sole condition replaced by tautology",
			input:    "SELECT * FROM sales WHERE region = '{{region}}' ORDER BY date",
			expected: "SELECT * FROM sales WHERE 1=1 ORDER BY date",
		},
		{
			name:     "unquoted comparison",
			input:    "WHERE amount > {{min_amount}} AND status = 'open'",
			expected: "WHERE 1=1 AND status = 'open'",
		},
		{
			name:     "all operators",
			input:    "WHERE a = 'x' AND b != '{{b}}' AND c <> '{{c}}' AND d <= '{{d}}' AND e >= {{e}}",
			expected: "WHERE a = 'x'",
		},
		{
			name:     "IN list",
			input:    "WHERE status IN ('{{statuses}}') AND x = 1",
			expected: "WHERE 1=1 AND x = 1",
		},
		{
			name:     "NOT IN list",
			input:    "WHERE x = 1 AND status NOT IN ({{statuses}})",
			expected: "WHERE x = 1",
		},
		{
			name:     "LIKE with wildcards",
			input:    "WHERE x = 1 AND name LIKE '%{{q}}%'",
			expected: "WHERE x = 1",
		},
		{
			name:     "NOT LIKE",
			input:    "WHERE x = 1 AND name NOT LIKE '%{{q}}%'",
			expected: "WHERE x = 1",
		},
		{
			name:     "BETWEEN consumes its own AND",
			input:    "WHERE d BETWEEN '{{from}}' AND '{{to}}' AND region = 'EMEA'",
			expected: "WHERE 1=1 AND region = 'EMEA'",
		},
		{
			name:     "table-qualified column",
			input:    "WHERE o.total > 10 AND o.region = '{{region}}'",
			expected: "WHERE o.total > 10",
		},
		{
			name:     "OR connector",
			input:    "WHERE a = 1 OR b = '{{b}}'",
			expected: "WHERE a = 1",
		},
		{
			name:     "two unresolved conditions",
			input:    "WHERE a = '{{a}}' AND b = '{{b}}' AND c = 1",
			expected: "WHERE 1=1 AND c = 1",
		},
		{
			name:     "resolved conditions never touched",
			input:    "WHERE region = 'EMEA' AND date > '2024-01-01'",
			expected: "WHERE region = 'EMEA' AND date > '2024-01-01'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveUnresolvedConditions(tt.input)
			if got != tt.expected {
				t.Errorf("got  %q\nwant %q", got, tt.expected)
			}
		})
	}
}
