package sql

import (
	"strings"
	"testing"
)

func TestValidate_AcceptedQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "simple select",
			input: "SELECT 1",
		},
		{
			name:  "select with trailing semicolon",
			input: "SELECT * FROM orders;",
		},
		{
			name:  "lowercase select",
			input: "select id, name from customers",
		},
		{
			name:  "leading whitespace",
			input: "   SELECT 1",
		},
		{
			name:  "joins and aggregates",
			input: "SELECT c.region, COUNT(*) AS n, SUM(o.total) FROM orders o JOIN customers c ON o.customer_id = c.id GROUP BY c.region ORDER BY n DESC",
		},
		{
			name:  "CTE",
			input: "WITH recent AS (SELECT * FROM orders WHERE order_date > '2024-01-01') SELECT region, COUNT(*) FROM recent GROUP BY region",
		},
		{
			name:  "select with like and between",
			input: "SELECT * FROM products WHERE name LIKE '%widget%' AND price BETWEEN 10 AND 20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(tt.input)
			if !verdict.Valid {
				t.Errorf("expected valid, got invalid: %s", verdict.Reason)
			}
		})
	}
}

func TestValidate_RejectedQueries(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "empty",
			input:  "",
			reason: "empty",
		},
		{
			name:   "whitespace only",
			input:  "   \n\t",
			reason: "empty",
		},
		{
			name:   "over length cap",
			input:  "SELECT " + strings.Repeat("x", MaxQueryLength),
			reason: "maximum length",
		},
		{
			name:   "insert statement",
			input:  "INSERT INTO users (name) VALUES ('x')",
			reason: "only SELECT and WITH",
		},
		{
			name:   "update statement",
			input:  "UPDATE users SET name = 'x'",
			reason: "only SELECT and WITH",
		},
		{
			name:   "stacked statements",
			input:  "SELECT 1; DROP TABLE users",
			reason: "multiple SQL statements",
		},
		{
			name:   "line comment",
			input:  "SELECT 1 -- hidden",
			reason: "comments",
		},
		{
			name:   "block comment",
			input:  "SELECT /* hidden */ 1",
			reason: "comments",
		},
		{
			name:   "delete inside CTE",
			input:  "WITH gone AS (DELETE FROM users RETURNING *) SELECT * FROM gone",
			reason: "disallowed keyword: DELETE",
		},
		{
			name:   "drop inside subquery",
			input:  "SELECT * FROM (SELECT 1) x WHERE EXISTS (SELECT DROP)",
			reason: "disallowed keyword: DROP",
		},
		{
			name:   "sleep function",
			input:  "SELECT SLEEP(10)",
			reason: "disallowed keyword: SLEEP",
		},
		{
			name:   "pg_sleep function",
			input:  "SELECT pg_sleep(10)",
			reason: "disallowed keyword: PG_SLEEP",
		},
		{
			name:   "file read",
			input:  "SELECT load_file('/etc/passwd')",
			reason: "disallowed keyword: LOAD_FILE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(tt.input)
			if verdict.Valid {
				t.Fatalf("expected invalid, got valid for %q", tt.input)
			}
			if !strings.Contains(verdict.Reason, tt.reason) {
				t.Errorf("reason %q does not contain %q", verdict.Reason, tt.reason)
			}
		})
	}
}

func TestValidate_KeywordsInsideIdentifiersAllowed(t *testing.T) {
	// updated_at contains "update" but not as a whole word.
	verdict := Validate("SELECT updated_at, created_at FROM orders")
	if !verdict.Valid {
		t.Errorf("expected valid, got: %s", verdict.Reason)
	}
}
