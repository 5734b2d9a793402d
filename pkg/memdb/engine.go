package memdb

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Result is the row set a query produced. Rows are keyed by output column
// name (the alias when one was given).
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Supported grammar:
//
//	SELECT <cols|*|aggregates> FROM <table>
//	  [WHERE <cond> [AND <cond>]*]
//	  [ORDER BY <col> [ASC|DESC]]
//	  [LIMIT <n>]
//
// Anything beyond it raises UnsupportedError or ParseError, never a wrong
// answer.
var (
	selectRegex  = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+([A-Za-z_]\w*)\s*(.*)$`)
	limitRegex   = regexp.MustCompile(`(?i)\s*\bLIMIT\s+(\d+)\s*$`)
	orderRegex   = regexp.MustCompile(`(?i)\s*\bORDER\s+BY\s+([A-Za-z_]\w*)(?:\s+(ASC|DESC))?\s*$`)
	whereRegex   = regexp.MustCompile(`(?is)^\s*WHERE\s+(.+)$`)
	groupByRegex = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	orRegex      = regexp.MustCompile(`(?i)\bOR\b`)
	andSplit     = regexp.MustCompile(`(?i)\s+AND\s+`)

	condRegex      = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)\s*(>=|<=|<>|!=|=|>|<|\bLIKE\b)\s*(.+?)\s*$`)
	aggregateRegex = regexp.MustCompile(`(?i)^(COUNT|SUM|AVG|MIN|MAX)\s*\(\s*(\*|[A-Za-z_]\w*)\s*\)(?:\s+AS\s+([A-Za-z_]\w*))?$`)
	columnRegex    = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)(?:\s+AS\s+([A-Za-z_]\w*))?$`)
)

// Query parses and executes one SELECT against the store.
func (s *Store) Query(sqlText string) (*Result, error) {
	sqlText = strings.TrimRight(strings.TrimSpace(sqlText), ";")

	if groupByRegex.MatchString(sqlText) {
		return nil, &UnsupportedError{Feature: "GROUP BY"}
	}

	m := selectRegex.FindStringSubmatch(sqlText)
	if m == nil {
		return nil, &ParseError{Detail: "expected SELECT ... FROM <table>"}
	}
	selectList, tableName, tail := m[1], m[2], m[3]

	table, err := s.Get(tableName)
	if err != nil {
		return nil, err
	}

	limit := -1
	if lm := limitRegex.FindStringSubmatch(tail); lm != nil {
		limit, _ = strconv.Atoi(lm[1])
		tail = tail[:limitRegex.FindStringIndex(tail)[0]]
	}

	orderCol, orderDesc := "", false
	if om := orderRegex.FindStringSubmatch(tail); om != nil {
		orderCol = om[1]
		orderDesc = strings.EqualFold(om[2], "DESC")
		tail = tail[:orderRegex.FindStringIndex(tail)[0]]
	}

	var conds []condition
	if rest := strings.TrimSpace(tail); rest != "" {
		wm := whereRegex.FindStringSubmatch(rest)
		if wm == nil {
			return nil, &ParseError{Detail: fmt.Sprintf("unexpected trailing clause %q", rest)}
		}
		conds, err = parseWhere(wm[1], table)
		if err != nil {
			return nil, err
		}
	}

	rows := filterRows(table, conds)

	if isAggregateList(selectList) {
		return aggregate(selectList, table, rows)
	}

	if orderCol != "" {
		resolved, ok := resolveColumn(table, orderCol)
		if !ok {
			return nil, &UnknownColumnError{Column: orderCol, Table: table.Name}
		}
		orderRows(rows, resolved, orderDesc)
	}
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	return project(selectList, table, rows)
}

type condition struct {
	column   string
	operator string
	value    any
}

func parseWhere(clause string, table *Table) ([]condition, error) {
	if strings.ContainsAny(clause, "()") {
		return nil, &UnsupportedError{Feature: "parentheses in WHERE"}
	}
	if orRegex.MatchString(stripQuoted(clause)) {
		return nil, &UnsupportedError{Feature: "OR in WHERE"}
	}

	var conds []condition
	for _, part := range andSplit.Split(clause, -1) {
		cm := condRegex.FindStringSubmatch(strings.TrimSpace(part))
		if cm == nil {
			return nil, &ParseError{Detail: fmt.Sprintf("cannot parse condition %q", strings.TrimSpace(part))}
		}
		column, ok := resolveColumn(table, cm[1])
		if !ok {
			return nil, &UnknownColumnError{Column: cm[1], Table: table.Name}
		}
		value, err := parseLiteral(cm[3])
		if err != nil {
			return nil, err
		}
		conds = append(conds, condition{
			column:   column,
			operator: strings.ToUpper(strings.TrimSpace(cm[2])),
			value:    value,
		})
	}
	return conds, nil
}

// stripQuoted blanks out string literals so keyword scans cannot trip on
// values like 'OR gate'.
func stripQuoted(s string) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inString = !inString
			b.WriteByte(' ')
		case inString:
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func parseLiteral(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") && len(raw) >= 2:
		return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'"), nil
	case strings.EqualFold(raw, "NULL"):
		return nil, nil
	case strings.EqualFold(raw, "TRUE"):
		return true, nil
	case strings.EqualFold(raw, "FALSE"):
		return false, nil
	default:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return nil, &ParseError{Detail: fmt.Sprintf("cannot parse literal %q", raw)}
	}
}

func filterRows(table *Table, conds []condition) []map[string]any {
	if len(conds) == 0 {
		out := make([]map[string]any, len(table.Rows))
		copy(out, table.Rows)
		return out
	}

	var out []map[string]any
	for _, row := range table.Rows {
		keep := true
		for _, c := range conds {
			if !evaluate(row[c.column], c.operator, c.value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func evaluate(rowValue any, operator string, literal any) bool {
	if rowValue == nil || literal == nil {
		return false
	}

	if operator == "LIKE" {
		pattern, ok := literal.(string)
		if !ok {
			return false
		}
		return likeMatch(asString(rowValue), pattern)
	}

	cmp, comparable := compare(rowValue, literal)
	if !comparable {
		return operator == "!=" || operator == "<>"
	}
	switch operator {
	case "=":
		return cmp == 0
	case "!=", "<>":
		return cmp != 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	default:
		return false
	}
}

// compare orders two values numerically when both coerce to numbers, as
// booleans when both are bools, else as strings.
func compare(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if ab, ok := a.(bool); ok {
		bb, bok := b.(bool)
		if !bok {
			return 0, false
		}
		if ab == bb {
			return 0, true
		}
		if !ab {
			return -1, true
		}
		return 1, true
	}
	return strings.Compare(asString(a), asString(b)), true
}

func likeMatch(value, pattern string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, part := range strings.Split(pattern, "%") {
		if part != "" {
			b.WriteString(regexp.QuoteMeta(part))
		}
		b.WriteString(".*")
	}
	expr := strings.TrimSuffix(b.String(), ".*") + "$"
	if strings.HasSuffix(pattern, "%") {
		expr = b.String() + "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func orderRows(rows []map[string]any, column string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][column], rows[j][column]
		if a == nil {
			return !desc
		}
		if b == nil {
			return desc
		}
		cmp, ok := compare(a, b)
		if !ok {
			cmp = strings.Compare(asString(a), asString(b))
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func project(selectList string, table *Table, rows []map[string]any) (*Result, error) {
	type outputColumn struct {
		source string
		name   string
	}

	var outputs []outputColumn
	if strings.TrimSpace(selectList) == "*" {
		for _, name := range table.ColumnNames() {
			outputs = append(outputs, outputColumn{source: name, name: name})
		}
	} else {
		for _, item := range strings.Split(selectList, ",") {
			item = strings.TrimSpace(item)
			if matched, _ := regexp.MatchString(`(?i)^DISTINCT\b`, item); matched {
				return nil, &UnsupportedError{Feature: "DISTINCT"}
			}
			cm := columnRegex.FindStringSubmatch(item)
			if cm == nil {
				return nil, &ParseError{Detail: fmt.Sprintf("cannot parse select item %q", item)}
			}
			source, ok := resolveColumn(table, cm[1])
			if !ok {
				return nil, &UnknownColumnError{Column: cm[1], Table: table.Name}
			}
			name := cm[2]
			if name == "" {
				name = source
			}
			outputs = append(outputs, outputColumn{source: source, name: name})
		}
	}

	result := &Result{Columns: make([]string, len(outputs))}
	for i, out := range outputs {
		result.Columns[i] = out.name
	}
	result.Rows = make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		projected := make(map[string]any, len(outputs))
		for _, out := range outputs {
			projected[out.name] = row[out.source]
		}
		result.Rows = append(result.Rows, projected)
	}
	return result, nil
}

func isAggregateList(selectList string) bool {
	for _, item := range strings.Split(selectList, ",") {
		if aggregateRegex.MatchString(strings.TrimSpace(item)) {
			return true
		}
	}
	return false
}

func aggregate(selectList string, table *Table, rows []map[string]any) (*Result, error) {
	row := make(map[string]any)
	var columns []string

	for _, item := range strings.Split(selectList, ",") {
		item = strings.TrimSpace(item)
		am := aggregateRegex.FindStringSubmatch(item)
		if am == nil {
			return nil, &UnsupportedError{Feature: "mixing aggregates with plain columns"}
		}
		fn, arg, alias := strings.ToUpper(am[1]), am[2], am[3]

		source := ""
		if arg != "*" {
			resolved, ok := resolveColumn(table, arg)
			if !ok {
				return nil, &UnknownColumnError{Column: arg, Table: table.Name}
			}
			source = resolved
		} else if fn != "COUNT" {
			return nil, &ParseError{Detail: fmt.Sprintf("%s(*) is not valid", fn)}
		}

		value, err := computeAggregate(fn, source, rows)
		if err != nil {
			return nil, err
		}

		name := alias
		if name == "" {
			name = strings.ToLower(item)
		}
		columns = append(columns, name)
		row[name] = value
	}

	return &Result{Columns: columns, Rows: []map[string]any{row}}, nil
}

func computeAggregate(fn, column string, rows []map[string]any) (any, error) {
	if fn == "COUNT" {
		if column == "" {
			return float64(len(rows)), nil
		}
		n := 0
		for _, row := range rows {
			if row[column] != nil {
				n++
			}
		}
		return float64(n), nil
	}

	var sum float64
	var count int
	var minVal, maxVal any
	for _, row := range rows {
		v := row[column]
		if v == nil {
			continue
		}
		if fn == "SUM" || fn == "AVG" {
			f, ok := toFloat(v)
			if !ok {
				return nil, &ParseError{Detail: fmt.Sprintf("%s over non-numeric column %q", fn, column)}
			}
			sum += f
		}
		if minVal == nil {
			minVal, maxVal = v, v
		} else {
			if cmp, ok := compare(v, minVal); ok && cmp < 0 {
				minVal = v
			}
			if cmp, ok := compare(v, maxVal); ok && cmp > 0 {
				maxVal = v
			}
		}
		count++
	}

	switch fn {
	case "SUM":
		return sum, nil
	case "AVG":
		if count == 0 {
			return nil, nil
		}
		return sum / float64(count), nil
	case "MIN":
		return minVal, nil
	case "MAX":
		return maxVal, nil
	default:
		return nil, &ParseError{Detail: "unknown aggregate " + fn}
	}
}

func resolveColumn(table *Table, name string) (string, bool) {
	for _, col := range table.Columns {
		if strings.EqualFold(col.Name, name) {
			return col.Name, true
		}
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
