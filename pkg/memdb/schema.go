package memdb

import (
	"encoding/json"
	"sort"
)

// inferSchema derives column schemas from row data. A column is numeric when
// every non-null value is numeric, boolean when every non-null value is a
// bool, otherwise text. A column is nullable when any row lacks it or holds
// null. Columns are reported in sorted name order since row maps carry no
// order of their own.
func inferSchema(rows []map[string]any) []ColumnSchema {
	type acc struct {
		nonNull  int
		numeric  int
		boolean  int
		nullable bool
	}
	byName := make(map[string]*acc)

	for _, row := range rows {
		for name, value := range row {
			a := byName[name]
			if a == nil {
				a = &acc{}
				byName[name] = a
			}
			if value == nil {
				a.nullable = true
				continue
			}
			a.nonNull++
			switch value.(type) {
			case int, int32, int64, float32, float64, json.Number:
				a.numeric++
			case bool:
				a.boolean++
			}
		}
	}

	// A column missing from some row is nullable even if never null where
	// present.
	for name, a := range byName {
		for _, row := range rows {
			if _, ok := row[name]; !ok {
				a.nullable = true
				break
			}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]ColumnSchema, 0, len(names))
	for _, name := range names {
		a := byName[name]
		colType := TypeText
		switch {
		case a.nonNull > 0 && a.numeric == a.nonNull:
			colType = TypeNumeric
		case a.nonNull > 0 && a.boolean == a.nonNull:
			colType = TypeBoolean
		}
		schemas = append(schemas, ColumnSchema{Name: name, Type: colType, Nullable: a.nullable})
	}
	return schemas
}
