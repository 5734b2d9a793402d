// Package memdb is an in-process tabular store with a deliberately small
// SQL SELECT interpreter. It backs development and demo sessions where no
// real database is attached: tables are loaded as row maps, schemas are
// inferred, and queries run directly over the rows.
package memdb

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
)

// ColumnType is the inferred storage type of a loaded column.
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeBoolean ColumnType = "boolean"
	TypeText    ColumnType = "text"
)

// ColumnSchema describes one inferred column.
type ColumnSchema struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// TableSchema is the inferred shape of a loaded table.
type TableSchema struct {
	Name    string         `json:"name"`
	Columns []ColumnSchema `json:"columns"`
	Rows    int            `json:"rows"`
}

// Table holds one loaded table's schema and rows.
type Table struct {
	Name    string
	Columns []ColumnSchema
	Rows    []map[string]any
}

// ColumnNames returns the schema's column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Store is a keyed table registry. Lookup is case-insensitive; loading a
// table under an existing name replaces it. Callers hold a Store handle,
// typically one per process or session.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewStore returns an empty registry.
func NewStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// LoadTable registers rows under name, inferring the schema, and replaces
// any table already registered under the same case-folded name.
func (s *Store) LoadTable(name string, rows []map[string]any) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: table name is empty", apperrors.ErrValidation)
	}

	table := &Table{
		Name:    name,
		Columns: inferSchema(rows),
		Rows:    rows,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[strings.ToLower(name)] = table
	return table, nil
}

// Get returns the table registered under name, matching case-insensitively.
func (s *Store) Get(name string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.tables[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: table %q", apperrors.ErrNotFound, name)
	}
	return table, nil
}

// Schemas lists every registered table's inferred schema, sorted by name.
func (s *Store) Schemas() []TableSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]TableSchema, 0, len(s.tables))
	for _, t := range s.tables {
		schemas = append(schemas, TableSchema{Name: t.Name, Columns: t.Columns, Rows: len(t.Rows)})
	}
	sort.Slice(schemas, func(i, j int) bool {
		return strings.ToLower(schemas[i].Name) < strings.ToLower(schemas[j].Name)
	})
	return schemas
}

// Reset drops every registered table.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*Table)
}
