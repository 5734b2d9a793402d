// Package memory adapts the in-process memdb store to the datasource
// executor contract. The interpreter has no parameter binding, so $N markers
// are inlined as SQL literals before execution.
package memory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/panelize-ai/panelize-engine/pkg/adapters/datasource"
	"github.com/panelize-ai/panelize-engine/pkg/filters"
	"github.com/panelize-ai/panelize-engine/pkg/memdb"
)

func init() {
	datasource.Register("memory", func(ctx context.Context, deps datasource.Deps) (datasource.QueryExecutor, error) {
		if deps.Store == nil {
			return nil, fmt.Errorf("memory datasource requires a table store")
		}
		return NewExecutor(deps.Store, deps.Logger), nil
	})
}

// Executor runs queries against a memdb store.
type Executor struct {
	store  *memdb.Store
	logger *zap.Logger
}

var _ datasource.QueryExecutor = (*Executor)(nil)

// NewExecutor wraps a store.
func NewExecutor(store *memdb.Store, logger *zap.Logger) *Executor {
	return &Executor{store: store, logger: logger}
}

// Query inlines params as literals and executes via the interpreter. The
// row limit is applied to the result set; the interpreter's own LIMIT
// clause, if any, already ran inside the query.
func (e *Executor) Query(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inlined, err := filters.InlineLiterals(sqlQuery, params)
	if err != nil {
		return nil, err
	}

	result, err := e.store.Query(inlined)
	if err != nil {
		return nil, err
	}

	rows := result.Rows
	if max := datasource.EffectiveLimit(limit); len(rows) > max {
		rows = rows[:max]
	}

	columns := make([]datasource.ColumnInfo, len(result.Columns))
	for i, name := range result.Columns {
		columns[i] = datasource.ColumnInfo{Name: name, Type: columnType(e.store, name)}
	}

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}, nil
}

// columnType looks the column up across registered schemas; projection
// aliases and aggregates have no schema entry and report UNKNOWN.
func columnType(store *memdb.Store, name string) string {
	for _, schema := range store.Schemas() {
		for _, col := range schema.Columns {
			if col.Name == name {
				return string(col.Type)
			}
		}
	}
	return "UNKNOWN"
}

// Close is a no-op; the store outlives its executors.
func (e *Executor) Close() error {
	return nil
}
