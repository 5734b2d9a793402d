// Package datasource defines the executor contract query strategies run
// against, plus the registry mapping datasource names to concrete backends.
package datasource

import (
	"context"

	"go.uber.org/zap"

	"github.com/panelize-ai/panelize-engine/pkg/config"
	"github.com/panelize-ai/panelize-engine/pkg/memdb"
)

// MaxQueryLimit is the hard cap on rows returned by Query.
// This protects against unbounded queries that could crash the server.
const MaxQueryLimit = 1000

// QueryExecutor executes one parameterized SELECT against a backend.
// The SQL uses $1, $2, ... positional markers; each backend converts or
// inlines them as its driver requires. Every query is wrapped with a
// dialect-specific row limit:
//   - limit <= 0 or limit > MaxQueryLimit: MaxQueryLimit applies
//   - otherwise the given limit applies
//
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	Query(ctx context.Context, sqlQuery string, params []any, limit int) (*QueryExecutionResult, error)
	Close() error
}

// ColumnInfo describes a result column with backend-agnostic type naming.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryExecutionResult holds the rows a query produced.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// EffectiveLimit clamps a requested limit into (0, MaxQueryLimit].
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// Deps carries everything a backend may need to build an executor.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger
	Store  *memdb.Store
}
