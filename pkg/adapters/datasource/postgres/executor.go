// Package postgres implements the datasource executor over a pgx connection
// pool. Positional $N markers bind natively.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/panelize-ai/panelize-engine/pkg/adapters/datasource"
	"github.com/panelize-ai/panelize-engine/pkg/retry"
)

func init() {
	datasource.Register("postgres", func(ctx context.Context, deps datasource.Deps) (datasource.QueryExecutor, error) {
		return NewExecutor(ctx, deps.Config.Postgres.ConnectionString(), deps.Logger)
	})
}

// Executor runs queries against PostgreSQL.
type Executor struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ datasource.QueryExecutor = (*Executor)(nil)

// NewExecutor connects a pool and verifies it is reachable. Establishing the
// connection retries transient failures with backoff; query execution never
// does.
func NewExecutor(ctx context.Context, connString string, logger *zap.Logger) (*Executor, error) {
	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*pgxpool.Pool, error) {
		p, err := pgxpool.New(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return &Executor{pool: pool, logger: logger}, nil
}

// Query runs a parameterized SELECT wrapped with a LIMIT bound.
func (e *Executor) Query(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", sqlQuery, datasource.EffectiveLimit(limit))

	rows, err := e.pool.Query(ctx, wrapped, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]datasource.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.ColumnInfo{
			Name: string(fd.Name),
			Type: typeNameFromOID(fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// Close releases the pool.
func (e *Executor) Close() error {
	e.pool.Close()
	return nil
}

// typeNameFromOID maps common PostgreSQL type OIDs to readable names.
// Unknown types return "UNKNOWN".
func typeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 114:
		return "JSON"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1083:
		return "TIME"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 3802:
		return "JSONB"
	default:
		return "UNKNOWN"
	}
}
